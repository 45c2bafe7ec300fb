package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"flashcards/internal/model"
	"flashcards/internal/viewer"
)

const (
	cbPrefix  = "v:"
	cbAll     = "v:all"
	cbFolders = "v:folders"
	cbBack    = "v:back"
	cbMenu    = "v:menu"
	cbNoop    = "v:noop"
	cbSelect  = "v:sel:"
	cbPage    = "v:page:"
)

const (
	btnAll      = "📋 All cards"
	btnFolders  = "📂 Categories"
	btnBack     = "⬅️ Back"
	btnMenu     = "🏠 Main menu"
	btnPrev     = "◀️"
	btnNext     = "▶️"
	maxWordRune = 40
)

var errBadCallback = errors.New("unknown callback")

type actionKind int

const (
	actShowAll actionKind = iota
	actShowFolders
	actSelect
	actBack
	actMenu
	actPage
	actNoop
)

// action is a decoded inline button press.
type action struct {
	kind   actionKind
	folder viewer.FolderRef
	page   int
}

func selectData(f viewer.FolderRef) string {
	return fmt.Sprintf("%s%d:%d", cbSelect, int(f.Kind), f.ID)
}

func pageData(page int) string {
	return cbPage + strconv.Itoa(page)
}

func parseCallback(data string) (action, error) {
	switch data {
	case cbAll:
		return action{kind: actShowAll}, nil
	case cbFolders:
		return action{kind: actShowFolders}, nil
	case cbBack:
		return action{kind: actBack}, nil
	case cbMenu:
		return action{kind: actMenu}, nil
	case cbNoop:
		return action{kind: actNoop}, nil
	}

	switch {
	case strings.HasPrefix(data, cbSelect):
		parts := strings.Split(strings.TrimPrefix(data, cbSelect), ":")
		if len(parts) != 2 {
			return action{}, errBadCallback
		}
		kind, err := strconv.Atoi(parts[0])
		if err != nil {
			return action{}, errBadCallback
		}
		id, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return action{}, errBadCallback
		}
		return action{kind: actSelect, folder: viewer.FolderRef{Kind: viewer.FolderKind(kind), ID: uint(id)}}, nil
	case strings.HasPrefix(data, cbPage):
		page, err := strconv.Atoi(strings.TrimPrefix(data, cbPage))
		if err != nil || page < 1 {
			return action{}, errBadCallback
		}
		return action{kind: actPage, page: page}, nil
	}
	return action{}, errBadCallback
}

// apply runs a on the navigator.
func apply(nav *viewer.Navigator, snap *viewer.Snapshot, a action) error {
	switch a.kind {
	case actShowAll:
		return nav.ShowAll()
	case actShowFolders:
		return nav.ShowFolders()
	case actSelect:
		return nav.Select(snap, a.folder)
	case actBack:
		return nav.Back()
	case actMenu:
		return nav.MainMenu()
	case actPage:
		nav.SetPage(a.page)
	}
	return nil
}

// render turns a view into message text and its inline keyboard.
func render(v viewer.View) (string, tgbotapi.InlineKeyboardMarkup) {
	var text strings.Builder
	var rows [][]tgbotapi.InlineKeyboardButton
	page, total := v.Pagination()

	switch view := v.(type) {
	case viewer.FlatListView:
		text.WriteString("<b>All cards</b>\n")
		writeCards(&text, view.Cards)
		rows = appendPager(rows, page, total)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnFolders, cbFolders)))

	case viewer.CategoryFoldersView:
		text.WriteString("<b>Categories</b>\n")
		if len(view.Folders) == 0 {
			text.WriteString("No categories yet.")
		}
		rows = appendFolders(rows, view.Folders)
		rows = appendPager(rows, page, total)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnAll, cbAll)))

	case viewer.SubCategoryFoldersView:
		text.WriteString(fmt.Sprintf("<b>%s</b>\n", escape(view.ParentName)))
		rows = appendFolders(rows, view.Folders)
		rows = appendPager(rows, page, total)
		rows = append(rows, backRow())

	case viewer.CategoryDetailView:
		text.WriteString(fmt.Sprintf("<b>%s</b>\n", escape(view.CategoryName)))
		writeCards(&text, view.Cards)
		rows = appendPager(rows, page, total)
		rows = append(rows, backRow())
	}

	return strings.TrimSpace(text.String()), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func writeCards(b *strings.Builder, cards []model.Card) {
	if len(cards) == 0 {
		b.WriteString("No cards here.")
		return
	}
	for _, c := range cards {
		line := fmt.Sprintf("%d. %s", c.SortOrder, escape(shortWord(c.Word, maxWordRune)))
		if c.Image != "" {
			line += " 🖼"
		}
		if c.AudioURL != "" {
			line += " 🔊"
		}
		b.WriteString(line + "\n")
	}
}

func appendFolders(rows [][]tgbotapi.InlineKeyboardButton, folders []viewer.Folder) [][]tgbotapi.InlineKeyboardButton {
	for _, f := range folders {
		label := fmt.Sprintf("%s (%d)", shortWord(f.Name, maxWordRune), f.CardCount)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, selectData(f.Ref()))))
	}
	return rows
}

func appendPager(rows [][]tgbotapi.InlineKeyboardButton, page, total int) [][]tgbotapi.InlineKeyboardButton {
	if total <= 1 {
		return rows
	}
	var row []tgbotapi.InlineKeyboardButton
	if page > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(btnPrev, pageData(page-1)))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page, total), cbNoop))
	if page < total {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(btnNext, pageData(page+1)))
	}
	return append(rows, row)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnBack, cbBack),
		tgbotapi.NewInlineKeyboardButtonData(btnMenu, cbMenu),
	)
}

func shortWord(word string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(word, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
