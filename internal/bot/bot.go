package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"flashcards/internal/model"
	"flashcards/internal/service"
	"flashcards/internal/viewer"
)

const menuLabelHelp = "ℹ️ Help"

// session is one chat's browsing state.
type session struct {
	scope model.Scope
	nav   *viewer.Navigator
}

// Bot lets students browse a class's cards from Telegram.
type Bot struct {
	api      *tgbotapi.BotAPI
	views    *service.ViewService
	settings *service.SettingsService
	classes  *service.ClassService
	pageSize int
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(token string, views *service.ViewService, settings *service.SettingsService, classes *service.ClassService, pageSize int, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Bot{
		api:      api,
		views:    views,
		settings: settings,
		classes:  classes,
		pageSize: pageSize,
		log:      log.With().Str("component", "bot").Logger(),
		sessions: make(map[int64]*session),
	}, nil
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Str("username", b.api.Self.UserName).Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Error().Err(err).Msg("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Error().Err(err).Msg("handle message")
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		return b.handleCommand(ctx, msg)
	}

	switch strings.TrimSpace(msg.Text) {
	case btnAll:
		return b.showView(ctx, msg.Chat.ID, func(nav *viewer.Navigator) error { return nav.ShowAll() })
	case btnFolders:
		return b.showView(ctx, msg.Chat.ID, func(nav *viewer.Navigator) error { return nav.MainMenu() })
	case menuLabelHelp:
		return b.handleHelp(msg.Chat.ID)
	}
	return b.sendText(msg.Chat.ID, "Use the menu below or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg.Chat.ID)
	case "class":
		return b.handleClass(ctx, msg.Chat.ID, msg.CommandArguments())
	case "cards":
		return b.showView(ctx, msg.Chat.ID, func(nav *viewer.Navigator) error { return nav.ShowAll() })
	case "folders":
		return b.showView(ctx, msg.Chat.ID, func(nav *viewer.Navigator) error { return nav.MainMenu() })
	case "help":
		return b.handleHelp(msg.Chat.ID)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) error {
	sess := b.session(chatID)
	welcome, err := b.settings.Welcome(ctx, sess.scope)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("<b>%s</b>", escape(welcome.Title))
	if welcome.Message != "" {
		text += "\n\n" + escape(welcome.Message)
	}
	if err := b.sendText(chatID, text); err != nil {
		return err
	}
	return b.showView(ctx, chatID, func(nav *viewer.Navigator) error { return nav.MainMenu() })
}

// handleClass switches the chat to another class. No argument selects the
// cards that belong to no class.
func (b *Bot) handleClass(ctx context.Context, chatID int64, arg string) error {
	scope := service.ResolveScope(arg)
	name := "shared cards"
	if scope.IsScoped() {
		class, err := b.classes.GetClass(ctx, scope.ClassID())
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, fmt.Sprintf("Class <code>%s</code> does not exist.", escape(scope.ClassID())))
		}
		if err != nil {
			return err
		}
		name = class.Name
	}

	b.mu.Lock()
	b.sessions[chatID] = &session{scope: scope, nav: viewer.New(b.pageSize)}
	b.mu.Unlock()

	b.log.Info().Int64("chat", chatID).Str("scope", scope.Key()).Msg("class selected")
	if err := b.sendText(chatID, fmt.Sprintf("Now browsing <b>%s</b>.", escape(name))); err != nil {
		return err
	}
	return b.showView(ctx, chatID, func(nav *viewer.Navigator) error { return nav.MainMenu() })
}

func (b *Bot) handleHelp(chatID int64) error {
	text := strings.Join([]string{
		"<b>Commands</b>",
		"/start - welcome message and categories",
		"/class &lt;id&gt; - switch class, no id for shared cards",
		"/cards - every card in order",
		"/folders - browse by category",
		"/help - this message",
	}, "\n")
	return b.sendText(chatID, text)
}

// showView runs step on the chat's navigator and sends the resulting view
// as a new message.
func (b *Bot) showView(ctx context.Context, chatID int64, step func(*viewer.Navigator) error) error {
	sess := b.session(chatID)
	snap, err := b.views.Snapshot(ctx, sess.scope)
	if err != nil {
		return err
	}

	text, markup, err := b.step(sess, snap, step)
	if err != nil {
		return err
	}
	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if !strings.HasPrefix(cb.Data, cbPrefix) {
		b.ack(cb.ID, "")
		return nil
	}

	act, err := parseCallback(cb.Data)
	if err != nil {
		b.log.Warn().Str("data", cb.Data).Msg("unknown callback")
		b.ack(cb.ID, "")
		return nil
	}
	if act.kind == actNoop {
		b.ack(cb.ID, "")
		return nil
	}

	chatID := cb.Message.Chat.ID
	sess := b.session(chatID)
	snap, err := b.views.Snapshot(ctx, sess.scope)
	if err != nil {
		b.ack(cb.ID, "Something went wrong, try again.")
		return err
	}

	text, markup, err := b.step(sess, snap, func(nav *viewer.Navigator) error { return apply(nav, snap, act) })
	switch {
	case errors.Is(err, viewer.ErrUnknownFolder), errors.Is(err, viewer.ErrInvalidTransition):
		// The keyboard was stale; show where the navigator actually is.
		b.ack(cb.ID, "That list has changed.")
		text, markup, err = b.step(sess, snap, func(*viewer.Navigator) error { return nil })
		if err != nil {
			return err
		}
	case err != nil:
		b.ack(cb.ID, "")
		return err
	default:
		b.ack(cb.ID, "")
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cb.Message.MessageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil && !isNotModified(err) {
		return fmt.Errorf("edit view: %w", err)
	}
	return nil
}

// step applies fn to the session navigator under the lock and renders the
// view that follows.
func (b *Bot) step(sess *session, snap *viewer.Snapshot, fn func(*viewer.Navigator) error) (string, tgbotapi.InlineKeyboardMarkup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := fn(sess.nav); err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	text, markup := render(sess.nav.View(snap))
	return text, markup, nil
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()

	sess, ok := b.sessions[chatID]
	if !ok {
		sess = &session{scope: model.Unscoped(), nav: viewer.New(b.pageSize)}
		b.sessions[chatID] = sess
	}
	return sess
}

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnFolders),
			tgbotapi.NewKeyboardButton(btnAll),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// Telegram rejects edits that leave the message unchanged.
func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
