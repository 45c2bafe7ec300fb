package viewer

import (
	"fmt"
	"sort"

	"flashcards/internal/model"
)

// Names of the synthetic folders.
const (
	UncategorizedName = "Uncategorized"
	DirectCardsName   = "Cards in this category"
)

// Snapshot is the data of one scope the views are projected from.
type Snapshot struct {
	Categories []model.Category
	Cards      []model.Card
}

type index struct {
	categories map[uint]model.Category
	children   map[uint][]model.Category
	direct     map[uint]int
	loose      int
}

func (s *Snapshot) index() *index {
	idx := &index{
		categories: make(map[uint]model.Category, len(s.Categories)),
		children:   make(map[uint][]model.Category),
		direct:     make(map[uint]int),
	}
	for _, c := range s.Categories {
		idx.categories[c.ID] = c
		if c.ParentID != nil {
			idx.children[*c.ParentID] = append(idx.children[*c.ParentID], c)
		}
	}
	for _, card := range s.Cards {
		if card.CategoryID == nil {
			idx.loose++
			continue
		}
		idx.direct[*card.CategoryID]++
	}
	for id := range idx.children {
		sortByName(idx.children[id])
	}
	return idx
}

// FolderKind tells real categories apart from the synthetic folders.
type FolderKind int

const (
	FolderCategory FolderKind = iota
	FolderUncategorized
	FolderDirectCards
)

func (k FolderKind) String() string {
	switch k {
	case FolderCategory:
		return "category"
	case FolderUncategorized:
		return "uncategorized"
	case FolderDirectCards:
		return "direct"
	default:
		return fmt.Sprintf("folder(%d)", int(k))
	}
}

// FolderRef identifies a folder to select.
type FolderRef struct {
	Kind FolderKind
	ID   uint
}

// Folder is one entry of a folder listing.
type Folder struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	CardCount int        `json:"cardCount"`
	Kind      FolderKind `json:"kind"`
}

func (f Folder) Ref() FolderRef { return FolderRef{Kind: f.Kind, ID: f.ID} }

// View is implemented by every projected view.
type View interface {
	Pagination() (page, totalPages int)
}

type FlatListView struct {
	Cards      []model.Card `json:"cards"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

type CategoryFoldersView struct {
	Folders    []Folder `json:"folders"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
}

type SubCategoryFoldersView struct {
	ParentID   uint     `json:"parentId"`
	ParentName string   `json:"parentName"`
	Folders    []Folder `json:"folders"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
}

// CategoryDetailView lists one partition's cards. CategoryID is nil for the
// uncategorized cards.
type CategoryDetailView struct {
	CategoryID   *uint        `json:"categoryId"`
	CategoryName string       `json:"categoryName"`
	Cards        []model.Card `json:"cards"`
	Page         int          `json:"page"`
	TotalPages   int          `json:"totalPages"`
}

func (v FlatListView) Pagination() (int, int)           { return v.Page, v.TotalPages }
func (v CategoryFoldersView) Pagination() (int, int)    { return v.Page, v.TotalPages }
func (v SubCategoryFoldersView) Pagination() (int, int) { return v.Page, v.TotalPages }
func (v CategoryDetailView) Pagination() (int, int)     { return v.Page, v.TotalPages }

// TotalPages is ceil(n/size), at least 1.
func TotalPages(n, size int) int {
	if size < 1 {
		size = 1
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate clamps page into [1, TotalPages(n, size)] and returns the slice
// bounds of that page.
func Paginate(n, page, size int) (start, end, clamped, total int) {
	if size < 1 {
		size = 1
	}
	total = TotalPages(n, size)
	clamped = page
	if clamped < 1 {
		clamped = 1
	}
	if clamped > total {
		clamped = total
	}
	start = (clamped - 1) * size
	if start > n {
		start = n
	}
	end = start + size
	if end > n {
		end = n
	}
	return start, end, clamped, total
}

// View projects the current state over snap. Stale folder levels are
// dropped first and the page is clamped, so the navigator always ends up on
// a page that exists.
func (n *Navigator) View(snap *Snapshot) View {
	idx := snap.index()
	n.prune(idx)
	st := n.State()
	fr := n.top()

	switch st.Kind {
	case CategoryFolders:
		folders := TopFolders(snap)
		start, end, page, total := Paginate(len(folders), fr.page, n.pageSize)
		fr.page = page
		return CategoryFoldersView{Folders: folders[start:end], Page: page, TotalPages: total}

	case SubCategoryFolders:
		folders := SubFolders(snap, st.CategoryID)
		start, end, page, total := Paginate(len(folders), fr.page, n.pageSize)
		fr.page = page
		return SubCategoryFoldersView{
			ParentID:   st.CategoryID,
			ParentName: idx.categories[st.CategoryID].Name,
			Folders:    folders[start:end],
			Page:       page,
			TotalPages: total,
		}

	case CategoryDetail:
		var cards []model.Card
		v := CategoryDetailView{CategoryName: UncategorizedName}
		if st.Uncategorized {
			cards = CardsIn(snap, nil)
		} else {
			id := st.CategoryID
			cards = CardsIn(snap, &id)
			v.CategoryID = &id
			v.CategoryName = idx.categories[id].Name
		}
		start, end, page, total := Paginate(len(cards), fr.page, n.pageSize)
		fr.page = page
		v.Cards, v.Page, v.TotalPages = cards[start:end], page, total
		return v

	default:
		cards := SortCards(snap.Cards)
		start, end, page, total := Paginate(len(cards), fr.page, n.pageSize)
		fr.page = page
		return FlatListView{Cards: cards[start:end], Page: page, TotalPages: total}
	}
}

// TopFolders lists the top-level categories by name, each counting its own
// cards plus those of its direct sub-categories. An Uncategorized folder
// follows when the scope has cards without a category.
func TopFolders(snap *Snapshot) []Folder {
	idx := snap.index()
	var tops []model.Category
	for _, c := range snap.Categories {
		if c.ParentID == nil {
			tops = append(tops, c)
		}
	}
	sortByName(tops)

	folders := make([]Folder, 0, len(tops)+1)
	for _, c := range tops {
		count := idx.direct[c.ID]
		for _, child := range idx.children[c.ID] {
			count += idx.direct[child.ID]
		}
		folders = append(folders, Folder{ID: c.ID, Name: c.Name, CardCount: count, Kind: FolderCategory})
	}
	if idx.loose > 0 {
		folders = append(folders, Folder{Name: UncategorizedName, CardCount: idx.loose, Kind: FolderUncategorized})
	}
	return folders
}

// SubFolders lists the sub-categories of parent, preceded by a folder for
// the parent's own cards when it has any.
func SubFolders(snap *Snapshot, parent uint) []Folder {
	idx := snap.index()
	folders := make([]Folder, 0, len(idx.children[parent])+1)
	if n := idx.direct[parent]; n > 0 {
		folders = append(folders, Folder{ID: parent, Name: DirectCardsName, CardCount: n, Kind: FolderDirectCards})
	}
	for _, c := range idx.children[parent] {
		folders = append(folders, Folder{ID: c.ID, Name: c.Name, CardCount: idx.direct[c.ID], Kind: FolderCategory})
	}
	return folders
}

// CardsIn returns the cards of one category (nil for uncategorized) in
// position order.
func CardsIn(snap *Snapshot, categoryID *uint) []model.Card {
	var out []model.Card
	for _, c := range snap.Cards {
		switch {
		case categoryID == nil && c.CategoryID == nil:
			out = append(out, c)
		case categoryID != nil && c.CategoryID != nil && *c.CategoryID == *categoryID:
			out = append(out, c)
		}
	}
	return SortCards(out)
}

// SortCards orders cards by position, then creation time, then id.
func SortCards(cards []model.Card) []model.Card {
	out := make([]model.Card, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

func sortByName(cs []model.Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Name != cs[j].Name {
			return cs[i].Name < cs[j].Name
		}
		return cs[i].ID < cs[j].ID
	})
}
