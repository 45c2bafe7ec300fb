// Package viewer projects a class's categories and cards into the paginated
// read-only views a student navigates: all cards, category folders,
// sub-category folders and a single category's cards.
package viewer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed")
	ErrUnknownFolder     = errors.New("folder not available here")
	ErrInvalidPageSize   = errors.New("page size must be positive")
)

// StateKind names a navigation state.
type StateKind int

const (
	FlatList StateKind = iota
	CategoryFolders
	SubCategoryFolders
	CategoryDetail
)

func (k StateKind) String() string {
	switch k {
	case FlatList:
		return "flat_list"
	case CategoryFolders:
		return "category_folders"
	case SubCategoryFolders:
		return "sub_category_folders"
	case CategoryDetail:
		return "category_detail"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// State is one navigation state. CategoryID is the parent for
// SubCategoryFolders and the shown category for CategoryDetail; it is
// ignored when Uncategorized is set.
type State struct {
	Kind          StateKind
	CategoryID    uint
	Uncategorized bool
}

// Event is a navigation action.
type Event int

const (
	ShowAll Event = iota
	ShowFolders
	Select
	Back
	MainMenu
)

func (e Event) String() string {
	switch e {
	case ShowAll:
		return "show_all"
	case ShowFolders:
		return "show_folders"
	case Select:
		return "select"
	case Back:
		return "back"
	case MainMenu:
		return "main_menu"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// transitions lists the events each state accepts.
var transitions = map[StateKind]map[Event]bool{
	FlatList:           {ShowAll: true, ShowFolders: true, MainMenu: true},
	CategoryFolders:    {ShowAll: true, ShowFolders: true, Select: true, MainMenu: true},
	SubCategoryFolders: {ShowAll: true, Select: true, Back: true, MainMenu: true},
	CategoryDetail:     {ShowAll: true, Back: true, MainMenu: true},
}

// Allowed reports whether ev may fire in state k.
func Allowed(k StateKind, ev Event) bool {
	return transitions[k][ev]
}

type frame struct {
	state State
	page  int
}

// Navigator holds one viewer's position. FlatList and CategoryFolders are
// roots; folder selections push frames and Back pops them. A Navigator is
// not safe for concurrent use.
type Navigator struct {
	stack    []frame
	pageSize int
}

// New returns a navigator showing all cards, page 1.
func New(pageSize int) *Navigator {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Navigator{stack: []frame{{state: State{Kind: FlatList}, page: 1}}, pageSize: pageSize}
}

func (n *Navigator) top() *frame {
	return &n.stack[len(n.stack)-1]
}

func (n *Navigator) State() State { return n.top().state }

// Depth is the number of folder levels below the root.
func (n *Navigator) Depth() int { return len(n.stack) - 1 }

func (n *Navigator) Page() int { return n.top().page }

func (n *Navigator) PageSize() int { return n.pageSize }

// SetPageSize changes the page size and returns to page 1.
func (n *Navigator) SetPageSize(size int) error {
	if size < 1 {
		return ErrInvalidPageSize
	}
	n.pageSize = size
	n.top().page = 1
	return nil
}

// SetPage moves to page p. Out of range pages are clamped when the view is
// projected.
func (n *Navigator) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	n.top().page = p
}

func (n *Navigator) NextPage() { n.SetPage(n.Page() + 1) }

func (n *Navigator) PrevPage() { n.SetPage(n.Page() - 1) }

func (n *Navigator) check(ev Event) error {
	if !Allowed(n.State().Kind, ev) {
		return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, ev, n.State().Kind)
	}
	return nil
}

func (n *Navigator) reset(kind StateKind) {
	n.stack = []frame{{state: State{Kind: kind}, page: 1}}
}

// ShowAll switches to the flat list of every card.
func (n *Navigator) ShowAll() error {
	if err := n.check(ShowAll); err != nil {
		return err
	}
	n.reset(FlatList)
	return nil
}

// ShowFolders switches to the top-level category folders.
func (n *Navigator) ShowFolders() error {
	if err := n.check(ShowFolders); err != nil {
		return err
	}
	n.reset(CategoryFolders)
	return nil
}

// MainMenu clears the folder path back to the category folders.
func (n *Navigator) MainMenu() error {
	if err := n.check(MainMenu); err != nil {
		return err
	}
	n.reset(CategoryFolders)
	return nil
}

// Back returns to the previous folder level and the page it showed.
func (n *Navigator) Back() error {
	if err := n.check(Back); err != nil {
		return err
	}
	if len(n.stack) == 1 {
		n.reset(CategoryFolders)
		return nil
	}
	n.stack = n.stack[:len(n.stack)-1]
	return nil
}

// Select opens folder f. A category with sub-categories opens its
// sub-category folders; anything else opens the card list.
func (n *Navigator) Select(snap *Snapshot, f FolderRef) error {
	if err := n.check(Select); err != nil {
		return err
	}
	cur := n.State()
	idx := snap.index()

	var next State
	switch cur.Kind {
	case CategoryFolders:
		switch f.Kind {
		case FolderUncategorized:
			next = State{Kind: CategoryDetail, Uncategorized: true}
		case FolderCategory:
			c, ok := idx.categories[f.ID]
			if !ok || c.ParentID != nil {
				return fmt.Errorf("%w: category %d", ErrUnknownFolder, f.ID)
			}
			if len(idx.children[f.ID]) > 0 {
				next = State{Kind: SubCategoryFolders, CategoryID: f.ID}
			} else {
				next = State{Kind: CategoryDetail, CategoryID: f.ID}
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownFolder, f.Kind)
		}
	case SubCategoryFolders:
		switch f.Kind {
		case FolderDirectCards:
			next = State{Kind: CategoryDetail, CategoryID: cur.CategoryID}
		case FolderCategory:
			c, ok := idx.categories[f.ID]
			if !ok || c.ParentID == nil || *c.ParentID != cur.CategoryID {
				return fmt.Errorf("%w: category %d", ErrUnknownFolder, f.ID)
			}
			next = State{Kind: CategoryDetail, CategoryID: f.ID}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownFolder, f.Kind)
		}
	}

	n.stack = append(n.stack, frame{state: next, page: 1})
	return nil
}

// Open jumps to the card list of a category, or of the uncategorized cards
// when categoryID is nil, through the selections a student would make from
// the category folders. The state is left unchanged on error.
func (n *Navigator) Open(snap *Snapshot, categoryID *uint) error {
	saved := append([]frame(nil), n.stack...)
	if err := n.open(snap, categoryID); err != nil {
		n.stack = saved
		return err
	}
	return nil
}

func (n *Navigator) open(snap *Snapshot, categoryID *uint) error {
	n.reset(CategoryFolders)
	if categoryID == nil {
		return n.Select(snap, FolderRef{Kind: FolderUncategorized})
	}

	c, ok := snap.index().categories[*categoryID]
	if !ok {
		return fmt.Errorf("%w: category %d", ErrUnknownFolder, *categoryID)
	}
	if c.ParentID != nil {
		if err := n.Select(snap, FolderRef{Kind: FolderCategory, ID: *c.ParentID}); err != nil {
			return err
		}
		return n.Select(snap, FolderRef{Kind: FolderCategory, ID: c.ID})
	}
	if err := n.Select(snap, FolderRef{Kind: FolderCategory, ID: c.ID}); err != nil {
		return err
	}
	if n.State().Kind == SubCategoryFolders {
		return n.Select(snap, FolderRef{Kind: FolderDirectCards, ID: c.ID})
	}
	return nil
}

// prune drops frames whose category no longer exists in snap.
func (n *Navigator) prune(idx *index) {
	for i := 1; i < len(n.stack); i++ {
		s := n.stack[i].state
		if s.Uncategorized {
			continue
		}
		if _, ok := idx.categories[s.CategoryID]; !ok {
			n.stack = n.stack[:i]
			return
		}
	}
}
