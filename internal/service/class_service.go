package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/gosimple/slug"

	"flashcards/internal/model"
	"flashcards/internal/repository"
)

const classIDMaxLen = 30

// ResolveScope turns an optional class id from a request into the partition
// every other call filters by. An empty id selects the legacy partition.
func ResolveScope(requested string) model.Scope {
	id := strings.TrimSpace(requested)
	if id == "" {
		return model.Unscoped()
	}
	return model.Scoped(strings.ToLower(id))
}

// DeriveClassID builds a class id from a display name: lower case, only
// letters, digits and hyphens, at most 30 characters before the collision
// suffix. taken reports ids already in use; the first free candidate of
// base, base-1, base-2, ... wins.
func DeriveClassID(name string, taken func(id string) (bool, error)) (string, error) {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		return -1
	}, name)

	base := slug.Make(kept)
	if len(base) > classIDMaxLen {
		base = strings.TrimRight(base[:classIDMaxLen], "-")
	}
	if base == "" {
		base = "class"
	}

	candidate := base
	for n := 1; ; n++ {
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// ClassInput is the editable part of a class.
type ClassInput struct {
	Name string `validate:"required,max=50" label:"name"`
}

// RecordCounts counts records per kind.
type RecordCounts struct {
	Categories int64 `json:"categories"`
	Cards      int64 `json:"cards"`
	Settings   int64 `json:"settings"`
}

func (c RecordCounts) Total() int64 {
	return c.Categories + c.Cards + c.Settings
}

// RenameResult reports how far a class rename cascaded. Remaining counts the
// records still pointing at the old id after the commit.
type RenameResult struct {
	OldClassID string       `json:"oldClassId"`
	NewClassID string       `json:"newClassId"`
	Updated    RecordCounts `json:"updated"`
	Remaining  RecordCounts `json:"remaining"`
	Partial    bool         `json:"partial"`
}

// ClassService manages class partitions and their cascades.
type ClassService struct {
	store *repository.Store
}

func NewClassService(store *repository.Store) *ClassService {
	return &ClassService{store: store}
}

func (s *ClassService) CreateClass(ctx context.Context, in ClassInput) (*model.ClassPartition, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var class model.ClassPartition
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		taken, err := tx.Classes.NameTaken(ctx, in.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return newError(ErrDuplicateName, "class %q already exists", in.Name)
		}
		id, err := DeriveClassID(in.Name, func(id string) (bool, error) {
			return tx.Classes.IDTaken(ctx, id, "")
		})
		if err != nil {
			return err
		}
		class = model.ClassPartition{ID: id, Name: in.Name}
		return tx.Classes.Create(ctx, &class)
	})
	if err != nil {
		return nil, persistenceError("create class", err)
	}
	return &class, nil
}

func (s *ClassService) ListClasses(ctx context.Context) ([]model.ClassPartition, error) {
	classes, err := s.store.Classes.List(ctx)
	if err != nil {
		return nil, persistenceError("list classes", err)
	}
	return classes, nil
}

func (s *ClassService) GetClass(ctx context.Context, classID string) (*model.ClassPartition, error) {
	class, err := s.store.Classes.GetByID(ctx, classID)
	if repository.IsNotFound(err) {
		return nil, newError(ErrNotFound, "class %q does not exist", classID)
	}
	if err != nil {
		return nil, persistenceError("get class", err)
	}
	return class, nil
}

// RenameClass renames a class, derives its new id and moves every category,
// card and setting of the class to that id in one transaction.
func (s *ClassService) RenameClass(ctx context.Context, classID string, in ClassInput) (*RenameResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var res RenameResult
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		class, err := tx.Classes.GetByID(ctx, classID)
		if repository.IsNotFound(err) {
			return newError(ErrNotFound, "class %q does not exist", classID)
		}
		if err != nil {
			return err
		}
		taken, err := tx.Classes.NameTaken(ctx, in.Name, class.ID)
		if err != nil {
			return err
		}
		if taken {
			return newError(ErrDuplicateName, "class %q already exists", in.Name)
		}

		newID, err := DeriveClassID(in.Name, func(id string) (bool, error) {
			return classIDInUse(ctx, tx, id, class.ID)
		})
		if err != nil {
			return err
		}
		res.OldClassID, res.NewClassID = class.ID, newID

		if newID != class.ID {
			old := model.Scoped(class.ID)
			if res.Updated.Categories, err = tx.Categories.ReassignClass(ctx, old, newID); err != nil {
				return err
			}
			if res.Updated.Cards, err = tx.Cards.ReassignClass(ctx, old, newID); err != nil {
				return err
			}
			if res.Updated.Settings, err = tx.Settings.ReassignClass(ctx, old, newID); err != nil {
				return err
			}
		}
		return tx.Classes.Rename(ctx, class.ID, newID, in.Name)
	})
	if err != nil {
		return nil, persistenceError("rename class", err)
	}

	if res.NewClassID != res.OldClassID {
		if res.Remaining, err = countScope(ctx, s.store, model.Scoped(res.OldClassID)); err != nil {
			return nil, persistenceError("verify class rename", err)
		}
		res.Partial = res.Remaining.Total() > 0
	}
	return &res, nil
}

// DeleteClass removes a class and every record that belongs to it.
func (s *ClassService) DeleteClass(ctx context.Context, classID string) (*RecordCounts, error) {
	var deleted RecordCounts
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		class, err := tx.Classes.GetByID(ctx, classID)
		if repository.IsNotFound(err) {
			return newError(ErrNotFound, "class %q does not exist", classID)
		}
		if err != nil {
			return err
		}
		scope := model.Scoped(class.ID)
		if deleted.Cards, err = tx.Cards.DeleteByScope(ctx, scope); err != nil {
			return err
		}
		if deleted.Categories, err = tx.Categories.DeleteByScope(ctx, scope); err != nil {
			return err
		}
		if deleted.Settings, err = tx.Settings.DeleteByScope(ctx, scope); err != nil {
			return err
		}
		_, err = tx.Classes.Delete(ctx, class.ID)
		return err
	})
	if err != nil {
		return nil, persistenceError("delete class", err)
	}
	return &deleted, nil
}

// classIDInUse reports whether id names another class or is still carried
// by records that have no class of their own. Renaming onto such an id would
// merge two partitions.
func classIDInUse(ctx context.Context, st *repository.Store, id, excludeID string) (bool, error) {
	if strings.EqualFold(id, excludeID) {
		return false, nil
	}
	taken, err := st.Classes.IDTaken(ctx, id, excludeID)
	if err != nil || taken {
		return taken, err
	}
	refs, err := countScope(ctx, st, model.Scoped(id))
	if err != nil {
		return false, err
	}
	return refs.Total() > 0, nil
}

func countScope(ctx context.Context, st *repository.Store, scope model.Scope) (RecordCounts, error) {
	var c RecordCounts
	var err error
	if c.Categories, err = st.Categories.CountByScope(ctx, scope); err != nil {
		return c, err
	}
	if c.Cards, err = st.Cards.CountByScope(ctx, scope); err != nil {
		return c, err
	}
	if c.Settings, err = st.Settings.CountByScope(ctx, scope); err != nil {
		return c, err
	}
	return c, nil
}
