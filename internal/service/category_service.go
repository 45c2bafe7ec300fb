package service

import (
	"context"
	"strings"

	"flashcards/internal/lock"
	"flashcards/internal/model"
	"flashcards/internal/repository"
)

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name     string `validate:"required,max=100" label:"name"`
	ParentID *uint  `validate:"-"`
}

// DeleteCategoryResult reports the cascade of a category delete.
type DeleteCategoryResult struct {
	Found            bool  `json:"found"`
	PromotedChildren int64 `json:"promotedChildren"`
	DetachedCards    int   `json:"detachedCards"`
}

// CategoryService maintains the two-level category tree of each class.
type CategoryService struct {
	store  *repository.Store
	locker lock.Locker
	rec    *Reconciler
}

func NewCategoryService(store *repository.Store, locker lock.Locker, rec *Reconciler) *CategoryService {
	return &CategoryService{store: store, locker: locker, rec: rec}
}

// treeKey serializes structural changes to the categories of one scope.
func treeKey(scope model.Scope) string {
	return "categories:" + scope.Key()
}

func (s *CategoryService) CreateCategory(ctx context.Context, scope model.Scope, in CategoryInput) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, treeKey(scope))
	if err != nil {
		return nil, persistenceError("lock categories", err)
	}
	defer unlock()

	category := model.Category{Name: in.Name, ParentID: in.ParentID, ClassID: scope.Ref()}
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		if in.ParentID != nil {
			parent, err := tx.Categories.GetByID(ctx, scope, *in.ParentID)
			if repository.IsNotFound(err) {
				return newError(ErrNotFound, "parent category %d does not exist", *in.ParentID)
			}
			if err != nil {
				return err
			}
			if !parent.IsTop() {
				return newError(ErrInvalidHierarchy, "%q is already a sub-category", parent.Name)
			}
		}
		if err := s.checkName(ctx, tx, scope, in.ParentID, in.Name, 0); err != nil {
			return err
		}
		return tx.Categories.Create(ctx, &category)
	})
	if err != nil {
		return nil, persistenceError("create category", err)
	}
	return &category, nil
}

// RenameOrReparent changes the name and parent of a category. A nil parent
// moves it to the top level.
func (s *CategoryService) RenameOrReparent(ctx context.Context, scope model.Scope, id uint, in CategoryInput) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, treeKey(scope))
	if err != nil {
		return nil, persistenceError("lock categories", err)
	}
	defer unlock()

	var category *model.Category
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		var err error
		category, err = tx.Categories.GetByID(ctx, scope, id)
		if repository.IsNotFound(err) {
			return newError(ErrNotFound, "category %d does not exist", id)
		}
		if err != nil {
			return err
		}

		if in.ParentID != nil {
			if err := s.checkParent(ctx, tx, scope, category, *in.ParentID); err != nil {
				return err
			}
		}
		if err := s.checkName(ctx, tx, scope, in.ParentID, in.Name, id); err != nil {
			return err
		}

		category.Name, category.ParentID = in.Name, in.ParentID
		return tx.Categories.Update(ctx, id, in.Name, in.ParentID)
	})
	if err != nil {
		return nil, persistenceError("update category", err)
	}
	return category, nil
}

// checkParent rejects a parent that would create a cycle or a third level.
func (s *CategoryService) checkParent(ctx context.Context, tx *repository.Store, scope model.Scope, category *model.Category, parentID uint) error {
	if parentID == category.ID {
		return newError(ErrCycle, "%q cannot be its own parent", category.Name)
	}

	parent, err := tx.Categories.GetByID(ctx, scope, parentID)
	if repository.IsNotFound(err) {
		return newError(ErrNotFound, "parent category %d does not exist", parentID)
	}
	if err != nil {
		return err
	}

	visited := map[uint]bool{parent.ID: true}
	for up := parent.ParentID; up != nil; {
		if *up == category.ID {
			return newError(ErrCycle, "%q is a descendant of %q", parent.Name, category.Name)
		}
		if visited[*up] {
			break
		}
		visited[*up] = true
		next, err := tx.Categories.GetByID(ctx, scope, *up)
		if repository.IsNotFound(err) {
			break
		}
		if err != nil {
			return err
		}
		up = next.ParentID
	}

	if !parent.IsTop() {
		return newError(ErrInvalidHierarchy, "%q is already a sub-category", parent.Name)
	}
	children, err := tx.Categories.CountChildren(ctx, category.ID)
	if err != nil {
		return err
	}
	if children > 0 {
		return newError(ErrInvalidHierarchy, "%q has sub-categories and cannot be nested", category.Name)
	}
	return nil
}

func (s *CategoryService) checkName(ctx context.Context, tx *repository.Store, scope model.Scope, parentID *uint, name string, excludeID uint) error {
	taken, err := tx.Categories.NameTaken(ctx, scope, parentID, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return newError(ErrDuplicateName, "category %q already exists here", name)
	}
	return nil
}

// DeleteCategory removes a category. Its sub-categories move to the top level
// and its cards move, in order, to the end of the uncategorized cards of the
// same class. Deleting a missing category reports Found false. The delete is
// rejected when a sub-category would share its name with a top-level one.
func (s *CategoryService) DeleteCategory(ctx context.Context, scope model.Scope, id uint) (DeleteCategoryResult, error) {
	catID := id
	own := model.Partition{Scope: scope, CategoryID: &catID}
	loose := model.Partition{Scope: scope}

	unlock, err := lock.LockAll(ctx, s.locker, treeKey(scope), own.Key(), loose.Key())
	if err != nil {
		return DeleteCategoryResult{}, persistenceError("lock categories", err)
	}
	defer unlock()

	var res DeleteCategoryResult
	err = s.store.Atomic(ctx, func(tx *repository.Store) error {
		if _, err := tx.Categories.GetByID(ctx, scope, id); err != nil {
			if repository.IsNotFound(err) {
				return nil
			}
			return err
		}
		res.Found = true

		if err := checkPromotedNames(ctx, tx, scope, id); err != nil {
			return err
		}

		var err error
		if res.PromotedChildren, err = tx.Categories.PromoteChildren(ctx, id); err != nil {
			return err
		}

		src, err := s.rec.load(ctx, tx, own)
		if err != nil {
			return err
		}
		dst, err := s.rec.load(ctx, tx, loose)
		if err != nil {
			return err
		}
		next := append([]uint(nil), dst.seq...)
		for _, cardID := range src.seq {
			if err := tx.Cards.Place(ctx, cardID, loose, 0); err != nil {
				return err
			}
			dst.current[cardID] = 0
			next = append(next, cardID)
		}
		res.DetachedCards = len(src.seq)
		if _, err := s.rec.commit(ctx, tx, dst, next); err != nil {
			return err
		}

		_, err = tx.Categories.Delete(ctx, id)
		return err
	})
	if err != nil {
		return DeleteCategoryResult{}, persistenceError("delete category", err)
	}
	return res, nil
}

// checkPromotedNames fails when a child of id is named like a top-level
// category other than id itself.
func checkPromotedNames(ctx context.Context, tx *repository.Store, scope model.Scope, id uint) error {
	all, err := tx.Categories.ListByScope(ctx, scope)
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.ParentID == nil || *c.ParentID != id {
			continue
		}
		taken, err := tx.Categories.NameTaken(ctx, scope, nil, c.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return newError(ErrDuplicateName, "sub-category %q would clash with a top-level category of the same name; rename it first", c.Name)
		}
	}
	return nil
}

func (s *CategoryService) ListCategories(ctx context.Context, scope model.Scope) ([]model.Category, error) {
	categories, err := s.store.Categories.ListByScope(ctx, scope)
	if err != nil {
		return nil, persistenceError("list categories", err)
	}
	return categories, nil
}
