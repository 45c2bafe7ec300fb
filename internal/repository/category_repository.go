package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"flashcards/internal/model"
)

// CategoryRepository manages card categories inside one scope at a time.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// GetByID loads a category of the given scope. Categories of other scopes
// are reported as gorm.ErrRecordNotFound.
func (r *CategoryRepository) GetByID(ctx context.Context, scope model.Scope, id uint) (*model.Category, error) {
	var category model.Category
	if err := scope.Apply(r.db.WithContext(ctx)).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ListByScope(ctx context.Context, scope model.Scope) ([]model.Category, error) {
	var categories []model.Category
	if err := scope.Apply(r.db.WithContext(ctx)).Order("name ASC").Order("id ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// NameTaken reports whether a sibling under parentID already uses name.
// Comparison is trimmed and case-insensitive; excludeID (if non-zero) is
// ignored.
func (r *CategoryRepository) NameTaken(ctx context.Context, scope model.Scope, parentID *uint, name string, excludeID uint) (bool, error) {
	q := scope.Apply(r.db.WithContext(ctx).Model(&model.Category{})).
		Where("LOWER(TRIM(name)) = ?", strings.ToLower(strings.TrimSpace(name)))
	q = whereParent(q, parentID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return n > 0, nil
}

func (r *CategoryRepository) CountChildren(ctx context.Context, id uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count child categories: %w", err)
	}
	return n, nil
}

func (r *CategoryRepository) Update(ctx context.Context, id uint, name string, parentID *uint) error {
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "parent_id": parentID}).Error
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// PromoteChildren moves every direct child of id to the top level.
func (r *CategoryRepository) PromoteChildren(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Category{}).Where("parent_id = ?", id).Update("parent_id", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("promote child categories: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.Category{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("delete category: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ReassignClass points every category of scope at classID.
func (r *CategoryRepository) ReassignClass(ctx context.Context, scope model.Scope, classID string) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx).Model(&model.Category{})).Update("class_id", classID)
	if res.Error != nil {
		return 0, fmt.Errorf("reassign categories: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *CategoryRepository) CountByScope(ctx context.Context, scope model.Scope) (int64, error) {
	var n int64
	if err := scope.Apply(r.db.WithContext(ctx).Model(&model.Category{})).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

func (r *CategoryRepository) DeleteByScope(ctx context.Context, scope model.Scope) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx)).Delete(&model.Category{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete categories: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func whereParent(q *gorm.DB, parentID *uint) *gorm.DB {
	if parentID == nil {
		return q.Where("parent_id IS NULL")
	}
	return q.Where("parent_id = ?", *parentID)
}
