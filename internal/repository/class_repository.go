package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"flashcards/internal/model"
)

// ClassRepository manages class partitions.
type ClassRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) Create(ctx context.Context, class *model.ClassPartition) error {
	if err := r.db.WithContext(ctx).Create(class).Error; err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// GetByID matches the id case-insensitively. A missing class yields
// gorm.ErrRecordNotFound.
func (r *ClassRepository) GetByID(ctx context.Context, id string) (*model.ClassPartition, error) {
	var class model.ClassPartition
	err := r.db.WithContext(ctx).Where("LOWER(id) = ?", strings.ToLower(id)).First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// NameTaken reports whether another class already uses name, ignoring case.
// excludeID is skipped so a class can be renamed onto its own name.
func (r *ClassRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.ClassPartition{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != "" {
		q = q.Where("LOWER(id) <> ?", strings.ToLower(excludeID))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check class name: %w", err)
	}
	return n > 0, nil
}

// IDTaken reports whether id is in use by a class other than excludeID.
func (r *ClassRepository) IDTaken(ctx context.Context, id, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.ClassPartition{}).Where("LOWER(id) = ?", strings.ToLower(id))
	if excludeID != "" {
		q = q.Where("LOWER(id) <> ?", strings.ToLower(excludeID))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check class id: %w", err)
	}
	return n > 0, nil
}

// List returns classes newest first.
func (r *ClassRepository) List(ctx context.Context) ([]model.ClassPartition, error) {
	var classes []model.ClassPartition
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id ASC").Find(&classes).Error; err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// Rename moves the class record to newID and sets its name.
func (r *ClassRepository) Rename(ctx context.Context, oldID, newID, name string) error {
	res := r.db.WithContext(ctx).Model(&model.ClassPartition{}).
		Where("id = ?", oldID).
		Updates(map[string]any{"id": newID, "name": name})
	if res.Error != nil {
		return fmt.Errorf("rename class: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ClassRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ClassPartition{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete class: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
