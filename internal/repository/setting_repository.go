package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"flashcards/internal/model"
)

// SettingRepository stores per-class settings records.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Find returns the setting of kind typ for scope, or nil when none exists.
func (r *SettingRepository) Find(ctx context.Context, scope model.Scope, typ string) (*model.Setting, error) {
	var setting model.Setting
	err := scope.Apply(r.db.WithContext(ctx)).Where("type = ?", typ).Order("id ASC").First(&setting).Error
	switch {
	case err == nil:
		return &setting, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find setting: %w", err)
	}
}

// Upsert creates or replaces the setting of kind typ for scope.
func (r *SettingRepository) Upsert(ctx context.Context, scope model.Scope, typ, title, message string) (*model.Setting, error) {
	existing, err := r.Find(ctx, scope, typ)
	if err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	if existing == nil {
		setting := model.Setting{Type: typ, ClassID: scope.Ref(), Title: title, Message: message}
		if err := db.Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("create setting: %w", err)
		}
		return &setting, nil
	}
	existing.Title = title
	existing.Message = message
	if err := db.Model(&model.Setting{}).Where("id = ?", existing.ID).
		Updates(map[string]any{"title": title, "message": message}).Error; err != nil {
		return nil, fmt.Errorf("update setting: %w", err)
	}
	return existing, nil
}

func (r *SettingRepository) ReassignClass(ctx context.Context, scope model.Scope, classID string) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx).Model(&model.Setting{})).Update("class_id", classID)
	if res.Error != nil {
		return 0, fmt.Errorf("reassign settings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *SettingRepository) CountByScope(ctx context.Context, scope model.Scope) (int64, error) {
	var n int64
	if err := scope.Apply(r.db.WithContext(ctx).Model(&model.Setting{})).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count settings: %w", err)
	}
	return n, nil
}

func (r *SettingRepository) DeleteByScope(ctx context.Context, scope model.Scope) (int64, error) {
	res := scope.Apply(r.db.WithContext(ctx)).Delete(&model.Setting{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete settings: %w", res.Error)
	}
	return res.RowsAffected, nil
}
