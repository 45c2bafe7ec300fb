package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store owns every repository over one connection or one transaction.
type Store struct {
	db         *gorm.DB
	Classes    *ClassRepository
	Categories *CategoryRepository
	Cards      *CardRepository
	Settings   *SettingRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Classes:    NewClassRepository(db),
		Categories: NewCategoryRepository(db),
		Cards:      NewCardRepository(db),
		Settings:   NewSettingRepository(db),
	}
}

// Atomic runs fn inside a transaction. Every repository reached through the
// Store handed to fn writes to that transaction; any error rolls it back.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
