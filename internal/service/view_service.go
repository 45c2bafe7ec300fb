package service

import (
	"context"

	"flashcards/internal/model"
	"flashcards/internal/repository"
	"flashcards/internal/viewer"
)

// ViewService loads the data the read-only views are projected from.
type ViewService struct {
	store *repository.Store
}

func NewViewService(store *repository.Store) *ViewService {
	return &ViewService{store: store}
}

// Snapshot reads the categories and cards of scope in one transaction so a
// projection never mixes two states of the data.
func (s *ViewService) Snapshot(ctx context.Context, scope model.Scope) (*viewer.Snapshot, error) {
	var snap viewer.Snapshot
	err := s.store.Atomic(ctx, func(tx *repository.Store) error {
		var err error
		if snap.Categories, err = tx.Categories.ListByScope(ctx, scope); err != nil {
			return err
		}
		snap.Cards, err = tx.Cards.ListByScope(ctx, scope)
		return err
	})
	if err != nil {
		return nil, persistenceError("load view", err)
	}
	return &snap, nil
}
