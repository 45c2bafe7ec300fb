package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"flashcards/internal/lock"
	"flashcards/internal/model"
	"flashcards/internal/ordering"
	"flashcards/internal/repository"
)

type testEnv struct {
	store      *repository.Store
	rec        *Reconciler
	classes    *ClassService
	categories *CategoryService
	cards      *CardService
	views      *ViewService
	settings   *SettingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := repository.NewStore(db)
	locker := lock.NewLocal()
	rec := NewReconciler(store, locker, zerolog.Nop())
	return &testEnv{
		store:      store,
		rec:        rec,
		classes:    NewClassService(store),
		categories: NewCategoryService(store, locker, rec),
		cards:      NewCardService(store, locker, rec),
		views:      NewViewService(store),
		settings:   NewSettingsService(store),
	}
}

func (e *testEnv) category(t *testing.T, scope model.Scope, name string, parent *uint) *model.Category {
	t.Helper()
	c, err := e.categories.CreateCategory(context.Background(), scope, CategoryInput{Name: name, ParentID: parent})
	require.NoError(t, err)
	return c
}

func (e *testEnv) card(t *testing.T, scope model.Scope, word string, category *uint) *model.Card {
	t.Helper()
	c, err := e.cards.CreateCard(context.Background(), scope, CardInput{Word: word, CategoryID: category})
	require.NoError(t, err)
	return c
}

// partition returns the ids of a partition in position order and fails the
// test unless the positions are exactly 1..N.
func (e *testEnv) partition(t *testing.T, scope model.Scope, category *uint) []uint {
	t.Helper()
	cards, err := e.store.Cards.ListPartition(context.Background(), model.Partition{Scope: scope, CategoryID: category})
	require.NoError(t, err)
	entries := make([]ordering.Entry, len(cards))
	for i, c := range cards {
		entries[i] = ordering.Entry{ID: c.ID, SortOrder: c.SortOrder}
		require.Equal(t, i+1, c.SortOrder, "card %d in %v", c.ID, entries)
	}
	require.True(t, ordering.IsDense(entries))
	return ordering.IDs(entries)
}

func uintPtr(v uint) *uint { return &v }

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }
