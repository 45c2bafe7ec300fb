package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashcards/internal/model"
)

// seedRaw writes cards directly, bypassing the services, the way rows
// written before positions existed look.
func seedRaw(t *testing.T, env *testEnv, cards ...model.Card) []uint {
	t.Helper()
	base := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)
	ids := make([]uint, len(cards))
	for i := range cards {
		cards[i].CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, env.store.Cards.Create(context.Background(), &cards[i]))
		ids[i] = cards[i].ID
	}
	return ids
}

func TestNormalizeAllAssignsLegacyPositionsInReadOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	cat := env.category(t, model.Scoped("math"), "A", nil)

	ids := seedRaw(t, env,
		model.Card{Word: "l1"},
		model.Card{Word: "m1", ClassID: strPtr("math"), CategoryID: &cat.ID},
		model.Card{Word: "l2"},
		model.Card{Word: "m2", ClassID: strPtr("MATH"), CategoryID: &cat.ID},
		model.Card{Word: "l3", ClassID: strPtr("")},
	)

	report, err := env.rec.NormalizeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, NormalizeReport{Partitions: 2, Repaired: 2, Cards: 5}, report)

	assert.Equal(t, []uint{ids[0], ids[2], ids[4]}, env.partition(t, model.Unscoped(), nil))
	assert.Equal(t, []uint{ids[1], ids[3]}, env.partition(t, model.Scoped("math"), &cat.ID))

	again, err := env.rec.NormalizeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, NormalizeReport{Partitions: 2}, again)
}

func TestNormalizeAllRepairsGapsAndDuplicates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ids := seedRaw(t, env,
		model.Card{Word: "a", SortOrder: 5},
		model.Card{Word: "b", SortOrder: 2},
		model.Card{Word: "c", SortOrder: 2},
		model.Card{Word: "d"},
	)

	report, err := env.rec.NormalizeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, []uint{ids[1], ids[2], ids[0], ids[3]}, env.partition(t, model.Unscoped(), nil))
}

func TestMutationsRepairLegacyPartitions(t *testing.T) {
	env := newTestEnv(t)

	ids := seedRaw(t, env, model.Card{Word: "a"}, model.Card{Word: "b"})
	c := env.card(t, model.Unscoped(), "c", nil)
	assert.Equal(t, 3, c.SortOrder)
	assert.Equal(t, []uint{ids[0], ids[1], c.ID}, env.partition(t, model.Unscoped(), nil))
}

func TestReconcileSinglePartition(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedRaw(t, env, model.Card{Word: "a", SortOrder: 3}, model.Card{Word: "b", SortOrder: 7})

	changed, err := env.rec.Reconcile(ctx, model.Partition{Scope: model.Unscoped()})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	changed, err = env.rec.Reconcile(ctx, model.Partition{Scope: model.Unscoped()})
	require.NoError(t, err)
	assert.Zero(t, changed)
}
