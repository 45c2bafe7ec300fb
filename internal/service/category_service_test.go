package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashcards/internal/model"
)

func TestCreateCategoryDuplicateName(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scope := model.Scoped("math")

	unit := env.category(t, scope, "Unit 1", nil)

	_, err := env.categories.CreateCategory(ctx, scope, CategoryInput{Name: "Unit 1"})
	assert.ErrorIs(t, err, ErrDuplicateName)
	_, err = env.categories.CreateCategory(ctx, scope, CategoryInput{Name: " unit 1"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	other := env.category(t, scope, "Unit 2", nil)
	_, err = env.categories.CreateCategory(ctx, scope, CategoryInput{Name: "Unit 1", ParentID: &other.ID})
	assert.NoError(t, err)

	// same name in another class or in the legacy partition is fine
	env.category(t, model.Scoped("art"), "Unit 1", nil)
	env.category(t, model.Unscoped(), "Unit 1", nil)

	cats, err := env.categories.ListCategories(ctx, scope)
	require.NoError(t, err)
	assert.Len(t, cats, 3)
	assert.Equal(t, unit.ID, cats[0].ID)
}

func TestCreateCategoryValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.categories.CreateCategory(ctx, model.Unscoped(), CategoryInput{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.categories.CreateCategory(ctx, model.Unscoped(), CategoryInput{Name: "A", ParentID: uintPtr(42)})
	assert.ErrorIs(t, err, ErrNotFound)

	// parents from another class are not visible
	foreign := env.category(t, model.Scoped("art"), "Foreign", nil)
	_, err = env.categories.CreateCategory(ctx, model.Unscoped(), CategoryInput{Name: "A", ParentID: &foreign.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHierarchyDepthIsTwo(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scope := model.Unscoped()

	top := env.category(t, scope, "Animals", nil)
	sub := env.category(t, scope, "Birds", &top.ID)
	assert.Equal(t, model.SubCategory, sub.Level())

	_, err := env.categories.CreateCategory(ctx, scope, CategoryInput{Name: "Parrots", ParentID: &sub.ID})
	assert.ErrorIs(t, err, ErrInvalidHierarchy)

	leaf := env.category(t, scope, "Colors", nil)
	_, err = env.categories.RenameOrReparent(ctx, scope, leaf.ID, CategoryInput{Name: "Colors", ParentID: &sub.ID})
	assert.ErrorIs(t, err, ErrInvalidHierarchy)

	// a category with children cannot be nested
	_, err = env.categories.RenameOrReparent(ctx, scope, top.ID, CategoryInput{Name: "Animals", ParentID: &leaf.ID})
	assert.ErrorIs(t, err, ErrInvalidHierarchy)

	cats, err := env.categories.ListCategories(ctx, scope)
	require.NoError(t, err)
	byID := map[uint]model.Category{}
	for _, c := range cats {
		byID[c.ID] = c
	}
	for _, c := range cats {
		if c.ParentID != nil {
			assert.Nil(t, byID[*c.ParentID].ParentID, "category %q nested too deep", c.Name)
		}
	}
}

func TestRenameOrReparentCycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scope := model.Unscoped()

	top := env.category(t, scope, "Animals", nil)
	sub := env.category(t, scope, "Birds", &top.ID)

	_, err := env.categories.RenameOrReparent(ctx, scope, top.ID, CategoryInput{Name: "Animals", ParentID: &top.ID})
	assert.ErrorIs(t, err, ErrCycle)

	_, err = env.categories.RenameOrReparent(ctx, scope, top.ID, CategoryInput{Name: "Animals", ParentID: &sub.ID})
	assert.ErrorIs(t, err, ErrCycle)
}

func TestRenameOrReparent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scope := model.Scoped("math")

	a := env.category(t, scope, "A", nil)
	b := env.category(t, scope, "B", nil)
	c := env.category(t, scope, "C", &a.ID)

	got, err := env.categories.RenameOrReparent(ctx, scope, b.ID, CategoryInput{Name: "B", ParentID: &b.ID})
	assert.ErrorIs(t, err, ErrCycle)
	assert.Nil(t, got)

	// renaming onto its own name is not a duplicate
	got, err = env.categories.RenameOrReparent(ctx, scope, b.ID, CategoryInput{Name: "B2"})
	require.NoError(t, err)
	assert.Equal(t, "B2", got.Name)

	_, err = env.categories.RenameOrReparent(ctx, scope, b.ID, CategoryInput{Name: "A"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = env.categories.RenameOrReparent(ctx, scope, b.ID, CategoryInput{Name: "c", ParentID: &a.ID})
	assert.ErrorIs(t, err, ErrDuplicateName)

	got, err = env.categories.RenameOrReparent(ctx, scope, b.ID, CategoryInput{Name: "B2", ParentID: &a.ID})
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, a.ID, *got.ParentID)

	got, err = env.categories.RenameOrReparent(ctx, scope, c.ID, CategoryInput{Name: "C"})
	require.NoError(t, err)
	assert.True(t, got.IsTop())

	_, err = env.categories.RenameOrReparent(ctx, scope, 999, CategoryInput{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCategoryCascade(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scope := model.Scoped("math")

	parent := env.category(t, scope, "C", nil)
	c1 := env.category(t, scope, "c1", &parent.ID)
	c2 := env.category(t, scope, "c2", &parent.ID)

	loose := env.card(t, scope, "loose", nil)
	var direct []uint
	for _, w := range []string{"one", "two", "three"} {
		direct = append(direct, env.card(t, scope, w, &parent.ID).ID)
	}
	child := env.card(t, scope, "child", &c1.ID)

	res, err := env.categories.DeleteCategory(ctx, scope, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteCategoryResult{Found: true, PromotedChildren: 2, DetachedCards: 3}, res)

	cats, err := env.categories.ListCategories(ctx, scope)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	for _, c := range cats {
		assert.Nil(t, c.ParentID, c.Name)
		assert.Contains(t, []uint{c1.ID, c2.ID}, c.ID)
	}

	for _, id := range direct {
		card, err := env.cards.GetCard(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, card.CategoryID)
	}
	assert.Equal(t, append([]uint{loose.ID}, direct...), env.partition(t, scope, nil))
	assert.Equal(t, []uint{child.ID}, env.partition(t, scope, &c1.ID))

	again, err := env.categories.DeleteCategory(ctx, scope, parent.ID)
	require.NoError(t, err)
	assert.False(t, again.Found)
}

func TestDeleteCategoryRejectsPromotedNameClash(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scope := model.Scoped("lang")

	env.category(t, scope, "Verbs", nil)
	unit := env.category(t, scope, "Unit 1", nil)
	child := env.category(t, scope, "verbs ", &unit.ID)
	card := env.card(t, scope, "run", &unit.ID)

	_, err := env.categories.DeleteCategory(ctx, scope, unit.ID)
	require.ErrorIs(t, err, ErrDuplicateName)

	cats, err := env.categories.ListCategories(ctx, scope)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	for _, c := range cats {
		if c.ID == child.ID {
			require.NotNil(t, c.ParentID)
			assert.Equal(t, unit.ID, *c.ParentID)
		}
	}
	assert.Equal(t, []uint{card.ID}, env.partition(t, scope, &unit.ID))

	_, err = env.categories.RenameOrReparent(ctx, scope, child.ID, CategoryInput{Name: "Irregular verbs", ParentID: &unit.ID})
	require.NoError(t, err)
	res, err := env.categories.DeleteCategory(ctx, scope, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteCategoryResult{Found: true, PromotedChildren: 1, DetachedCards: 1}, res)
}
