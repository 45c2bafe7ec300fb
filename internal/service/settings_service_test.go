package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashcards/internal/model"
)

func TestWelcomeFallsBackToLegacy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	w, err := env.settings.Welcome(ctx, model.Scoped("math"))
	require.NoError(t, err)
	assert.Equal(t, Welcome{Title: defaultWelcomeTitle, Inherited: true}, w)

	_, err = env.settings.SetWelcome(ctx, model.Unscoped(), WelcomeInput{Title: "Hello", Message: "everyone"})
	require.NoError(t, err)

	w, err = env.settings.Welcome(ctx, model.Scoped("math"))
	require.NoError(t, err)
	assert.Equal(t, Welcome{Title: "Hello", Message: "everyone", Inherited: true}, w)

	_, err = env.settings.SetWelcome(ctx, model.Scoped("math"), WelcomeInput{Title: " Math ", Message: "numbers"})
	require.NoError(t, err)

	w, err = env.settings.Welcome(ctx, model.Scoped("math"))
	require.NoError(t, err)
	assert.Equal(t, Welcome{Title: "Math", Message: "numbers"}, w)

	w, err = env.settings.Welcome(ctx, model.Unscoped())
	require.NoError(t, err)
	assert.Equal(t, "everyone", w.Message)
	assert.False(t, w.Inherited)
}

func TestSetWelcomeValidates(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.settings.SetWelcome(context.Background(), model.Unscoped(), WelcomeInput{Title: strings.Repeat("t", 201)})
	assert.ErrorIs(t, err, ErrValidation)
}
