package service

import (
	"context"
	"strings"

	"flashcards/internal/model"
	"flashcards/internal/repository"
)

const defaultWelcomeTitle = "Welcome!"

// WelcomeInput is the welcome message shown to students of a class.
type WelcomeInput struct {
	Title   string `validate:"max=200" label:"title"`
	Message string `validate:"max=4000" label:"message"`
}

// Welcome is the resolved welcome message. Inherited is set when the class
// has none of its own and the legacy record is shown instead.
type Welcome struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Inherited bool   `json:"inherited"`
}

// SettingsService manages per-class settings.
type SettingsService struct {
	store *repository.Store
}

func NewSettingsService(store *repository.Store) *SettingsService {
	return &SettingsService{store: store}
}

// Welcome returns the welcome message of scope, falling back to the legacy
// record and then to a default title.
func (s *SettingsService) Welcome(ctx context.Context, scope model.Scope) (Welcome, error) {
	setting, err := s.store.Settings.Find(ctx, scope, model.SettingWelcome)
	if err != nil {
		return Welcome{}, persistenceError("load welcome", err)
	}
	if setting != nil {
		return Welcome{Title: setting.Title, Message: setting.Message}, nil
	}

	if scope.IsScoped() {
		legacy, err := s.store.Settings.Find(ctx, model.Unscoped(), model.SettingWelcome)
		if err != nil {
			return Welcome{}, persistenceError("load welcome", err)
		}
		if legacy != nil {
			return Welcome{Title: legacy.Title, Message: legacy.Message, Inherited: true}, nil
		}
	}
	return Welcome{Title: defaultWelcomeTitle, Inherited: scope.IsScoped()}, nil
}

func (s *SettingsService) SetWelcome(ctx context.Context, scope model.Scope, in WelcomeInput) (Welcome, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateInput(in); err != nil {
		return Welcome{}, err
	}
	setting, err := s.store.Settings.Upsert(ctx, scope, model.SettingWelcome, in.Title, in.Message)
	if err != nil {
		return Welcome{}, persistenceError("save welcome", err)
	}
	return Welcome{Title: setting.Title, Message: setting.Message}, nil
}
