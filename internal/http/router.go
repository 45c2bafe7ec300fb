package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"flashcards/internal/config"
	"flashcards/internal/http/handler"
	mw "flashcards/internal/http/middleware"
	"flashcards/internal/service"
)

// Services is everything the API serves.
type Services struct {
	Classes    *service.ClassService
	Categories *service.CategoryService
	Cards      *service.CardService
	Views      *service.ViewService
	Settings   *service.SettingsService
	Reconciler *service.Reconciler
}

func NewRouter(cfg config.Config, svc Services, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger(log))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	classH := &handler.ClassHandler{Svc: svc.Classes}
	r.Route("/classes", func(r chi.Router) {
		r.Get("/", classH.List)
		r.Post("/", classH.Create)
		r.Put("/{id}", classH.Rename)
		r.Delete("/{id}", classH.Delete)
	})

	catH := &handler.CategoryHandler{Svc: svc.Categories}
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", catH.List)
		r.Post("/", catH.Create)
		r.Put("/{id}", catH.Update)
		r.Delete("/{id}", catH.Delete)
	})

	cardH := &handler.CardHandler{Svc: svc.Cards}
	r.Route("/cards", func(r chi.Router) {
		r.Get("/", cardH.List)
		r.Post("/", cardH.Create)
		r.Post("/delete", cardH.DeleteMany)
		r.Get("/{id}", cardH.Get)
		r.Put("/{id}", cardH.Update)
		r.Delete("/{id}", cardH.Delete)
		r.Post("/{id}/move", cardH.Move)
	})

	viewH := &handler.ViewHandler{Svc: svc.Views, PageSize: cfg.PageSize}
	r.Route("/views", func(r chi.Router) {
		r.Get("/cards", viewH.Cards)
		r.Get("/folders", viewH.Folders)
		r.Get("/folders/{id}", viewH.Folder)
		r.Get("/categories/none", viewH.Uncategorized)
		r.Get("/categories/{id}", viewH.Category)
	})

	setH := &handler.SettingsHandler{Svc: svc.Settings}
	r.Get("/settings/welcome", setH.GetWelcome)
	r.Put("/settings/welcome", setH.PutWelcome)

	maintH := &handler.MaintenanceHandler{Rec: svc.Reconciler}
	r.Post("/maintenance/normalize", maintH.Normalize)

	return r
}
