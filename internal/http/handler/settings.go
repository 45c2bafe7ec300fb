package handler

import (
	"net/http"

	"flashcards/internal/service"
)

type SettingsHandler struct {
	Svc *service.SettingsService
}

type welcomeReq struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (h *SettingsHandler) GetWelcome(w http.ResponseWriter, r *http.Request) {
	welcome, err := h.Svc.Welcome(r.Context(), scopeOf(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, welcome)
}

func (h *SettingsHandler) PutWelcome(w http.ResponseWriter, r *http.Request) {
	var req welcomeReq
	if !decode(w, r, &req) {
		return
	}
	welcome, err := h.Svc.SetWelcome(r.Context(), scopeOf(r), service.WelcomeInput{Title: req.Title, Message: req.Message})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, welcome)
}
