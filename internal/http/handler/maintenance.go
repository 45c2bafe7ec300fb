package handler

import (
	"net/http"

	"flashcards/internal/service"
)

type MaintenanceHandler struct {
	Rec *service.Reconciler
}

// Normalize runs the card position sweep synchronously and returns its report.
func (h *MaintenanceHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	report, err := h.Rec.NormalizeAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
