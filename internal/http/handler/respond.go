package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"flashcards/internal/model"
	"flashcards/internal/service"
	"flashcards/internal/viewer"
)

type errorResp struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, reason string) {
	writeJSON(w, http.StatusBadRequest, errorResp{Error: "validation", Reason: reason})
}

// writeError maps a service error to its status code.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, viewer.ErrUnknownFolder):
		writeJSON(w, http.StatusNotFound, errorResp{Error: "not_found", Reason: err.Error()})
		return
	case errors.Is(err, viewer.ErrInvalidPageSize):
		writeBadRequest(w, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateName),
		errors.Is(err, service.ErrInvalidHierarchy),
		errors.Is(err, service.ErrCycle):
		status = http.StatusConflict
	case errors.Is(err, service.ErrOutOfRange):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}

	reason := service.Reason(err)
	if status == http.StatusInternalServerError {
		reason = "server error"
	}
	writeJSON(w, status, errorResp{Error: service.Kind(err), Reason: reason})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "bad json")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeBadRequest(w, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// scopeOf reads the class partition from ?class=.
func scopeOf(r *http.Request) model.Scope {
	return service.ResolveScope(r.URL.Query().Get("class"))
}

// queryInt parses an optional positive integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		writeBadRequest(w, "invalid "+key)
		return 0, false
	}
	return n, true
}
