package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"flashcards/internal/service"
)

type ClassHandler struct {
	Svc *service.ClassService
}

type classReq struct {
	Name string `json:"name"`
}

func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.Svc.ListClasses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req classReq
	if !decode(w, r, &req) {
		return
	}
	class, err := h.Svc.CreateClass(r.Context(), service.ClassInput{Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (h *ClassHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req classReq
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Svc.RenameClass(r.Context(), chi.URLParam(r, "id"), service.ClassInput{Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Svc.DeleteClass(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
