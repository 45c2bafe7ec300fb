package handler

import (
	"net/http"

	"flashcards/internal/service"
)

type CategoryHandler struct {
	Svc *service.CategoryService
}

type categoryReq struct {
	Name     string `json:"name"`
	ParentID *uint  `json:"parentId"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Svc.ListCategories(r.Context(), scopeOf(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if !decode(w, r, &req) {
		return
	}
	category, err := h.Svc.CreateCategory(r.Context(), scopeOf(r), service.CategoryInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// Update renames and reparents. A missing or null parentId moves the
// category to the top level.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req categoryReq
	if !decode(w, r, &req) {
		return
	}
	category, err := h.Svc.RenameOrReparent(r.Context(), scopeOf(r), id, service.CategoryInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.DeleteCategory(r.Context(), scopeOf(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
