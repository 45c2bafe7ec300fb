package handler

import (
	"net/http"

	"flashcards/internal/service"
	"flashcards/internal/viewer"
)

// ViewHandler serves the read-only student views. Each request builds a
// fresh navigator, so page and pageSize come from the query.
type ViewHandler struct {
	Svc      *service.ViewService
	PageSize int
}

func (h *ViewHandler) navigate(w http.ResponseWriter, r *http.Request, move func(nav *viewer.Navigator, snap *viewer.Snapshot) error) {
	size, ok := queryInt(w, r, "pageSize", h.PageSize)
	if !ok {
		return
	}
	page, ok := queryInt(w, r, "page", 1)
	if !ok {
		return
	}

	snap, err := h.Svc.Snapshot(r.Context(), scopeOf(r))
	if err != nil {
		writeError(w, err)
		return
	}

	nav := viewer.New(size)
	if err := move(nav, snap); err != nil {
		writeError(w, err)
		return
	}
	nav.SetPage(page)
	writeJSON(w, http.StatusOK, nav.View(snap))
}

func (h *ViewHandler) Cards(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(*viewer.Navigator, *viewer.Snapshot) error { return nil })
}

func (h *ViewHandler) Folders(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(nav *viewer.Navigator, _ *viewer.Snapshot) error { return nav.ShowFolders() })
}

// Folder opens a top-level folder: its sub-category folders when it has
// any, its cards otherwise.
func (h *ViewHandler) Folder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.navigate(w, r, func(nav *viewer.Navigator, snap *viewer.Snapshot) error {
		if err := nav.ShowFolders(); err != nil {
			return err
		}
		return nav.Select(snap, viewer.FolderRef{Kind: viewer.FolderCategory, ID: id})
	})
}

func (h *ViewHandler) Category(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.navigate(w, r, func(nav *viewer.Navigator, snap *viewer.Snapshot) error { return nav.Open(snap, &id) })
}

func (h *ViewHandler) Uncategorized(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(nav *viewer.Navigator, snap *viewer.Snapshot) error { return nav.Open(snap, nil) })
}
