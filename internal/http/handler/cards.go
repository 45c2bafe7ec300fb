package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"flashcards/internal/service"
)

type CardHandler struct {
	Svc *service.CardService
}

type createCardReq struct {
	Word       string `json:"word"`
	Image      string `json:"image"`
	AudioURL   string `json:"audioUrl"`
	CategoryID *uint  `json:"categoryId"`
}

// updateCardReq keeps categoryId raw so an explicit null (move to
// uncategorized) differs from an absent field.
type updateCardReq struct {
	Word       *string         `json:"word"`
	Image      *string         `json:"image"`
	AudioURL   *string         `json:"audioUrl"`
	CategoryID json.RawMessage `json:"categoryId"`
	Position   *int            `json:"position"`
}

type moveCardReq struct {
	Position int `json:"position"`
}

type deleteCardsReq struct {
	IDs []uint `json:"ids"`
}

func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Svc.ListCards(r.Context(), scopeOf(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	card, err := h.Svc.GetCard(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCardReq
	if !decode(w, r, &req) {
		return
	}
	card, err := h.Svc.CreateCard(r.Context(), scopeOf(r), service.CardInput{
		Word:       req.Word,
		Image:      req.Image,
		AudioURL:   req.AudioURL,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateCardReq
	if !decode(w, r, &req) {
		return
	}

	patch := service.CardPatch{Word: req.Word, Image: req.Image, AudioURL: req.AudioURL, Position: req.Position}
	if len(req.CategoryID) > 0 {
		patch.SetCategory = true
		if !bytes.Equal(req.CategoryID, []byte("null")) {
			var catID uint
			if err := json.Unmarshal(req.CategoryID, &catID); err != nil {
				writeBadRequest(w, "invalid categoryId")
				return
			}
			patch.CategoryID = &catID
		}
	}

	card, err := h.Svc.UpdateCard(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *CardHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req moveCardReq
	if !decode(w, r, &req) {
		return
	}
	card, err := h.Svc.MoveCard(r.Context(), id, req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.Svc.DeleteCard(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CardHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req deleteCardsReq
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Svc.DeleteCards(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
