package api

import (
	"encoding/json"
	"net/http"

	"geotale/pkg/model"
	"geotale/pkg/taste"
)

// TasteHandler serves the taste profile endpoints.
type TasteHandler struct {
	taste *taste.Service
}

// NewTasteHandler creates the handler.
func NewTasteHandler(ts *taste.Service) *TasteHandler {
	return &TasteHandler{taste: ts}
}

type tasteRequest struct {
	UserID         string              `json:"userId"`
	TasteProfileID string              `json:"tasteProfileId"`
	Taste          *model.TasteProfile `json:"taste"`

	taste.Feedback
}

type tasteResponse struct {
	TasteProfileID string             `json:"tasteProfileId"`
	Taste          model.TasteProfile `json:"taste"`
}

func (h *TasteHandler) profileID(req *tasteRequest) string {
	if req.TasteProfileID != "" {
		return req.TasteProfileID
	}
	return req.UserID
}

// HandleSet replaces a profile wholesale.
func (h *TasteHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req tasteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Taste == nil {
		writeError(w, http.StatusBadRequest, "taste_missing", "a taste object is required")
		return
	}

	id, p := h.taste.Set(r.Context(), h.profileID(&req), *req.Taste)
	writeJSON(w, http.StatusOK, tasteResponse{TasteProfileID: id, Taste: p})
}

// HandleFeedback nudges a profile by listener reactions.
func (h *TasteHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var req tasteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	id, p := h.taste.Apply(r.Context(), h.profileID(&req), req.Feedback)
	writeJSON(w, http.StatusOK, tasteResponse{TasteProfileID: id, Taste: p})
}
