package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/postledger/postledger/internal/api/respond"
	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/services"
)

// PostHandler handles post submissions (thin transport layer).
type PostHandler struct {
	ledger *services.LedgerService
}

func NewPostHandler(ledger *services.LedgerService) *PostHandler {
	return &PostHandler{ledger: ledger}
}

// submitResponse is the terminal answer to every submission: either the
// stored post or the rejection reason, never silence.
type submitResponse struct {
	Accepted bool        `json:"accepted"`
	Reason   string      `json:"reason,omitempty"`
	Post     *model.Post `json:"post,omitempty"`
}

// SubmitPost handles POST /api/chats/{chatScope}/posts
func (h *PostHandler) SubmitPost(w http.ResponseWriter, r *http.Request) {
	chatScope := mux.Vars(r)["chatScope"]

	var req struct {
		UserID      string    `json:"user_id"`
		DisplayName string    `json:"display_name"`
		Text        string    `json:"text"`
		SubmittedAt time.Time `json:"submitted_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	post, err := h.ledger.Submit(r.Context(), services.SubmitRequest{
		ChatScope:   chatScope,
		Author:      model.Author{UserID: req.UserID, DisplayName: req.DisplayName},
		Text:        req.Text,
		SubmittedAt: req.SubmittedAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRejected):
			// A rejection is a no-op, not an error: report the reason.
			respond.WriteJSON(w, http.StatusOK, submitResponse{Accepted: false, Reason: err.Error()})
		case errors.Is(err, model.ErrValidation):
			respond.WriteBadRequest(w, err.Error())
		default:
			respond.WriteInternalError(w, err.Error())
		}
		return
	}

	respond.WriteJSON(w, http.StatusCreated, submitResponse{Accepted: true, Post: post})
}
