package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/postledger/postledger/internal/api/respond"
	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/services"
)

// Snapshots are whole-ledger documents; cap uploads well above any realistic
// chat history.
const maxSnapshotBytes = 32 << 20

// BackupHandler drives snapshot export and the confirmed restore flow.
type BackupHandler struct {
	backup *services.BackupService
}

func NewBackupHandler(backup *services.BackupService) *BackupHandler {
	return &BackupHandler{backup: backup}
}

// ExportSnapshot handles GET /api/chats/{chatScope}/backup
func (h *BackupHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	chatScope := mux.Vars(r)["chatScope"]

	snap, err := h.backup.Export(r.Context(), chatScope)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, snap)
}

// BeginRestore handles POST /api/chats/{chatScope}/restore; the body is a
// snapshot document. Nothing is written until the summary's token is
// confirmed.
func (h *BackupHandler) BeginRestore(w http.ResponseWriter, r *http.Request) {
	chatScope := mux.Vars(r)["chatScope"]

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		respond.WriteBadRequest(w, "could not read snapshot body")
		return
	}

	summary, err := h.backup.BeginRestore(r.Context(), chatScope, raw)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, summary)
}

// ConfirmRestore handles POST /api/chats/{chatScope}/restore/confirm
func (h *BackupHandler) ConfirmRestore(w http.ResponseWriter, r *http.Request) {
	chatScope := mux.Vars(r)["chatScope"]

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	report, err := h.backup.ConfirmRestore(r.Context(), chatScope, req.Token)
	if err != nil {
		if errors.Is(err, model.ErrConfirmation) {
			respond.WriteConflict(w, err.Error())
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, report)
}

// DiscardRestore handles DELETE /api/chats/{chatScope}/restore
func (h *BackupHandler) DiscardRestore(w http.ResponseWriter, r *http.Request) {
	chatScope := mux.Vars(r)["chatScope"]
	discarded := h.backup.DiscardRestore(chatScope)
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"discarded": discarded})
}
