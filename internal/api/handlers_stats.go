package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/postledger/postledger/internal/api/respond"
	"github.com/postledger/postledger/internal/model"
	"github.com/postledger/postledger/internal/services"
)

const defaultTopLimit = 10

// StatsHandler serves leaderboard queries.
type StatsHandler struct {
	stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStats handles GET /api/chats/{chatScope}/stats?period=
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	chatScope := mux.Vars(r)["chatScope"]

	period, err := services.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	users, err := h.stats.Query(r.Context(), chatScope, period)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	if users == nil {
		users = []*model.AggregatedUser{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"chat_scope": chatScope,
		"period":     period,
		"users":      users,
	})
}

// GetTop handles GET /api/chats/{chatScope}/stats/top?period=&limit=
func (h *StatsHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	chatScope := mux.Vars(r)["chatScope"]

	period, err := services.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	users, err := h.stats.Query(r.Context(), chatScope, period)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"chat_scope": chatScope,
		"period":     period,
		"users":      services.TopN(users, limit),
	})
}

// GetUserStats handles GET /api/chats/{chatScope}/users/{userId}/stats
func (h *StatsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	user, err := h.stats.UserStats(r.Context(), vars["chatScope"], vars["userId"])
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			respond.WriteNotFound(w, err.Error())
		case errors.Is(err, model.ErrValidation):
			respond.WriteBadRequest(w, err.Error())
		default:
			respond.WriteInternalError(w, err.Error())
		}
		return
	}
	respond.WriteJSON(w, http.StatusOK, user)
}

// GetScopeStats handles GET /api/chats/{chatScope}/db-stats
func (h *StatsHandler) GetScopeStats(w http.ResponseWriter, r *http.Request) {
	chatScope := mux.Vars(r)["chatScope"]

	stats, err := h.stats.ScopeStats(r.Context(), chatScope)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, stats)
}
