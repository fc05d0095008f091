package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/postledger/postledger/internal/api/recovery"
	"github.com/postledger/postledger/internal/config"
	"github.com/postledger/postledger/internal/health"
	"github.com/postledger/postledger/internal/services"
	"github.com/postledger/postledger/internal/store"
)

// NewRouter wires services and handlers onto an HTTP router. The ledger and
// backup services share one scope-lock registry so a restore serializes
// against concurrent submits for the same chat.
func NewRouter(st store.Store, checker *health.Checker, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	locks := services.NewScopeLocks()
	ledger := services.NewLedgerService(st, locks, cfg.StoreTimeout)
	stats := services.NewStatsService(st, cfg.StoreTimeout)
	backup := services.NewBackupService(st, locks, cfg.StoreTimeout, cfg.ConfirmTTL)

	pinger, _ := st.(health.Pinger)
	healthHandler := NewHealthHandler(checker, pinger)
	postHandler := NewPostHandler(ledger)
	statsHandler := NewStatsHandler(stats)
	backupHandler := NewBackupHandler(backup)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStoreHealth).Methods("GET")

	// Ledger endpoints
	router.HandleFunc("/api/chats/{chatScope}/posts", postHandler.SubmitPost).Methods("POST")

	// Leaderboard endpoints
	router.HandleFunc("/api/chats/{chatScope}/stats", statsHandler.GetStats).Methods("GET")
	router.HandleFunc("/api/chats/{chatScope}/stats/top", statsHandler.GetTop).Methods("GET")
	router.HandleFunc("/api/chats/{chatScope}/users/{userId}/stats", statsHandler.GetUserStats).Methods("GET")
	router.HandleFunc("/api/chats/{chatScope}/db-stats", statsHandler.GetScopeStats).Methods("GET")

	// Backup / restore endpoints
	router.HandleFunc("/api/chats/{chatScope}/backup", backupHandler.ExportSnapshot).Methods("GET")
	router.HandleFunc("/api/chats/{chatScope}/restore", backupHandler.BeginRestore).Methods("POST")
	router.HandleFunc("/api/chats/{chatScope}/restore/confirm", backupHandler.ConfirmRestore).Methods("POST")
	router.HandleFunc("/api/chats/{chatScope}/restore", backupHandler.DiscardRestore).Methods("DELETE")

	return router
}

// contextWithProbeTimeout bounds live health probes triggered by a request.
func contextWithProbeTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 2*time.Second)
}
