package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/postledger/postledger/internal/api"
	"github.com/postledger/postledger/internal/config"
	"github.com/postledger/postledger/internal/health"
	"github.com/postledger/postledger/internal/logger"
	"github.com/postledger/postledger/internal/store"
	"github.com/postledger/postledger/internal/store/postgres"
	"github.com/postledger/postledger/internal/store/sqlite"
)

func main() {
	// Optional driver flag override (sqlite | postgres)
	dbDriver := flag.String("db-driver", "", "Override POST_LEDGER_DB_DRIVER (sqlite, postgres)")
	flag.Parse()

	log := logger.New("post-ledger")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbDriver != "" {
		cfg.DBDriver = *dbDriver
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid db-driver override")
		}
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Post ledger service starting…")

	// -------- Storage layer -----------------
	ctx := context.Background()
	var st store.Store
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Postgres unavailable")
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure postgres schema")
		}
		st = postgres.NewWithDB(db)
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("SQLite unavailable")
		}
		if err := sqlite.EnsureSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure sqlite schema")
		}
		st = sqlite.NewWithDB(db)
	default:
		log.Fatal().Str("db_driver", cfg.DBDriver).Msg("Unsupported DB driver")
	}

	// -------- Health monitor ---------------
	checker := health.NewChecker(cfg.DBDriver, st.(health.Pinger), log, 2*time.Second)
	go checker.Start(ctx, cfg.HealthInterval)

	// -------- Router & Server --------------
	router := api.NewRouter(st, checker, cfg)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
