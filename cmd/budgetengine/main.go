// Command budgetengine runs the budget engine's demonstration HTTP facade.
// It wires configuration, logging, persistence, and the orchestrator the
// way the teacher's root main.go wires models.Connect + router.Router.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/budgetengine/core/internal/api"
	"github.com/budgetengine/core/internal/applog"
	"github.com/budgetengine/core/internal/config"
	"github.com/budgetengine/core/internal/engine"
	gormstore "github.com/budgetengine/core/internal/store/gorm"
)

func main() {
	cfg := config.Load()
	applog.Configure(cfg.LogFormat, cfg.Debug)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode("release")
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			log.Fatal().Err(err).Msg("failed to create database directory")
		}
	}

	gormLogger := applog.NewGormLogger(log.Logger)
	gormConfig := &gorm.Config{Logger: gormLogger.LogMode(gormlogger.Info)}

	s, err := gormstore.Open(cfg.DatabasePath, cfg.Currency, gormConfig, sqlite.Open)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	orchestrator := engine.NewOrchestrator(s, cfg.Currency)
	router := api.Router(orchestrator, s, cfg.Currency)

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("backend startup failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("backend startup complete")

	<-quit
	log.Info().Msg("received shutdown signal, stopping gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("backend stopped")
}
