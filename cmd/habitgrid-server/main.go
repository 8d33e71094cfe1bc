package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/existflow/habitgrid/internal/db"
	"github.com/existflow/habitgrid/internal/logger"
	"github.com/existflow/habitgrid/server"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logConfig := logger.DefaultConfig()
	logConfig.Level = logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	logConfig.FilePath = os.Getenv("LOG_FILE")
	logConfig.Console = true
	logConfig.Prefix = "habitgrid-server"
	if err := logger.Init(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	var store *db.DB
	var err error
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		store, err = db.Open(dbURL)
	} else {
		store, err = db.OpenDefault()
	}
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	srv := server.NewWithDB(store)
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", logger.F("error", err))
		}
	}()

	if err := srv.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", logger.F("error", err))
		os.Exit(1)
	}
}
