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

	"chessroom/internal/config"
	"chessroom/internal/game"
	"chessroom/internal/handlers"
	"chessroom/internal/logging"
	"chessroom/internal/storage"
	"chessroom/internal/templates"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Debug = cfg.Debug

	templates.SetCommit(commit)

	// Open the match archive when a database is configured
	var store *storage.Store
	opts := []game.Option{game.WithHistoryLimit(cfg.HistoryLimit)}
	var archiver *storage.Archiver
	if cfg.DatabaseDSN != "" {
		db, err := storage.New(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		store = storage.NewStore(db)
		if n, err := store.AbandonActive(context.Background(), time.Now()); err != nil {
			log.Printf("abandon stale matches: %v", err)
		} else if n > 0 {
			log.Printf("closed %d matches left open by a previous run", n)
		}
		archiver = storage.NewArchiver(store, 0)
		opts = append(opts, game.WithArchive(archiver))
	}

	// Initialize game hub
	hub := game.NewHub(opts...)

	// Initialize HTTP handlers
	h := handlers.NewHandler(hub, store, cfg)
	mux := http.NewServeMux()
	h.Routes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.LogRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Chess Room %s (%s) listening on %s …", commit, buildDate, cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := h.CloseSockets(shutdownCtx); err != nil {
		log.Printf("close sockets: %v", err)
	}
	if archiver != nil {
		if err := archiver.Close(shutdownCtx); err != nil {
			log.Printf("archive flush: %v", err)
		}
	}
}
