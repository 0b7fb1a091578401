package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/MJE43/busfahrer-sim/internal/api"
	"github.com/MJE43/busfahrer-sim/internal/config"
	"github.com/MJE43/busfahrer-sim/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("busfahrerd stopped", "error", err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	server := api.NewServer(db, api.Options{
		Logger:       logger,
		MaxTrials:    cfg.MaxTrials,
		SweepTimeout: cfg.SweepTimeout,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "db", cfg.DBPath, "version", api.GetVersionInfo())
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	if serr := <-serveErr; !errors.Is(serr, http.ErrServerClosed) {
		err = multierr.Append(err, serr)
	}
	return err
}
