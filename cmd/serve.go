package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/libris/internal/config"
	"github.com/lepinkainen/libris/internal/server"
)

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	Addr    string `help:"Listen address (overrides server.addr)"`
	Release bool   `help:"Run gin in release mode" default:"true" negatable:""`
}

func (s *ServeCmd) Run(cfg config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if s.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.New(server.Options{
		Importer: a.importer,
		Catalog:  a.store,
		Authors:  a.authors,
		MediaDir: cfg.MediaDir,
		Version:  Version,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
