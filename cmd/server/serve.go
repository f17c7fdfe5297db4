package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpattn/driverlog/internal/ingestion"
	"github.com/rpattn/driverlog/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = settings.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, settings)
	if err != nil {
		return err
	}
	defer a.Close()

	mode, err := ingestion.ParseMode(a.cfg.Ingestion.Mode)
	if err != nil {
		return err
	}

	if a.cfg.Admin.Key == "" {
		log.Println("[server] admin.key is empty, admin routes are unprotected")
	}

	router := server.NewRouter(
		ingestion.NewService(a.repo, ingestion.WithMode(mode)),
		a.queries,
		a.exports,
		server.Options{AdminKey: a.cfg.Admin.Key, AllowedOrigins: a.cfg.Server.AllowedOrigins},
	)

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s (storage=%s ingestion=%s)", srv.Addr, a.cfg.Storage.Driver, mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("[server] shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("[server] exited")
	return nil
}
