// Command crm-core serves the CRM core over HTTP: enterprise search,
// statistics, webhook health, session state and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/logging"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.ConfigFromSettings(settings))

	if err := run(settings, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(settings config.Settings, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", settings.ListenAddr).Msg("Starting CRM core server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
