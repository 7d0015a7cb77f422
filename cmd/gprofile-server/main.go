package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/planbiir/gprofile/internal/config"
	"github.com/planbiir/gprofile/internal/logging"
	"github.com/planbiir/gprofile/internal/places"
	"github.com/planbiir/gprofile/internal/server"
)

func main() {
	configFile := flag.String("config", "", "Config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	annotator, store, err := cfg.Places.NewAnnotator(context.Background(), logger)
	if err != nil {
		logger.Error("places setup failed", "error", err)
		os.Exit(1)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := Run(context.Background(), cfg, annotator, store, logger, signals, nil); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

// Run starts the HTTP server and waits for termination signals. The place
// cache is flushed and closed on the way out.
func Run(ctx context.Context, cfg config.Config, annotator *places.Annotator, store places.Store, logger *slog.Logger, signals <-chan os.Signal, listen ListenFunc) error {
	srv := server.NewServer(cfg, annotator, logger)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.Server.Addr)
	}()
	logger.Info("listening", "component", "server", "addr", cfg.Server.Addr, "places", annotator != nil)

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.App.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	if store != nil {
		if err := store.Flush(shutdownCtx); err != nil {
			logger.Warn("place cache flush failed", "error", err)
		}
		_ = store.Close()
	}
	return nil
}
