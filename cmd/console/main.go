// Package main is the entry point for the console server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/apiclient"
	"github.com/capitalize-ai/bot-console/internal/config"
	"github.com/capitalize-ai/bot-console/internal/events"
	"github.com/capitalize-ai/bot-console/internal/handler"
	"github.com/capitalize-ai/bot-console/internal/invalidation"
	natsclient "github.com/capitalize-ai/bot-console/internal/nats"
	"github.com/capitalize-ai/bot-console/internal/notify"
	"github.com/capitalize-ai/bot-console/internal/service"
	"github.com/capitalize-ai/bot-console/internal/ws"
	"github.com/capitalize-ai/bot-console/pkg/logger"
	"github.com/capitalize-ai/bot-console/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./console.yaml if present)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "bot-console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	defer log.ReplaceGlobals()()

	if err := run(cfg, log); err != nil {
		log.Error("console server failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("starting console server", zap.String("upstream", cfg.Upstream.BaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing if enabled
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(ctx, "bot-console", cfg.Tracing.Endpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	upstream, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Token:   cfg.Upstream.Token,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	registry := invalidation.NewRegistry(log)
	bus := events.NewBus(256, log)
	notices := notify.NewCenter(cfg.Console.NotificationBacklog, bus, log)
	console := service.NewConsole(upstream, cfg.Console, registry, bus, notices, log)
	defer console.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	// Connect to NATS
	var (
		natsClient *natsclient.Client
		replayer   handler.Replayer
	)
	if cfg.NATS.Enabled {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATS.URL,
			CAFile:   cfg.NATS.CAFile,
			CertFile: cfg.NATS.CertFile,
			KeyFile:  cfg.NATS.KeyFile,
			Token:    cfg.NATS.Token,
		}, log)
		if err != nil {
			return err
		}
		defer natsClient.Close()

		bridge := natsclient.NewBridge(natsClient, registry, log)
		if err := bridge.Start(); err != nil {
			return err
		}
		defer bridge.Stop()

		if cfg.NATS.Journal {
			journal := natsclient.NewJournal(natsClient, log)
			if err := journal.EnsureStream(ctx); err != nil {
				return fmt.Errorf("failed to ensure journal stream: %w", err)
			}
			journalEvents, unsubscribe := bus.Subscribe()
			defer unsubscribe()
			wg.Add(1)
			go func() {
				defer wg.Done()
				journal.Run(ctx, journalEvents)
			}()
			replayer = journal
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		console.Run(ctx)
	}()

	hub := ws.NewHub(console, log)
	hubEvents, unsubscribeHub := bus.Subscribe()
	defer unsubscribeHub()
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx, hubEvents)
	}()

	router := handler.NewRouter(handler.RouterConfig{
		Console:        console,
		Upstream:       upstream,
		NATS:           natsClient,
		Journal:        replayer,
		WebSocket:      ws.NewHandler(hub, cfg.Server.AllowedOrigins),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
		RateLimit:      cfg.RateLimit.Requests,
		RateWindow:     cfg.RateLimit.Window,
		Logger:         log,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			stop()
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
