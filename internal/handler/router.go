package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/bot-console/internal/middleware"
	natsclient "github.com/capitalize-ai/bot-console/internal/nats"
	"github.com/capitalize-ai/bot-console/internal/service"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// RouterConfig holds everything the router needs.
type RouterConfig struct {
	Console        *service.Console
	Upstream       Pinger
	NATS           *natsclient.Client
	Journal        Replayer
	WebSocket      http.Handler
	AllowedOrigins []string
	JWTSecret      string
	RateLimit      int
	RateWindow     time.Duration
	Logger         *logger.Logger
}

// NewRouter builds the console HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger

	healthHandler := NewHealthHandler(cfg.Upstream, cfg.NATS)
	tenantHandler := NewTenantHandler(cfg.Console, log)
	faqHandler := NewFAQHandler(cfg.Console, log)
	productHandler := NewProductHandler(cfg.Console, log)
	conversationHandler := NewConversationHandler(cfg.Console, log)
	streamHandler := NewStreamHandler(cfg.Console.Events(), cfg.Journal, log)
	notificationHandler := NewNotificationHandler(cfg.Console.Notifications())

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	if cfg.WebSocket != nil {
		r.With(middleware.Auth(cfg.JWTSecret)).Handle("/ws", cfg.WebSocket)
	}

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		if cfg.RateLimit > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateWindow))
		}

		r.Get("/notifications", notificationHandler.Drain)

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", tenantHandler.List)
			r.Post("/", tenantHandler.Create)

			r.Route("/{tenantID}", func(r chi.Router) {
				r.Use(middleware.TenantScope)

				r.Get("/", tenantHandler.Get)
				r.Patch("/", tenantHandler.Update)
				r.Post("/delete", tenantHandler.RequestDelete)
				r.Post("/delete/confirm", tenantHandler.ConfirmDelete)
				r.Post("/delete/cancel", tenantHandler.CancelDelete)

				// FAQ links
				r.Route("/faq-links", func(r chi.Router) {
					r.Get("/", faqHandler.ListLinks)
					r.Post("/", faqHandler.CreateLink)

					r.Route("/{linkID}", func(r chi.Router) {
						r.Post("/toggle", faqHandler.Toggle)
						r.Get("/faqs", faqHandler.ListFAQs)
						r.Post("/delete", faqHandler.RequestDelete)
						r.Post("/delete/confirm", faqHandler.ConfirmDelete)
						r.Post("/delete/cancel", faqHandler.CancelDelete)
					})
				})
				r.Get("/faqs/search", faqHandler.Search)

				// Products
				r.Route("/products", func(r chi.Router) {
					r.Get("/", productHandler.List)
					r.Get("/search", productHandler.Search)
					r.Post("/fetch-feed", productHandler.FetchFeed)
					r.Post("/delete", productHandler.RequestDelete)
					r.Post("/delete/confirm", productHandler.ConfirmDelete)
					r.Post("/delete/cancel", productHandler.CancelDelete)
				})

				// Chat
				r.Get("/sessions", conversationHandler.Sessions)
				r.Post("/sessions/{sessionID}/open", conversationHandler.OpenSession)

				r.Route("/conversations", func(r chi.Router) {
					r.Get("/", conversationHandler.List)
					r.Post("/", conversationHandler.Create)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", conversationHandler.Get)
						r.Delete("/", conversationHandler.Discard)
						r.Post("/select", conversationHandler.Select)
						r.Post("/messages", conversationHandler.Send)
					})
				})

				// Streaming
				r.Get("/stream", streamHandler.Stream)
				r.Get("/events", streamHandler.Events)
			})
		})
	})

	return r
}
