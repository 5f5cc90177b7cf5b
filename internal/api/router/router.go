package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sirish76/healthcare-assistant/internal/auth"
	"github.com/sirish76/healthcare-assistant/internal/chat"
	"github.com/sirish76/healthcare-assistant/internal/conversations"
	"github.com/sirish76/healthcare-assistant/internal/doctors"
	"github.com/sirish76/healthcare-assistant/internal/http/handlers"
	httpmiddleware "github.com/sirish76/healthcare-assistant/internal/http/middleware"
	"github.com/sirish76/healthcare-assistant/internal/payments"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	SchedulingHandler    *handlers.SchedulingHandler
	CheckoutHandler      *payments.CheckoutHandler
	WebhookHandler       *payments.WebhookHandler
	ChatHandler          *chat.Handler
	DoctorsHandler       *doctors.Handler
	AuthHandler          *auth.Handler
	ConversationsHandler *conversations.Handler

	// TokenIssuer guards the per-user routes. A nil issuer keeps the
	// routes mounted but answering 503.
	TokenIssuer *auth.TokenIssuer

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ChatRatePerSecond throttles the LLM-backed endpoints per IP.
	// Zero disables throttling.
	ChatRatePerSecond float64
	ChatBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public endpoints.
	r.Route("/api", func(api chi.Router) {
		if cfg.SchedulingHandler != nil {
			api.Route("/scheduling", func(s chi.Router) {
				s.Get("/slots", cfg.SchedulingHandler.GetSlots)
				s.Post("/book", cfg.SchedulingHandler.BookSlot)
			})
		}
		if cfg.CheckoutHandler != nil {
			api.Post("/payment/create-checkout-session", cfg.CheckoutHandler.CreateCheckoutSession)
		}
		if cfg.WebhookHandler != nil {
			// Stripe authenticates itself via the signature header.
			api.Post("/payment/webhook", cfg.WebhookHandler.Handle)
		}
		if cfg.AuthHandler != nil {
			api.Post("/auth/google", cfg.AuthHandler.GoogleSignIn)
		}

		// LLM-backed endpoints get per-IP throttling.
		api.Group(func(throttled chi.Router) {
			if cfg.ChatRatePerSecond > 0 {
				burst := cfg.ChatBurst
				if burst <= 0 {
					burst = 5
				}
				throttled.Use(httpmiddleware.RateLimit(cfg.ChatRatePerSecond, burst))
			}
			if cfg.ChatHandler != nil {
				throttled.Post("/chat", cfg.ChatHandler.Chat)
			}
			if cfg.DoctorsHandler != nil {
				throttled.Post("/doctors/search", cfg.DoctorsHandler.Search)
			}
		})

		// Per-user routes require a session token.
		if cfg.ConversationsHandler != nil {
			api.Route("/conversations", func(c chi.Router) {
				c.Use(cfg.TokenIssuer.Middleware)
				cfg.ConversationsHandler.Routes(c)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
