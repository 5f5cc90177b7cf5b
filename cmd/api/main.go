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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sirish76/healthcare-assistant/internal/api/router"
	"github.com/sirish76/healthcare-assistant/internal/auth"
	"github.com/sirish76/healthcare-assistant/internal/booking"
	"github.com/sirish76/healthcare-assistant/internal/chat"
	appconfig "github.com/sirish76/healthcare-assistant/internal/config"
	"github.com/sirish76/healthcare-assistant/internal/conversations"
	"github.com/sirish76/healthcare-assistant/internal/doctors"
	"github.com/sirish76/healthcare-assistant/internal/gcal"
	"github.com/sirish76/healthcare-assistant/internal/http/handlers"
	"github.com/sirish76/healthcare-assistant/internal/notify"
	"github.com/sirish76/healthcare-assistant/internal/observability/metrics"
	"github.com/sirish76/healthcare-assistant/internal/payments"
	"github.com/sirish76/healthcare-assistant/internal/scheduling"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting healthcare-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	zone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, falling back to UTC", "timezone", cfg.Timezone, "error", err)
		zone = time.UTC
	}

	metricsHandler, bookingMetrics := setupMetrics()

	// Google Calendar. Missing credentials degrade scheduling instead of
	// blocking startup.
	var busyFetcher scheduling.BusyFetcher
	var eventInserter booking.EventInserter
	calClient, err := gcal.NewClient(ctx, gcal.Config{
		CalendarEmail:         cfg.CalendarEmail,
		ServiceAccountKeyPath: cfg.ServiceAccountKeyPath,
		Timezone:              cfg.Timezone,
	}, logger)
	switch {
	case err == nil:
		busyFetcher = calClient
		eventInserter = calClient
	case errors.Is(err, gcal.ErrNotConfigured):
		logger.Warn("google calendar not configured; scheduling runs degraded")
	default:
		logger.Error("failed to initialize google calendar", "error", err)
		os.Exit(1)
	}

	calculator := scheduling.NewCalculator(scheduling.SlotConfig{
		Zone:          zone,
		BusinessStart: cfg.BusinessHoursStart,
		BusinessEnd:   cfg.BusinessHoursEnd,
		SlotDuration:  time.Duration(cfg.SlotDurationMinutes) * time.Minute,
		DaysAhead:     cfg.DaysAhead,
	}, busyFetcher, logger)
	executor := booking.NewExecutor(eventInserter, zone, logger)

	notifier := notify.NewService(setupEmailSender(ctx, cfg, logger), cfg.NotificationCC, logger)

	checkout := payments.NewCheckoutService(payments.CheckoutConfig{
		SecretKey:  cfg.StripeSecretKey,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
		PriceCents: cfg.PriceCents,
		Currency:   cfg.PriceCurrency,
	}, logger)

	var processed payments.ProcessedTracker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		processed = payments.NewRedisTracker(client, cfg.ProcessedRetention)
		logger.Info("webhook dedup backed by redis", "addr", cfg.RedisAddr)
	} else {
		processed = payments.NewMemoryTracker(cfg.ProcessedRetention)
		logger.Warn("webhook dedup is in-memory; duplicates possible across replicas")
	}

	anthropic := chat.NewAnthropicClient(chat.AnthropicConfig{
		APIKey:    cfg.AnthropicAPIKey,
		Model:     cfg.AnthropicModel,
		MaxTokens: cfg.AnthropicMaxTokens,
	}, logger)
	doctorSearch := doctors.NewService(doctors.Config{
		APIKey:  cfg.DoctorAPIKey,
		BaseURL: cfg.DoctorBaseURL,
	}, logger)
	chatService := chat.NewService(anthropic, doctorSearch, logger)

	routerCfg := &router.Config{
		Logger:            logger,
		SchedulingHandler: handlers.NewSchedulingHandler(calculator, executor, notifier, bookingMetrics, logger),
		CheckoutHandler:   payments.NewCheckoutHandler(checkout, logger),
		WebhookHandler: payments.NewWebhookHandler(
			cfg.StripeWebhookSecret, executor, notifier, processed, bookingMetrics, logger),
		ChatHandler:        chat.NewHandler(chatService, logger),
		DoctorsHandler:     doctors.NewHandler(doctorSearch, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatRatePerSecond:  1,
		ChatBurst:          5,
	}

	// Google sign-in and server-side conversation history need both a
	// database and a session secret; otherwise those routes answer 503.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
	}
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if pool != nil && issuer != nil && cfg.GoogleClientID != "" {
		verifier, err := auth.NewGoogleVerifier(ctx, cfg.GoogleClientID, logger)
		if err != nil {
			logger.Error("failed to initialize google verifier", "error", err)
			os.Exit(1)
		}
		routerCfg.TokenIssuer = issuer
		routerCfg.AuthHandler = auth.NewHandler(verifier, auth.NewUserStore(pool), issuer, logger)
		routerCfg.ConversationsHandler = conversations.NewHandler(conversations.NewRepository(pool), logger)
	} else {
		logger.Warn("user accounts disabled; set DATABASE_URL, JWT_SECRET and GOOGLE_CLIENT_ID to enable")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

// setupMetrics builds the process registry and its scrape handler.
func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBookingMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), m
}

// setupEmailSender picks the configured provider, falling back to a stub
// that only logs.
func setupEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but no api key; emails will be logged only")
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load aws config for ses", "error", err)
			break
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}
