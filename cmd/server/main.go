// Command server runs the webhook and the admin reports as a long-lived HTTP
// service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pharmacy-bot/internal/app"
	"pharmacy-bot/internal/logging"
	"pharmacy-bot/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.New(os.Stderr, logging.ParseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// ---- Configuration (read only here) ----
	store := envString("STORE", app.StoreDynamoDB)
	cfg := app.Config{
		Store:              store,
		ParamPrefix:        os.Getenv("PARAM_PREFIX"),
		BotToken:           os.Getenv("BOT_TOKEN"),
		WebhookSecret:      os.Getenv("WEBHOOK_SECRET"),
		TelegramURL:        os.Getenv("TELEGRAM_API_URL"),
		DefaultLocale:      os.Getenv("DEFAULT_LOCALE"),
		LockTimeout:        envDuration("LOCK_TIMEOUT", 5*time.Second),
		CatalogConcurrency: envInt("CATALOG_CONCURRENCY", 8),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		DedupTTL:           envDuration("DEDUP_TTL", 24*time.Hour),
		Metrics:            reg,
		Logger:             log,
	}
	if store == app.StoreDynamoDB {
		cfg.StateTable = mustEnv("STATE_TABLE")
	}
	addr := envString("HTTP_ADDR", ":8080")

	// ---- AWS SDK config ----
	var awsCfg aws.Config
	if store == app.StoreDynamoDB || cfg.ParamPrefix != "" {
		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
	}

	a, err := app.Build(cfg, awsCfg)
	if err != nil {
		slog.Error("failed to build bot", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodPost, "/webhook", a.Webhook)
	r.Handle("/metrics", metrics.Handler(reg))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	a.Admin.Mount(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "addr", addr, "store", store)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}
