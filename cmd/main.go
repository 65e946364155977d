package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"

	"pharmacy-bot/internal/app"
	"pharmacy-bot/internal/logging"
)

func main() {
	ctx := context.Background()
	log := logging.New(os.Stderr, logging.ParseLevel(os.Getenv("LOG_LEVEL")))
	slog.SetDefault(log)

	// ---- Configuration (read only here) ----
	cfg := app.Config{
		Store:              app.StoreDynamoDB,
		StateTable:         mustEnv("STATE_TABLE"),
		ParamPrefix:        mustEnv("PARAM_PREFIX"),
		DefaultLocale:      os.Getenv("DEFAULT_LOCALE"),
		LockTimeout:        envDuration("LOCK_TIMEOUT", 5*time.Second),
		CatalogConcurrency: envInt("CATALOG_CONCURRENCY", 8),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		DedupTTL:           envDuration("DEDUP_TTL", 24*time.Hour),
		Logger:             log,
	}

	// ---- AWS SDK config ----
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	a, err := app.Build(cfg, awsCfg)
	if err != nil {
		slog.Error("failed to build bot", "err", err)
		os.Exit(1)
	}

	lambda.Start(a.Webhook.Handle)
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
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
