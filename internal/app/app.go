// Package app wires the bot from its configuration. Entry points read the
// environment and call Build.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"

	"pharmacy-bot/handler"
	"pharmacy-bot/internal/admin"
	"pharmacy-bot/internal/dedup"
	"pharmacy-bot/internal/dispatch"
	"pharmacy-bot/internal/integrations/paramstore"
	"pharmacy-bot/internal/integrations/telegram"
	"pharmacy-bot/internal/locker"
	"pharmacy-bot/internal/metrics"
	"pharmacy-bot/internal/repository"
	"pharmacy-bot/internal/repository/memstore"
	"pharmacy-bot/internal/usecase"
)

const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

type Config struct {
	Store      string
	StateTable string
	// ParamPrefix locates <prefix>/bot-token and <prefix>/webhook-secret.
	ParamPrefix string
	// BotToken and WebhookSecret replace the SSM parameters when ParamPrefix is empty.
	BotToken      string
	WebhookSecret string
	// TelegramURL overrides the Bot API base URL.
	TelegramURL string

	DefaultLocale      string
	LockTimeout        time.Duration
	CatalogConcurrency int
	RedisAddr          string
	DedupTTL           time.Duration
	// Metrics receives the webhook collectors when set.
	Metrics prometheus.Registerer
	Logger  *slog.Logger
}

// App holds the wired entry points.
type App struct {
	Shop    *usecase.Shop
	Webhook *handler.Handler
	Admin   *admin.Handler
}

type stores interface {
	usecase.SessionStore
	usecase.BasketStore
	usecase.OrderStore
	admin.OrderScanner
	admin.UserCounter
}

type catalogs interface {
	usecase.Catalog
	admin.ProductCounter
}

type staticSecret string

func (s staticSecret) Value(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("app: secret is not configured")
	}
	return string(s), nil
}

// Build constructs every component. awsCfg is only used by the DynamoDB
// store and the SSM secrets.
func Build(cfg Config, awsCfg aws.Config) (*App, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var (
		st      stores
		catalog catalogs
	)
	switch cfg.Store {
	case StoreMemory:
		st, catalog = memstore.New(), memstore.NewCatalog()
	case StoreDynamoDB, "":
		client, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable)
		if err != nil {
			return nil, fmt.Errorf("app: state store: %w", err)
		}
		cat, err := repository.NewCatalog(client)
		if err != nil {
			return nil, fmt.Errorf("app: catalog: %w", err)
		}
		st, catalog = client, cat
	default:
		return nil, fmt.Errorf("app: unknown store %q", cfg.Store)
	}

	botToken, webhookSecret, err := secrets(cfg, awsCfg)
	if err != nil {
		return nil, err
	}

	locks := locker.New()
	shop, err := usecase.NewShop(st, st, st, catalog, locks, usecase.Config{
		DefaultLocale:      cfg.DefaultLocale,
		LockTimeout:        cfg.LockTimeout,
		CatalogConcurrency: cfg.CatalogConcurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("app: shop: %w", err)
	}

	disp, err := dispatch.New(shop, locks, dispatch.WithEventTimeout(cfg.LockTimeout), dispatch.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("app: dispatcher: %w", err)
	}

	var tgOpts []telegram.Option
	if cfg.TelegramURL != "" {
		tgOpts = append(tgOpts, telegram.WithBaseURL(cfg.TelegramURL))
	}
	tg, err := telegram.NewClient(botToken, tgOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: telegram client: %w", err)
	}

	opts := []handler.Option{handler.WithLogger(log)}
	if cfg.RedisAddr != "" {
		guard, err := dedup.NewRedis(cfg.RedisAddr, "pharmacy-bot", cfg.DedupTTL)
		if err != nil {
			return nil, fmt.Errorf("app: redelivery guard: %w", err)
		}
		opts = append(opts, handler.WithDeduper(guard))
	}
	if cfg.Metrics != nil {
		m, err := metrics.NewWebhook(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
		opts = append(opts, handler.WithRecorder(m))
	}
	webhook, err := handler.NewHandler(disp, tg, webhookSecret, opts...)
	if err != nil {
		return nil, fmt.Errorf("app: webhook handler: %w", err)
	}

	adm, err := admin.NewHandler(shop, st, st, catalog, log)
	if err != nil {
		return nil, fmt.Errorf("app: admin handler: %w", err)
	}

	return &App{Shop: shop, Webhook: webhook, Admin: adm}, nil
}

func secrets(cfg Config, awsCfg aws.Config) (telegram.TokenSource, handler.SecretSource, error) {
	if cfg.ParamPrefix == "" {
		if cfg.BotToken == "" || cfg.WebhookSecret == "" {
			return nil, nil, errors.New("app: either a parameter prefix or both bot token and webhook secret are required")
		}
		return staticSecret(cfg.BotToken), staticSecret(cfg.WebhookSecret), nil
	}

	ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, nil, fmt.Errorf("app: paramstore: %w", err)
	}
	token, err := paramstore.NewSecret(ps, paramstore.Name(cfg.ParamPrefix, "bot-token"), paramstore.JSONToken)
	if err != nil {
		return nil, nil, fmt.Errorf("app: bot token: %w", err)
	}
	secret, err := paramstore.NewSecret(ps, paramstore.Name(cfg.ParamPrefix, "webhook-secret"), paramstore.Plain)
	if err != nil {
		return nil, nil, fmt.Errorf("app: webhook secret: %w", err)
	}
	return token, secret, nil
}
