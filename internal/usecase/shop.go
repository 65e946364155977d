package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/i18n"
)

const (
	defaultLockTimeout        = 5 * time.Second
	defaultCatalogConcurrency = 8
)

// ConflictRetries bounds how often a write lost to another process is re-read
// and re-applied. Zero means the default; negative disables retrying.
type Config struct {
	DefaultLocale      string
	LockTimeout        time.Duration
	CatalogConcurrency int
	ConflictRetries    int
}

// Shop runs the session, basket and order operations of all users. Mutations
// of one user are serialized on the user's lock.
type Shop struct {
	sessions SessionStore
	baskets  BasketStore
	orders   OrderStore
	catalog  Catalog
	locks    Locker

	defaultLocale   string
	lockTimeout     time.Duration
	concurrency     int
	conflictRetries int

	now func() time.Time
}

func NewShop(sessions SessionStore, baskets BasketStore, orders OrderStore, catalog Catalog, locks Locker, cfg Config) (*Shop, error) {
	if sessions == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if baskets == nil {
		return nil, errors.New("usecase: basket store must not be nil")
	}
	if orders == nil {
		return nil, errors.New("usecase: order store must not be nil")
	}
	if catalog == nil {
		return nil, errors.New("usecase: catalog must not be nil")
	}
	if locks == nil {
		return nil, errors.New("usecase: locker must not be nil")
	}
	locale := i18n.DefaultLocale
	if cfg.DefaultLocale != "" {
		code, ok := i18n.Normalize(cfg.DefaultLocale)
		if !ok {
			return nil, errors.New("usecase: unsupported default locale " + cfg.DefaultLocale)
		}
		locale = code
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = defaultLockTimeout
	}
	if cfg.CatalogConcurrency <= 0 {
		cfg.CatalogConcurrency = defaultCatalogConcurrency
	}
	switch {
	case cfg.ConflictRetries == 0:
		cfg.ConflictRetries = defaultConflictRetries
	case cfg.ConflictRetries < 0:
		cfg.ConflictRetries = 0
	}
	return &Shop{
		sessions:        sessions,
		baskets:         baskets,
		orders:          orders,
		catalog:         catalog,
		locks:           locks,
		defaultLocale:   locale,
		lockTimeout:     cfg.LockTimeout,
		concurrency:     cfg.CatalogConcurrency,
		conflictRetries: cfg.ConflictRetries,
		now:             time.Now,
	}, nil
}

func (s *Shop) lock(ctx context.Context, key string) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	unlock, err := s.locks.Lock(lctx, key)
	if err != nil {
		return nil, newError(ErrorUnavailable, "lock_timeout", err)
	}
	return unlock, nil
}

// storeError classifies a storage failure that has no domain meaning for the
// caller.
func storeError(reason string, err error) *Error {
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	if errors.Is(err, domain.ErrConflict) {
		return newError(ErrorConflict, reason, err)
	}
	return newError(ErrorUnavailable, reason, err)
}

func defaultUUID() string {
	return uuid.NewString()
}

var newUUID = defaultUUID
