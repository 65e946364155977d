package usecase

import (
	"context"
	"time"

	"pharmacy-bot/internal/domain"
)

// SessionStore persists one Session per user. Writes are conditional on the
// Version that was read; a lost race returns domain.ErrConflict.
type SessionStore interface {
	// GetSession returns domain.ErrNotFound for unknown users.
	GetSession(ctx context.Context, userID int64) (domain.Session, error)
	// CreateSession fails with domain.ErrConflict when a session already exists.
	CreateSession(ctx context.Context, s domain.Session) (domain.Session, error)
	SaveSession(ctx context.Context, s domain.Session) (domain.Session, error)
}

// BasketStore persists one Basket per user.
type BasketStore interface {
	// GetBasket returns an empty basket with Version 0 when none was stored yet.
	GetBasket(ctx context.Context, userID int64) (domain.Basket, error)
	SaveBasket(ctx context.Context, b domain.Basket) (domain.Basket, error)
}

type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	// UpdateOrderStatus writes to only while the stored status still equals
	// from, otherwise it returns domain.ErrConflict.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) (domain.Order, error)
	// SaveCheckout stores the order, the cleared basket and, when non-nil, the
	// session in one transaction. Nothing is written if any condition fails.
	SaveCheckout(ctx context.Context, order domain.Order, basket domain.Basket, session *domain.Session) error
}

// Catalog is the read-only product source. GetProduct returns
// domain.ErrNotFound for unknown products.
type Catalog interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ProductsInCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	SearchByName(ctx context.Context, query string) ([]domain.Product, error)
}

type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
