package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pharmacy-bot/internal/domain"
)

func TestSession_CreateIsConditional(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.CreateSession(ctx, domain.NewSession(1, "Ann", "uz", time.Now()))
	require.NoError(t, err)
	require.Equal(t, int64(1), created.Version)

	_, err = s.CreateSession(ctx, domain.NewSession(1, "Ann", "uz", time.Now()))
	require.ErrorIs(t, err, domain.ErrConflict)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSession_SaveRejectsStaleVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	sess, err := s.CreateSession(ctx, domain.NewSession(1, "Ann", "uz", time.Now()))
	require.NoError(t, err)

	sess.Locale = "en"
	saved, err := s.SaveSession(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, int64(2), saved.Version)

	_, err = s.SaveSession(ctx, sess)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestBasket_MissingIsEmptyAndCopiesDoNotAlias(t *testing.T) {
	s := New()
	ctx := context.Background()

	b, err := s.GetBasket(ctx, 7)
	require.NoError(t, err)
	require.True(t, b.IsEmpty())
	require.Equal(t, int64(0), b.Version)

	b.Add(42)
	saved, err := s.SaveBasket(ctx, b)
	require.NoError(t, err)
	saved.Add(42)

	got, err := s.GetBasket(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 1, got.Quantity(42))

	_, err = s.SaveBasket(ctx, b)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestSaveCheckout_AllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	sess, err := s.CreateSession(ctx, domain.NewSession(1, "Ann", "uz", time.Now()))
	require.NoError(t, err)
	b := domain.Basket{UserID: 1}
	b.Add(42)
	b, err = s.SaveBasket(ctx, b)
	require.NoError(t, err)

	order := domain.Order{ID: "o-1", UserID: 1, Status: domain.OrderPending}
	stale := sess
	stale.Version = 99
	cleared := b.Clone()
	cleared.Clear()

	err = s.SaveCheckout(ctx, order, cleared, &stale)
	require.ErrorIs(t, err, domain.ErrConflict)
	_, err = s.GetOrder(ctx, "o-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
	got, err := s.GetBasket(ctx, 1)
	require.NoError(t, err)
	require.False(t, got.IsEmpty())

	require.NoError(t, s.SaveCheckout(ctx, order, cleared, &sess))
	got, err = s.GetBasket(ctx, 1)
	require.NoError(t, err)
	require.True(t, got.IsEmpty())
	stored, err := s.GetSession(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, sess.Version+1, stored.Version)
}

func TestUpdateOrderStatus_ConditionalOnFrom(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SaveCheckout(ctx, domain.Order{ID: "o-1", UserID: 1, Status: domain.OrderPending}, domain.Basket{UserID: 1}, nil))

	_, err := s.UpdateOrderStatus(ctx, "o-1", domain.OrderConfirmed, domain.OrderDelivered, time.Now())
	require.ErrorIs(t, err, domain.ErrConflict)

	o, err := s.UpdateOrderStatus(ctx, "o-1", domain.OrderPending, domain.OrderConfirmed, time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.OrderConfirmed, o.Status)

	_, err = s.UpdateOrderStatus(ctx, "missing", domain.OrderPending, domain.OrderConfirmed, time.Now())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrders_NewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveCheckout(ctx, domain.Order{ID: "a", UserID: 1, CreatedAt: base}, domain.Basket{UserID: 1}, nil))
	require.NoError(t, s.SaveCheckout(ctx, domain.Order{ID: "b", UserID: 1, CreatedAt: base.Add(time.Hour)}, domain.Basket{UserID: 1, Version: 1}, nil))
	require.NoError(t, s.SaveCheckout(ctx, domain.Order{ID: "c", UserID: 2, CreatedAt: base.Add(2 * time.Hour)}, domain.Basket{UserID: 2}, nil))

	mine, err := s.ListOrdersByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "b", mine[0].ID)

	all, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c", all[0].ID)
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	ctx := context.Background()
	c.AddCategory(domain.Category{ID: 1, Name: "Vitamins"})
	c.AddProduct(domain.Product{ID: 10, CategoryID: 1, Name: "Vitamin C", UnitPrice: decimal.NewFromInt(10)})
	c.AddProduct(domain.Product{ID: 11, CategoryID: 2, Name: "Aspirin", UnitPrice: decimal.NewFromInt(5)})

	found, err := c.SearchByName(ctx, "vitamin")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, int64(10), found[0].ID)

	inCat, err := c.ProductsInCategory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, inCat, 1)

	require.NoError(t, c.SetPrice(10, decimal.NewFromInt(12)))
	p, err := c.GetProduct(ctx, 10)
	require.NoError(t, err)
	require.True(t, p.UnitPrice.Equal(decimal.NewFromInt(12)))

	require.ErrorIs(t, c.SetPrice(99, decimal.Zero), domain.ErrNotFound)
	c.RemoveProduct(11)
	_, err = c.GetProduct(ctx, 11)
	require.ErrorIs(t, err, domain.ErrNotFound)

	n, err := c.CountProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
