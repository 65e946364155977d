package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/locker"
	"pharmacy-bot/internal/repository/memstore"
)

// slowBaskets widens the window between reading and writing a basket so that
// shops on separate lockers overlap.
type slowBaskets struct {
	*memstore.Store
}

func (s slowBaskets) GetBasket(ctx context.Context, userID int64) (domain.Basket, error) {
	b, err := s.Store.GetBasket(ctx, userID)
	time.Sleep(time.Millisecond)
	return b, err
}

// flakyBaskets loses the first n basket writes.
type flakyBaskets struct {
	*memstore.Store
	n      int32
	writes atomic.Int32
}

func (f *flakyBaskets) SaveBasket(ctx context.Context, b domain.Basket) (domain.Basket, error) {
	if f.writes.Add(1) <= f.n {
		return domain.Basket{}, domain.ErrConflict
	}
	return f.Store.SaveBasket(ctx, b)
}

// flakyCheckout loses the first checkout transaction.
type flakyCheckout struct {
	*memstore.Store
	lost atomic.Bool
}

func (f *flakyCheckout) SaveCheckout(ctx context.Context, order domain.Order, b domain.Basket, sess *domain.Session) error {
	if f.lost.CompareAndSwap(false, true) {
		return domain.ErrConflict
	}
	return f.Store.SaveCheckout(ctx, order, b, sess)
}

func TestAddToBasket_ConcurrentAcrossInstances(t *testing.T) {
	f := newFixture(t)
	baskets := slowBaskets{f.store}
	cfg := Config{LockTimeout: 10 * time.Second, ConflictRetries: 50}

	var shops []*Shop
	for range 2 {
		shop, err := NewShop(f.store, baskets, f.store, f.catalog, locker.New(), cfg)
		require.NoError(t, err)
		shops = append(shops, shop)
	}

	const n = 50
	var g errgroup.Group
	for i := range n {
		shop := shops[i%len(shops)]
		g.Go(func() error {
			_, err := shop.AddToBasket(context.Background(), userID, productA)
			return err
		})
	}
	require.NoError(t, g.Wait())

	b, err := f.store.GetBasket(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, n, b.Quantity(productA))
}

func TestLostWrite_RetriedOnFreshRead(t *testing.T) {
	f := newFixture(t)
	baskets := &flakyBaskets{Store: f.store, n: 2}
	shop, err := NewShop(f.store, baskets, f.store, f.catalog, locker.New(), Config{})
	require.NoError(t, err)

	b, err := shop.AddToBasket(context.Background(), userID, productA)
	require.NoError(t, err)
	require.Equal(t, 1, b.Quantity(productA))
	require.Equal(t, int32(3), baskets.writes.Load())
}

func TestLostWrite_GivesUpAfterRetries(t *testing.T) {
	f := newFixture(t)
	baskets := &flakyBaskets{Store: f.store, n: 100}
	shop, err := NewShop(f.store, baskets, f.store, f.catalog, locker.New(), Config{ConflictRetries: 2})
	require.NoError(t, err)

	_, err = shop.AddToBasket(context.Background(), userID, productA)
	expectCode(t, err, ErrorConflict)
	require.Equal(t, int32(3), baskets.writes.Load())

	shop, err = NewShop(f.store, baskets, f.store, f.catalog, locker.New(), Config{ConflictRetries: -1})
	require.NoError(t, err)
	baskets.writes.Store(0)
	_, err = shop.AddToBasket(context.Background(), userID, productA)
	expectCode(t, err, ErrorConflict)
	require.Equal(t, int32(1), baskets.writes.Load())
}

func TestCheckout_LostTransactionIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orders := &flakyCheckout{Store: f.store}
	shop, err := NewShop(f.store, f.store, orders, f.catalog, locker.New(), Config{})
	require.NoError(t, err)

	_, _, err = shop.EnsureSession(ctx, userID, "Ann")
	require.NoError(t, err)
	_, err = shop.AddToBasket(ctx, userID, productA)
	require.NoError(t, err)
	_, err = shop.Checkout(ctx, userID)
	require.NoError(t, err)
	_, err = shop.SubmitPhone(ctx, userID, "+998901234567")
	require.NoError(t, err)

	res, err := shop.SubmitAddress(ctx, userID, domain.Location{Latitude: 41.3, Longitude: 69.2})
	require.NoError(t, err)
	require.Equal(t, StepOrderCreated, res.Step)
	require.True(t, orders.lost.Load())

	stored, err := f.store.ListOrdersByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	sess, err := f.store.GetSession(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, domain.StateIdle, sess.State)
	require.Equal(t, res.Session.Version, sess.Version)
	b, err := f.store.GetBasket(ctx, userID)
	require.NoError(t, err)
	require.True(t, b.IsEmpty())
}

func TestAddToBasket_ExistingLineSkipsCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.shop.AddToBasket(ctx, userID, productB)
	require.NoError(t, err)
	f.catalog.RemoveProduct(productB)

	b, err := f.shop.AddToBasket(ctx, userID, productB)
	require.NoError(t, err)
	require.Equal(t, 2, b.Quantity(productB))

	_, err = f.shop.IncreaseItem(ctx, userID, productB)
	require.NoError(t, err)
}
