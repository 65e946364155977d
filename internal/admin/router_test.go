package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/locker"
	"pharmacy-bot/internal/repository/memstore"
	"pharmacy-bot/internal/usecase"
)

type fixture struct {
	srv     *httptest.Server
	shop    *usecase.Shop
	store   *memstore.Store
	catalog *memstore.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := memstore.NewCatalog()
	catalog.AddProduct(domain.Product{ID: 1, Name: "Aspirin", UnitPrice: decimal.NewFromInt(10), AvailableQuantity: 5})
	catalog.AddProduct(domain.Product{ID: 2, Name: "Ibuprofen", UnitPrice: decimal.NewFromInt(5), AvailableQuantity: 5})

	store := memstore.New()
	shop, err := usecase.NewShop(store, store, store, catalog, locker.New(), usecase.Config{})
	require.NoError(t, err)
	h, err := NewHandler(shop, store, store, catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, shop: shop, store: store, catalog: catalog}
}

func (f *fixture) order(t *testing.T, userID int64, products ...int64) domain.Order {
	t.Helper()
	for _, p := range products {
		_, err := f.shop.AddToBasket(context.Background(), userID, p)
		require.NoError(t, err)
	}
	o, err := f.shop.CreateFromBasket(context.Background(), userID)
	require.NoError(t, err)
	return o
}

func get[T any](t *testing.T, url string, wantStatus int) T {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, wantStatus, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func TestGetOrder(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, 7, 1, 1, 2)

	out := get[OrderResponse](t, f.srv.URL+"/admin/orders/"+o.ID, http.StatusOK)
	require.Equal(t, o.ID, out.ID)
	require.Equal(t, int64(7), out.UserID)
	require.Equal(t, domain.OrderPending, out.Status)
	require.Len(t, out.Lines, 2)
	require.True(t, out.TotalPrice.Equal(decimal.NewFromInt(25)))
	require.True(t, out.Lines[0].Subtotal.Equal(decimal.NewFromInt(20)))

	e := get[ErrorResponse](t, f.srv.URL+"/admin/orders/missing", http.StatusNotFound)
	require.Equal(t, string(usecase.ErrorOrderNotFound), e.Error)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	f.order(t, 7, 1)
	f.order(t, 8, 2)
	f.order(t, 7, 2)

	all := get[[]OrderResponse](t, f.srv.URL+"/admin/orders", http.StatusOK)
	require.Len(t, all, 3)

	mine := get[[]OrderResponse](t, f.srv.URL+"/admin/orders?user=7", http.StatusOK)
	require.Len(t, mine, 2)
	for _, o := range mine {
		require.Equal(t, int64(7), o.UserID)
	}

	e := get[ErrorResponse](t, f.srv.URL+"/admin/orders?user=abc", http.StatusBadRequest)
	require.Equal(t, "invalid_user", e.Error)
}

func TestGetBasket(t *testing.T) {
	f := newFixture(t)
	_, err := f.shop.AddToBasket(context.Background(), 9, 1)
	require.NoError(t, err)
	_, err = f.shop.AddToBasket(context.Background(), 9, 1)
	require.NoError(t, err)

	out := get[BasketResponse](t, f.srv.URL+"/admin/baskets/9", http.StatusOK)
	require.Equal(t, int64(9), out.UserID)
	require.Len(t, out.Lines, 1)
	require.Equal(t, 2, out.Lines[0].Quantity)
	require.True(t, out.Lines[0].Available)
	require.True(t, out.Total.Equal(decimal.NewFromInt(20)))

	empty := get[BasketResponse](t, f.srv.URL+"/admin/baskets/10", http.StatusOK)
	require.Empty(t, empty.Lines)

	get[ErrorResponse](t, f.srv.URL+"/admin/baskets/x", http.StatusBadRequest)
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	delivered := f.order(t, 7, 1, 1, 2)
	cancelled := f.order(t, 8, 1)
	f.order(t, 9, 2)

	_, err := f.shop.UpdateStatus(ctx, delivered.ID, domain.OrderConfirmed)
	require.NoError(t, err)
	_, err = f.shop.UpdateStatus(ctx, delivered.ID, domain.OrderDelivered)
	require.NoError(t, err)
	_, err = f.shop.UpdateStatus(ctx, cancelled.ID, domain.OrderCancelled)
	require.NoError(t, err)

	for _, user := range []int64{7, 8} {
		_, _, err = f.shop.EnsureSession(ctx, user, "")
		require.NoError(t, err)
	}

	out := get[StatsResponse](t, f.srv.URL+"/admin/stats", http.StatusOK)
	require.Equal(t, 2, out.TotalUsers)
	require.Equal(t, 2, out.TotalProducts)
	require.Equal(t, 3, out.TotalOrders)
	require.True(t, out.Revenue.Equal(decimal.NewFromInt(30)), out.Revenue.String())
	require.Equal(t, "33.33", out.SuccessRate.String())
	require.Equal(t, map[domain.OrderStatus]int{
		domain.OrderPending: 1, domain.OrderConfirmed: 0, domain.OrderCancelled: 1, domain.OrderDelivered: 1,
	}, out.ByStatus)
}

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil)
	require.Zero(t, st.TotalOrders)
	require.True(t, st.Revenue.IsZero())
	require.True(t, st.SuccessRate.IsZero())
	require.Len(t, st.ByStatus, 4)
}

type failingScanner struct{}

func (failingScanner) ListOrders(context.Context) ([]domain.Order, error) {
	return nil, errors.New("dynamodb: throttled")
}

func TestStats_StoreFailure(t *testing.T) {
	f := newFixture(t)
	h, err := NewHandler(f.shop, failingScanner{}, f.store, f.catalog, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewHandler_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := NewHandler(nil, failingScanner{}, f.store, f.catalog, nil)
	require.Error(t, err)
	_, err = NewHandler(f.shop, nil, f.store, f.catalog, nil)
	require.Error(t, err)
	_, err = NewHandler(f.shop, f.store, nil, f.catalog, nil)
	require.Error(t, err)
	_, err = NewHandler(f.shop, f.store, f.store, nil, nil)
	require.Error(t, err)
}
