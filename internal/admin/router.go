// Package admin serves read-only JSON reports over orders and baskets.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/logging"
	"pharmacy-bot/internal/usecase"
)

// Shop is the subset of usecase.Shop the reports read through.
type Shop interface {
	Order(ctx context.Context, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	ViewBasket(ctx context.Context, userID int64) (usecase.BasketView, error)
}

// OrderScanner lists every order, newest first.
type OrderScanner interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

// UserCounter counts the users who ever contacted the bot.
type UserCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

type ProductCounter interface {
	CountProducts(ctx context.Context) (int, error)
}

type Handler struct {
	shop     Shop
	orders   OrderScanner
	users    UserCounter
	products ProductCounter
	log      *slog.Logger
}

func NewHandler(shop Shop, orders OrderScanner, users UserCounter, products ProductCounter, log *slog.Logger) (*Handler, error) {
	if shop == nil {
		return nil, errors.New("admin: shop must not be nil")
	}
	if orders == nil {
		return nil, errors.New("admin: order scanner must not be nil")
	}
	if users == nil {
		return nil, errors.New("admin: user counter must not be nil")
	}
	if products == nil {
		return nil, errors.New("admin: product counter must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{shop: shop, orders: orders, users: users, products: products, log: log}, nil
}

// Mount registers the report routes on r under /admin.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(h.accessLog)
		r.Use(middleware.Recoverer)

		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/baskets/{userId}", h.getBasket)
		r.Get("/stats", h.stats)
	})
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Mount(r)
	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithCorrelationID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		h.log.InfoContext(ctx, "admin: request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

// listOrders lists all orders, or one user's orders with ?user=<id>.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []domain.Order
		err    error
	)
	if raw := r.URL.Query().Get("user"); raw != "" {
		userID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", "user must be a numeric id")
			return
		}
		orders, err = h.shop.ListOrders(r.Context(), userID)
	} else {
		orders, err = h.orders.ListOrders(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrder(o)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.shop.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(order))
}

func (h *Handler) getBasket(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user", "userId must be a numeric id")
		return
	}
	v, err := h.shop.ViewBasket(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapBasket(v))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	var (
		orders          []domain.Order
		users, products int
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		orders, err = h.orders.ListOrders(ctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = h.users.CountUsers(ctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = h.products.CountProducts(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	st := ComputeStats(orders)
	st.TotalUsers = users
	st.TotalProducts = products
	writeJSON(w, http.StatusOK, mapStats(st))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := usecase.Code(err)
	if errors.Is(err, domain.ErrNotFound) {
		code = usecase.ErrorOrderNotFound
	}
	status := http.StatusInternalServerError
	switch code {
	case usecase.ErrorOrderNotFound:
		status = http.StatusNotFound
	case usecase.ErrorInvalidInput:
		status = http.StatusBadRequest
	case usecase.ErrorUnavailable, usecase.ErrorConflict:
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "admin: report failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, string(code), "")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
