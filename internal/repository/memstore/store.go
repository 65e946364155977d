// Package memstore keeps sessions, baskets, orders and the catalog in process
// memory. It backs local runs of cmd/server and tests, with the same
// conditional write semantics as the DynamoDB repository.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"pharmacy-bot/internal/domain"
)

type Store struct {
	mu       sync.Mutex
	sessions map[int64]domain.Session
	baskets  map[int64]domain.Basket
	orders   map[string]domain.Order
}

func New() *Store {
	return &Store{
		sessions: make(map[int64]domain.Session),
		baskets:  make(map[int64]domain.Basket),
		orders:   make(map[string]domain.Order),
	}
}

func (s *Store) GetSession(_ context.Context, userID int64) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return sess, nil
}

func (s *Store) CreateSession(_ context.Context, sess domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.UserID]; ok {
		return domain.Session{}, domain.ErrConflict
	}
	sess.Version = 1
	s.sessions[sess.UserID] = sess
	return sess, nil
}

func (s *Store) SaveSession(_ context.Context, sess domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sessionVersionMatches(sess) {
		return domain.Session{}, domain.ErrConflict
	}
	sess.Version++
	s.sessions[sess.UserID] = sess
	return sess, nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions), nil
}

func (s *Store) GetBasket(_ context.Context, userID int64) (domain.Basket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baskets[userID]
	if !ok {
		return domain.Basket{UserID: userID}, nil
	}
	return b.Clone(), nil
}

func (s *Store) SaveBasket(_ context.Context, b domain.Basket) (domain.Basket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.basketVersionMatches(b) {
		return domain.Basket{}, domain.ErrConflict
	}
	b = b.Clone()
	b.Version++
	s.baskets[b.UserID] = b
	return b.Clone(), nil
}

func (s *Store) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (s *Store) ListOrdersByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	return s.listOrders(func(o domain.Order) bool { return o.UserID == userID }), nil
}

// ListOrders returns every order, newest first.
func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	return s.listOrders(func(domain.Order) bool { return true }), nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, orderID string, from, to domain.OrderStatus, at time.Time) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if o.Status != from {
		return domain.Order{}, domain.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = at
	s.orders[orderID] = o
	return cloneOrder(o), nil
}

// SaveCheckout applies all three writes or none.
func (s *Store) SaveCheckout(_ context.Context, order domain.Order, basket domain.Basket, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; ok {
		return domain.ErrConflict
	}
	if !s.basketVersionMatches(basket) {
		return domain.ErrConflict
	}
	if sess != nil && !s.sessionVersionMatches(*sess) {
		return domain.ErrConflict
	}

	s.orders[order.ID] = cloneOrder(order)
	basket = basket.Clone()
	basket.Version++
	s.baskets[basket.UserID] = basket
	if sess != nil {
		next := *sess
		next.Version++
		s.sessions[next.UserID] = next
	}
	return nil
}

func (s *Store) sessionVersionMatches(sess domain.Session) bool {
	cur, ok := s.sessions[sess.UserID]
	return ok && cur.Version == sess.Version
}

func (s *Store) basketVersionMatches(b domain.Basket) bool {
	cur, ok := s.baskets[b.UserID]
	if !ok {
		return b.Version == 0
	}
	return cur.Version == b.Version
}

func (s *Store) listOrders(keep func(domain.Order) bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func cloneOrder(o domain.Order) domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return o
}
