package usecase

import (
	"context"
	"errors"
	"sort"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/locker"
)

// UpdateStatus applies a lifecycle transition to any order without an owner
// check. It is the operator entry point; chat goes through ChangeOrderStatus.
func (s *Shop) UpdateStatus(ctx context.Context, orderID string, to domain.OrderStatus) (domain.Order, error) {
	return s.updateStatus(ctx, orderID, to, nil)
}

// ChangeOrderStatus applies a transition requested by userID from chat. Orders
// of other users are reported as not found.
func (s *Shop) ChangeOrderStatus(ctx context.Context, userID int64, orderID string, to domain.OrderStatus) (domain.Order, error) {
	return s.updateStatus(ctx, orderID, to, &userID)
}

func (s *Shop) updateStatus(ctx context.Context, orderID string, to domain.OrderStatus, owner *int64) (domain.Order, error) {
	if !to.Valid() {
		return domain.Order{}, newError(ErrorInvalidStatusTransition, "unknown_status", nil)
	}
	unlock, err := s.lock(ctx, locker.OrderKey(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	defer unlock()

	// a status changed by another process is re-read and the transition
	// checked again
	var updated domain.Order
	err = s.retryConflict(ctx, func() error {
		order, err := s.Order(ctx, orderID)
		if err != nil {
			return err
		}
		if owner != nil && order.UserID != *owner {
			return newError(ErrorOrderNotFound, "foreign_order", nil)
		}
		if !order.Status.CanTransitionTo(to) {
			return newError(ErrorInvalidStatusTransition, string(order.Status)+"_to_"+string(to), nil)
		}
		updated, err = s.orders.UpdateOrderStatus(ctx, orderID, order.Status, to, s.now())
		if err != nil {
			return storeError("order_write_error", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

func (s *Shop) Order(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Order{}, newError(ErrorOrderNotFound, "order_not_found", err)
	}
	if err != nil {
		return domain.Order{}, storeError("order_read_error", err)
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *Shop) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, storeError("order_read_error", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
