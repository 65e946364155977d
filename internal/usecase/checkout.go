package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/locker"
)

// CheckoutStep tells the caller what checkout needs next.
type CheckoutStep string

const (
	StepAwaitPhone   CheckoutStep = "await_phone"
	StepAwaitAddress CheckoutStep = "await_address"
	StepOrderCreated CheckoutStep = "order_created"
)

type CheckoutResult struct {
	Step    CheckoutStep
	Session domain.Session
	// Order is set when Step is StepOrderCreated.
	Order domain.Order
}

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// NormalizePhone strips separators and validates the remaining digits.
func NormalizePhone(raw string) (string, bool) {
	phone := phoneCleaner.Replace(strings.TrimSpace(raw))
	if !phonePattern.MatchString(phone) {
		return "", false
	}
	return phone, true
}

// FormatLocation renders a shared location as the stored address.
func FormatLocation(loc domain.Location) string {
	return fmt.Sprintf("%.6f, %.6f", loc.Latitude, loc.Longitude)
}

// Checkout starts or completes checkout: it asks for the missing contact
// detail, or creates the order when phone and address are both known.
func (s *Shop) Checkout(ctx context.Context, userID int64) (CheckoutResult, error) {
	unlock, err := s.lock(ctx, locker.UserKey(userID))
	if err != nil {
		return CheckoutResult{}, err
	}
	defer unlock()

	var result CheckoutResult
	err = s.retryConflict(ctx, func() (err error) {
		result, err = s.checkout(ctx, userID)
		return err
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	return result, nil
}

func (s *Shop) checkout(ctx context.Context, userID int64) (CheckoutResult, error) {
	b, err := s.baskets.GetBasket(ctx, userID)
	if err != nil {
		return CheckoutResult{}, storeError("basket_read_error", err)
	}
	if b.IsEmpty() {
		return CheckoutResult{}, newError(ErrorEmptyBasket, "empty_basket", nil)
	}
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return CheckoutResult{}, err
	}

	switch {
	case !sess.HasPhone():
		sess.State = domain.StateAwaitingPhone
		saved, err := s.saveSession(ctx, sess)
		if err != nil {
			return CheckoutResult{}, err
		}
		return CheckoutResult{Step: StepAwaitPhone, Session: saved}, nil
	case !sess.HasAddress():
		sess.State = domain.StateAwaitingAddress
		saved, err := s.saveSession(ctx, sess)
		if err != nil {
			return CheckoutResult{}, err
		}
		return CheckoutResult{Step: StepAwaitAddress, Session: saved}, nil
	}

	sess.State = domain.StateIdle
	b.UserID = userID
	order, err := s.finalize(ctx, b, sess.Phone, sess.Address, &sess)
	if err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{Step: StepOrderCreated, Session: sess, Order: order}, nil
}

// SubmitPhone stores the shared phone while the session awaits it. Invalid
// input leaves the session unchanged.
func (s *Shop) SubmitPhone(ctx context.Context, userID int64, raw string) (CheckoutResult, error) {
	phone, ok := NormalizePhone(raw)
	unlock, err := s.lock(ctx, locker.UserKey(userID))
	if err != nil {
		return CheckoutResult{}, err
	}
	defer unlock()

	var saved domain.Session
	err = s.retryConflict(ctx, func() error {
		sess, err := s.Session(ctx, userID)
		if err != nil {
			return err
		}
		if sess.State != domain.StateAwaitingPhone {
			return newError(ErrorInvalidInput, "not_awaiting_phone", nil)
		}
		if !ok {
			return newError(ErrorInvalidInput, "invalid_phone", nil)
		}
		sess.Phone = phone
		sess.State = domain.StateAwaitingAddress
		if sess.HasAddress() {
			sess.State = domain.StateIdle
		}
		saved, err = s.saveSession(ctx, sess)
		return err
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	if saved.State == domain.StateAwaitingAddress {
		return CheckoutResult{Step: StepAwaitAddress, Session: saved}, nil
	}
	return s.completeCheckout(ctx, saved)
}

// SubmitAddress stores the shared location while the session awaits it and
// finalizes the order.
func (s *Shop) SubmitAddress(ctx context.Context, userID int64, loc domain.Location) (CheckoutResult, error) {
	if !validLocation(loc) {
		return CheckoutResult{}, newError(ErrorInvalidInput, "invalid_location", nil)
	}
	unlock, err := s.lock(ctx, locker.UserKey(userID))
	if err != nil {
		return CheckoutResult{}, err
	}
	defer unlock()

	var saved domain.Session
	err = s.retryConflict(ctx, func() error {
		sess, err := s.Session(ctx, userID)
		if err != nil {
			return err
		}
		if sess.State != domain.StateAwaitingAddress {
			return newError(ErrorInvalidInput, "not_awaiting_address", nil)
		}
		sess.Address = FormatLocation(loc)
		sess.State = domain.StateIdle
		saved, err = s.saveSession(ctx, sess)
		return err
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	return s.completeCheckout(ctx, saved)
}

// CreateFromBasket snapshots the user's basket into a PENDING order and
// clears the basket in the same write. The session is not modified.
func (s *Shop) CreateFromBasket(ctx context.Context, userID int64) (domain.Order, error) {
	unlock, err := s.lock(ctx, locker.UserKey(userID))
	if err != nil {
		return domain.Order{}, err
	}
	defer unlock()

	var order domain.Order
	err = s.retryConflict(ctx, func() (err error) {
		order, err = s.createFromBasket(ctx, userID)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Shop) createFromBasket(ctx context.Context, userID int64) (domain.Order, error) {
	b, err := s.baskets.GetBasket(ctx, userID)
	if err != nil {
		return domain.Order{}, storeError("basket_read_error", err)
	}
	if b.IsEmpty() {
		return domain.Order{}, newError(ErrorEmptyBasket, "empty_basket", nil)
	}
	b.UserID = userID

	var phone, address string
	sess, err := s.sessions.GetSession(ctx, userID)
	switch {
	case err == nil:
		phone, address = sess.Phone, sess.Address
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Order{}, storeError("session_read_error", err)
	}
	return s.finalize(ctx, b, phone, address, nil)
}

// completeCheckout runs with the user's lock held and sess already IDLE. A
// lost transaction is retried on a fresh read of the session and basket.
func (s *Shop) completeCheckout(ctx context.Context, sess domain.Session) (CheckoutResult, error) {
	var result CheckoutResult
	reread := false
	err := s.retryConflict(ctx, func() error {
		if reread {
			cur, err := s.Session(ctx, sess.UserID)
			if err != nil {
				return err
			}
			cur.State = domain.StateIdle
			sess = cur
		}
		reread = true

		b, err := s.baskets.GetBasket(ctx, sess.UserID)
		if err != nil {
			return storeError("basket_read_error", err)
		}
		if b.IsEmpty() {
			return newError(ErrorEmptyBasket, "empty_basket", nil)
		}
		b.UserID = sess.UserID
		order, err := s.finalize(ctx, b, sess.Phone, sess.Address, &sess)
		if err != nil {
			return err
		}
		result = CheckoutResult{Step: StepOrderCreated, Session: sess, Order: order}
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	return result, nil
}

// finalize freezes the live catalog data of every line and writes the order,
// the cleared basket and sess (when non-nil) in one transaction.
func (s *Shop) finalize(ctx context.Context, b domain.Basket, phone, address string, sess *domain.Session) (domain.Order, error) {
	lines, err := s.snapshotLines(ctx, b.Lines)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.now()
	order := domain.Order{
		ID:         newUUID(),
		UserID:     b.UserID,
		Status:     domain.OrderPending,
		Lines:      lines,
		TotalPrice: domain.SumLines(lines),
		Phone:      phone,
		Address:    address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	cleared := b.Clone()
	cleared.Clear()
	cleared.UpdatedAt = now
	if sess != nil {
		sess.UpdatedAt = now
	}

	if err := s.orders.SaveCheckout(ctx, order, cleared, sess); err != nil {
		return domain.Order{}, storeError("checkout_write_error", err)
	}
	if sess != nil {
		sess.Version++
	}
	return order, nil
}

func (s *Shop) snapshotLines(ctx context.Context, basketLines []domain.BasketLine) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, len(basketLines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, l := range basketLines {
		g.Go(func() error {
			p, err := s.product(gctx, l.ProductID)
			if err != nil {
				return err
			}
			lines[i] = domain.OrderLine{
				ProductID: p.ID,
				Name:      p.Name,
				UnitPrice: p.UnitPrice,
				Quantity:  l.Quantity,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}

func validLocation(loc domain.Location) bool {
	if math.IsNaN(loc.Latitude) || math.IsNaN(loc.Longitude) {
		return false
	}
	return loc.Latitude >= -90 && loc.Latitude <= 90 && loc.Longitude >= -180 && loc.Longitude <= 180
}
