package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/locker"
)

// BasketLineView is a basket line priced with the live catalog.
type BasketLineView struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
	// Available is false when the product is gone from the catalog. Such lines
	// are rendered but excluded from Total.
	Available bool
}

type BasketView struct {
	UserID int64
	Lines  []BasketLineView
	Total  decimal.Decimal
}

func (v BasketView) IsEmpty() bool { return len(v.Lines) == 0 }

// AddToBasket adds one unit of productID, creating the line when absent. The
// catalog is only consulted for a new line.
func (s *Shop) AddToBasket(ctx context.Context, userID, productID int64) (domain.Basket, error) {
	return s.mutateBasket(ctx, userID, func(b *domain.Basket) (bool, error) {
		if b.Quantity(productID) == 0 {
			if _, err := s.product(ctx, productID); err != nil {
				return false, err
			}
		}
		b.Add(productID)
		return true, nil
	})
}

// IncreaseItem adds one unit to an existing line. An absent line is left alone.
func (s *Shop) IncreaseItem(ctx context.Context, userID, productID int64) (BasketView, error) {
	return s.mutateAndView(ctx, userID, func(b *domain.Basket) (bool, error) {
		return b.Increase(productID), nil
	})
}

// DecreaseItem removes one unit; a line at quantity 1 is dropped.
func (s *Shop) DecreaseItem(ctx context.Context, userID, productID int64) (BasketView, error) {
	return s.mutateAndView(ctx, userID, func(b *domain.Basket) (bool, error) {
		return b.Decrease(productID), nil
	})
}

func (s *Shop) RemoveItem(ctx context.Context, userID, productID int64) (BasketView, error) {
	return s.mutateAndView(ctx, userID, func(b *domain.Basket) (bool, error) {
		return b.Remove(productID), nil
	})
}

func (s *Shop) ClearBasket(ctx context.Context, userID int64) error {
	_, err := s.mutateBasket(ctx, userID, func(b *domain.Basket) (bool, error) {
		if b.IsEmpty() {
			return false, nil
		}
		b.Clear()
		return true, nil
	})
	return err
}

// ViewBasket prices one consistent read of the basket with live catalog data.
func (s *Shop) ViewBasket(ctx context.Context, userID int64) (BasketView, error) {
	b, err := s.baskets.GetBasket(ctx, userID)
	if err != nil {
		return BasketView{}, storeError("basket_read_error", err)
	}
	b.UserID = userID
	return s.priceBasket(ctx, b)
}

// BasketTotal is the live price total of the available lines.
func (s *Shop) BasketTotal(ctx context.Context, userID int64) (decimal.Decimal, error) {
	v, err := s.ViewBasket(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Total, nil
}

func (s *Shop) mutateAndView(ctx context.Context, userID int64, fn func(*domain.Basket) (bool, error)) (BasketView, error) {
	b, err := s.mutateBasket(ctx, userID, fn)
	if err != nil {
		return BasketView{}, err
	}
	return s.priceBasket(ctx, b)
}

// mutateBasket runs fn on the stored basket under the user's lock and saves
// the result when fn reports a change. A write lost to another process is
// retried on a fresh read.
func (s *Shop) mutateBasket(ctx context.Context, userID int64, fn func(*domain.Basket) (bool, error)) (domain.Basket, error) {
	unlock, err := s.lock(ctx, locker.UserKey(userID))
	if err != nil {
		return domain.Basket{}, err
	}
	defer unlock()

	var result domain.Basket
	err = s.retryConflict(ctx, func() error {
		b, err := s.baskets.GetBasket(ctx, userID)
		if err != nil {
			return storeError("basket_read_error", err)
		}
		b.UserID = userID
		changed, err := fn(&b)
		if err != nil || !changed {
			result = b
			return err
		}
		b.UpdatedAt = s.now()
		saved, err := s.baskets.SaveBasket(ctx, b)
		if err != nil {
			return storeError("basket_write_error", err)
		}
		result = saved
		return nil
	})
	if err != nil {
		return domain.Basket{}, err
	}
	return result, nil
}

func (s *Shop) priceBasket(ctx context.Context, b domain.Basket) (BasketView, error) {
	lines := make([]BasketLineView, len(b.Lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, l := range b.Lines {
		g.Go(func() error {
			lines[i] = BasketLineView{ProductID: l.ProductID, Quantity: l.Quantity}
			p, err := s.catalog.GetProduct(gctx, l.ProductID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			lines[i].Name = p.Name
			lines[i].UnitPrice = p.UnitPrice
			lines[i].Subtotal = p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			lines[i].Available = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BasketView{}, newError(ErrorUnavailable, "catalog_error", err)
	}

	total := decimal.Zero
	for _, l := range lines {
		if l.Available {
			total = total.Add(l.Subtotal)
		}
	}
	return BasketView{UserID: b.UserID, Lines: lines, Total: total}, nil
}
