package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderDelivered OrderStatus = "DELIVERED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderDelivered},
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
// CANCELLED and DELIVERED are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderCancelled, OrderDelivered:
		return true
	}
	return false
}

// OrderLine freezes catalog data at checkout time.
type OrderLine struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is created once from a basket; only Status and UpdatedAt change afterwards.
type Order struct {
	ID         string
	UserID     int64
	Status     OrderStatus
	Lines      []OrderLine
	TotalPrice decimal.Decimal
	Phone      string
	Address    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SumLines totals frozen line values.
func SumLines(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
