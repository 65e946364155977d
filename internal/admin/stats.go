package admin

import (
	"github.com/shopspring/decimal"

	"pharmacy-bot/internal/domain"
)

// Stats summarizes all orders. TotalUsers and TotalProducts are filled in by
// the report handler.
type Stats struct {
	TotalUsers    int
	TotalProducts int
	TotalOrders   int
	// Revenue sums the totals of orders that were not cancelled.
	Revenue decimal.Decimal
	// SuccessRate is the share of delivered orders in percent, two decimals.
	SuccessRate decimal.Decimal
	ByStatus    map[domain.OrderStatus]int
}

func ComputeStats(orders []domain.Order) Stats {
	st := Stats{
		TotalOrders: len(orders),
		Revenue:     decimal.Zero,
		SuccessRate: decimal.Zero,
		ByStatus: map[domain.OrderStatus]int{
			domain.OrderPending:   0,
			domain.OrderConfirmed: 0,
			domain.OrderCancelled: 0,
			domain.OrderDelivered: 0,
		},
	}
	for _, o := range orders {
		st.ByStatus[o.Status]++
		if o.Status != domain.OrderCancelled {
			st.Revenue = st.Revenue.Add(o.TotalPrice)
		}
	}
	if st.TotalOrders > 0 {
		delivered := decimal.NewFromInt(int64(st.ByStatus[domain.OrderDelivered]))
		st.SuccessRate = delivered.Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(st.TotalOrders))).Round(2)
	}
	return st
}
