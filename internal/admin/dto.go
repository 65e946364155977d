package admin

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/usecase"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type OrderLineResponse struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID         string              `json:"id"`
	UserID     int64               `json:"userId"`
	Status     domain.OrderStatus  `json:"status"`
	Lines      []OrderLineResponse `json:"lines"`
	TotalPrice decimal.Decimal     `json:"totalPrice"`
	Phone      string              `json:"phone"`
	Address    string              `json:"address"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

type BasketLineResponse struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Available bool            `json:"available"`
}

type BasketResponse struct {
	UserID int64                `json:"userId"`
	Lines  []BasketLineResponse `json:"lines"`
	Total  decimal.Decimal      `json:"total"`
}

type StatsResponse struct {
	TotalUsers    int                        `json:"totalUsers"`
	TotalProducts int                        `json:"totalProducts"`
	TotalOrders   int                        `json:"totalOrders"`
	Revenue       decimal.Decimal            `json:"revenue"`
	SuccessRate   decimal.Decimal            `json:"successRate"`
	ByStatus      map[domain.OrderStatus]int `json:"byStatus"`
}

func mapOrder(o domain.Order) OrderResponse {
	lines := make([]OrderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = OrderLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		}
	}
	return OrderResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Lines:      lines,
		TotalPrice: o.TotalPrice,
		Phone:      o.Phone,
		Address:    o.Address,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func mapBasket(v usecase.BasketView) BasketResponse {
	lines := make([]BasketLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = BasketLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal,
			Available: l.Available,
		}
	}
	return BasketResponse{UserID: v.UserID, Lines: lines, Total: v.Total}
}

func mapStats(s Stats) StatsResponse {
	return StatsResponse{
		TotalUsers:    s.TotalUsers,
		TotalProducts: s.TotalProducts,
		TotalOrders:   s.TotalOrders,
		Revenue:       s.Revenue,
		SuccessRate:   s.SuccessRate,
		ByStatus:      s.ByStatus,
	}
}
