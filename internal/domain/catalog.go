package domain

import "github.com/shopspring/decimal"

// Category groups products in the catalog menu.
type Category struct {
	ID   int64
	Name string
}

// Product is a catalog record. The core reads products but never writes them.
type Product struct {
	ID                int64
	CategoryID        int64
	Name              string
	Description       string
	ImageURL          string
	UnitPrice         decimal.Decimal
	AvailableQuantity int
}
