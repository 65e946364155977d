package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"pharmacy-bot/internal/domain"
)

// Catalog is a mutable in-memory product source.
type Catalog struct {
	mu         sync.RWMutex
	categories []domain.Category
	products   map[int64]domain.Product
}

func NewCatalog() *Catalog {
	return &Catalog{products: make(map[int64]domain.Product)}
}

func (c *Catalog) AddCategory(cat domain.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.categories {
		if existing.ID == cat.ID {
			c.categories[i] = cat
			return
		}
	}
	c.categories = append(c.categories, cat)
}

// AddProduct inserts or replaces p.
func (c *Catalog) AddProduct(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *Catalog) SetPrice(productID int64, price decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok {
		return fmt.Errorf("memstore: product %d: %w", productID, domain.ErrNotFound)
	}
	p.UnitPrice = price
	c.products[productID] = p
	return nil
}

func (c *Catalog) RemoveProduct(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, productID)
}

func (c *Catalog) GetProduct(_ context.Context, productID int64) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (c *Catalog) CountProducts(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products), nil
}

func (c *Catalog) ListCategories(_ context.Context) ([]domain.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Category(nil), c.categories...), nil
}

func (c *Catalog) ProductsInCategory(_ context.Context, categoryID int64) ([]domain.Product, error) {
	return c.filter(func(p domain.Product) bool { return p.CategoryID == categoryID }), nil
}

// SearchByName matches a case-insensitive substring of the product name.
func (c *Catalog) SearchByName(_ context.Context, query string) ([]domain.Product, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return c.filter(func(p domain.Product) bool {
		return q != "" && strings.Contains(strings.ToLower(p.Name), q)
	}), nil
}

func (c *Catalog) filter(keep func(domain.Product) bool) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, 0)
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
