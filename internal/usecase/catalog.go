package usecase

import (
	"context"
	"errors"
	"strings"

	"pharmacy-bot/internal/domain"
)

func (s *Shop) Categories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, newError(ErrorUnavailable, "catalog_error", err)
	}
	return cats, nil
}

func (s *Shop) CategoryProducts(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	products, err := s.catalog.ProductsInCategory(ctx, categoryID)
	if err != nil {
		return nil, newError(ErrorUnavailable, "catalog_error", err)
	}
	return products, nil
}

func (s *Shop) Product(ctx context.Context, productID int64) (domain.Product, error) {
	return s.product(ctx, productID)
}

// Search matches products by name. An empty query is INVALID_INPUT.
func (s *Shop) Search(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(ErrorInvalidInput, "empty_query", nil)
	}
	products, err := s.catalog.SearchByName(ctx, query)
	if err != nil {
		return nil, newError(ErrorUnavailable, "catalog_error", err)
	}
	return products, nil
}

func (s *Shop) product(ctx context.Context, productID int64) (domain.Product, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Product{}, newError(ErrorProductNotFound, "product_not_found", err)
	}
	if err != nil {
		return domain.Product{}, newError(ErrorUnavailable, "catalog_error", err)
	}
	return p, nil
}
