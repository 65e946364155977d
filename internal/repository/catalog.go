package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pharmacy-bot/internal/domain"
)

// Catalog reads categories and products authored outside the bot from the
// same table.
type Catalog struct {
	c *Client
}

func NewCatalog(c *Client) (*Catalog, error) {
	if c == nil {
		return nil, errors.New("repository: client must not be nil")
	}
	return &Catalog{c: c}, nil
}

func (cat *Catalog) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	out, err := cat.c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(cat.c.tableName),
		Key:       keyOf(productPK(productID), skProduct),
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("repository: GetProduct get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Product{}, fmt.Errorf("repository: GetProduct %d: %w", productID, domain.ErrNotFound)
	}
	p, err := itemToProduct(out.Item)
	if err != nil {
		return domain.Product{}, fmt.Errorf("repository: GetProduct unmarshal: %w", err)
	}
	return p, nil
}

func (cat *Catalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	items, err := cat.c.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(cat.c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     sAttr(pkCatalog),
			":prefix": sAttr("CATEGORY#"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListCategories query: %w", err)
	}
	cats := make([]domain.Category, 0, len(items))
	for _, item := range items {
		c, err := itemToCategory(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListCategories unmarshal: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, nil
}

func (cat *Catalog) ProductsInCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	items, err := cat.c.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(cat.c.tableName),
		IndexName:              aws.String(gsi1),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     sAttr(categoryGSI(categoryID)),
			":prefix": sAttr("PRODUCT#"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ProductsInCategory query: %w", err)
	}
	return toProducts("ProductsInCategory", items)
}

// SearchByName scans for products whose lower-cased name contains query.
func (cat *Catalog) SearchByName(ctx context.Context, query string) ([]domain.Product, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.Product{}, nil
	}
	items, err := cat.c.scanEntity(ctx, skProduct, "contains(nameLower, :q)", map[string]types.AttributeValue{
		":q": sAttr(q),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: SearchByName scan: %w", err)
	}
	products, err := toProducts("SearchByName", items)
	if err != nil {
		return nil, err
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// PutCategory and PutProduct seed the catalog for local runs.
func (cat *Catalog) CountProducts(ctx context.Context) (int, error) {
	n, err := cat.c.countEntity(ctx, skProduct)
	if err != nil {
		return 0, fmt.Errorf("repository: CountProducts: %w", err)
	}
	return n, nil
}

func (cat *Catalog) PutCategory(ctx context.Context, c domain.Category) error {
	_, err := cat.c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(cat.c.tableName),
		Item:      categoryItem(c),
	})
	if err != nil {
		return fmt.Errorf("repository: PutCategory: %w", err)
	}
	return nil
}

func (cat *Catalog) PutProduct(ctx context.Context, p domain.Product) error {
	_, err := cat.c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(cat.c.tableName),
		Item:      productItem(p),
	})
	if err != nil {
		return fmt.Errorf("repository: PutProduct: %w", err)
	}
	return nil
}

func (c *Client) queryAll(ctx context.Context, in *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	p := dynamodb.NewQueryPaginator(c.api, in)
	var items []map[string]types.AttributeValue
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func toProducts(op string, items []map[string]types.AttributeValue) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		p, err := itemToProduct(item)
		if err != nil {
			return nil, fmt.Errorf("repository: %s unmarshal: %w", op, err)
		}
		products = append(products, p)
	}
	return products, nil
}
