package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"pharmacy-bot/internal/domain"
)

// GetBasket reads the user's basket as one item. A missing item is an empty
// basket at version 0.
func (c *Client) GetBasket(ctx context.Context, userID int64) (domain.Basket, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            keyOf(userPK(userID), skBasket),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Basket{}, fmt.Errorf("repository: GetBasket get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Basket{UserID: userID}, nil
	}
	b, err := itemToBasket(out.Item)
	if err != nil {
		return domain.Basket{}, fmt.Errorf("repository: GetBasket unmarshal: %w", err)
	}
	return b, nil
}

func (c *Client) SaveBasket(ctx context.Context, b domain.Basket) (domain.Basket, error) {
	_, err := c.api.PutItem(ctx, c.basketPut(b).putItemInput())
	if err != nil {
		return domain.Basket{}, writeError("SaveBasket", err)
	}
	b.Version++
	return b, nil
}

func (c *Client) basketPut(b domain.Basket) versionedPut {
	next := b.Clone()
	next.Version++
	return versionedPut{
		table:    c.tableName,
		item:     basketItem(next),
		expected: b.Version,
	}
}
