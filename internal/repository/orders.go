package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pharmacy-bot/internal/domain"
)

func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            keyOf(orderPK(orderID), skOrder),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("repository: GetOrder get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Order{}, fmt.Errorf("repository: GetOrder %s: %w", orderID, domain.ErrNotFound)
	}
	o, err := itemToOrder(out.Item)
	if err != nil {
		return domain.Order{}, fmt.Errorf("repository: GetOrder unmarshal: %w", err)
	}
	return o, nil
}

// ListOrdersByUser queries GSI1 for the user's orders, newest first.
func (c *Client) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	p := dynamodb.NewQueryPaginator(c.api, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		IndexName:              aws.String(gsi1),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     sAttr(userPK(userID)),
			":prefix": sAttr("ORDER#"),
		},
		ScanIndexForward: aws.Bool(false),
	})
	orders := make([]domain.Order, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("repository: ListOrdersByUser query: %w", err)
		}
		for _, item := range page.Items {
			o, err := itemToOrder(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ListOrdersByUser unmarshal: %w", err)
			}
			orders = append(orders, o)
		}
	}
	return orders, nil
}

// ListOrders scans every order of the table. Used by admin reporting only.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	items, err := c.scanEntity(ctx, skOrder, "", nil)
	if err != nil {
		return nil, fmt.Errorf("repository: ListOrders: %w", err)
	}
	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		o, err := itemToOrder(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListOrders unmarshal: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order from one status to another with a
// conditional update.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, at time.Time) (domain.Order, error) {
	out, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(c.tableName),
		Key:                 keyOf(orderPK(orderID), skOrder),
		UpdateExpression:    aws.String("SET #status = :to, updated = :at"),
		ConditionExpression: aws.String("attribute_exists(PK) AND #status = :from"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":   sAttr(string(to)),
			":from": sAttr(string(from)),
			":at":   timeAttr(at),
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) && len(ccf.Item) == 0 {
			return domain.Order{}, fmt.Errorf("repository: UpdateOrderStatus %s: %w", orderID, domain.ErrNotFound)
		}
		return domain.Order{}, writeError("UpdateOrderStatus", err)
	}
	o, err := itemToOrder(out.Attributes)
	if err != nil {
		return domain.Order{}, fmt.Errorf("repository: UpdateOrderStatus unmarshal: %w", err)
	}
	return o, nil
}

// SaveCheckout writes the new order, the cleared basket and optionally the
// session in one transaction.
func (c *Client) SaveCheckout(ctx context.Context, order domain.Order, basket domain.Basket, session *domain.Session) error {
	if order.ID == "" {
		return errors.New("repository: SaveCheckout: order id is required")
	}
	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(c.tableName),
				Item:                orderItem(order),
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			},
		},
		c.basketPut(basket).transactItem(),
	}
	if session != nil {
		items = append(items, c.sessionPut(*session).transactItem())
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return writeError("SaveCheckout", err)
	}
	return nil
}

// scanEntity scans all pages for items of one entity type, optionally
// narrowed by an extra filter.
func (c *Client) scanEntity(ctx context.Context, entity, filter string, vals map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
	expr := "#entity = :entity"
	if filter != "" {
		expr += " AND " + filter
	}
	values := map[string]types.AttributeValue{":entity": sAttr(entity)}
	for k, v := range vals {
		values[k] = v
	}
	p := dynamodb.NewScanPaginator(c.api, &dynamodb.ScanInput{
		TableName:                 aws.String(c.tableName),
		FilterExpression:          aws.String(expr),
		ExpressionAttributeNames:  map[string]string{"#entity": entityAttr},
		ExpressionAttributeValues: values,
	})
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

// countEntity counts the items of one entity type without reading them.
func (c *Client) countEntity(ctx context.Context, entity string) (int, error) {
	p := dynamodb.NewScanPaginator(c.api, &dynamodb.ScanInput{
		TableName:                 aws.String(c.tableName),
		FilterExpression:          aws.String("#entity = :entity"),
		ExpressionAttributeNames:  map[string]string{"#entity": entityAttr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":entity": sAttr(entity)},
		Select:                    types.SelectCount,
	})
	n := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		n += int(page.Count)
	}
	return n, nil
}
