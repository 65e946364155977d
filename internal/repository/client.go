package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pharmacy-bot/internal/domain"
)

const (
	skSession  = "SESSION"
	skBasket   = "BASKET"
	skOrder    = "ORDER"
	skProduct  = "PRODUCT"
	pkCatalog  = "CATALOG"
	gsi1       = "GSI1"
	entityAttr = "entity"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client stores sessions, baskets, orders and the catalog in one DynamoDB
// table. Items are keyed by PK/SK; the GSI1 index lists a user's orders and a
// category's products.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func userPK(userID int64) string { return fmt.Sprintf("USER#%d", userID) }

func orderPK(orderID string) string { return "ORDER#" + orderID }

func productPK(productID int64) string { return fmt.Sprintf("PRODUCT#%d", productID) }

// categorySK zero-pads ids so sort keys order numerically.
func categorySK(categoryID int64) string { return fmt.Sprintf("CATEGORY#%012d", categoryID) }

func categoryGSI(categoryID int64) string { return fmt.Sprintf("CATEGORY#%d", categoryID) }

func keyOf(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// conditionFailed reports whether err is a failed condition of a single write
// or of any item in a transaction.
func conditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, r := range tce.CancellationReasons {
			if r.Code != nil && *r.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}

// writeError wraps a write failure, mapping lost conditions to domain.ErrConflict.
func writeError(op string, err error) error {
	if conditionFailed(err) {
		return fmt.Errorf("repository: %s: %w: %w", op, domain.ErrConflict, err)
	}
	return fmt.Errorf("repository: %s: %w", op, err)
}
