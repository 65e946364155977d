package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pharmacy-bot/internal/domain"
)

// GetSession reads the user's session with a consistent read.
func (c *Client) GetSession(ctx context.Context, userID int64) (domain.Session, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            keyOf(userPK(userID), skSession),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Session{}, fmt.Errorf("repository: GetSession %d: %w", userID, domain.ErrNotFound)
	}
	s, err := itemToSession(out.Item)
	if err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession unmarshal: %w", err)
	}
	return s, nil
}

// CreateSession stores a first session at version 1. It fails with
// domain.ErrConflict when the user already has one.
func (c *Client) CreateSession(ctx context.Context, s domain.Session) (domain.Session, error) {
	s.Version = 1
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                sessionItem(s),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return domain.Session{}, writeError("CreateSession", err)
	}
	return s, nil
}

// SaveSession replaces the session if its stored version still equals
// s.Version, and returns it with the next version.
func (c *Client) SaveSession(ctx context.Context, s domain.Session) (domain.Session, error) {
	_, err := c.api.PutItem(ctx, c.sessionPut(s).putItemInput())
	if err != nil {
		return domain.Session{}, writeError("SaveSession", err)
	}
	s.Version++
	return s, nil
}

// CountUsers counts stored sessions, one per user who contacted the bot.
func (c *Client) CountUsers(ctx context.Context) (int, error) {
	n, err := c.countEntity(ctx, skSession)
	if err != nil {
		return 0, fmt.Errorf("repository: CountUsers: %w", err)
	}
	return n, nil
}

func (c *Client) sessionPut(s domain.Session) versionedPut {
	next := s
	next.Version++
	return versionedPut{
		table:    c.tableName,
		item:     sessionItem(next),
		expected: s.Version,
		mustHave: true,
	}
}

// versionedPut is a put guarded by the version of the item it replaces. A
// zero expected version without mustHave requires the item to be absent.
type versionedPut struct {
	table    string
	item     map[string]types.AttributeValue
	expected int64
	mustHave bool
}

func (p versionedPut) condition() (string, map[string]string, map[string]types.AttributeValue) {
	if p.expected == 0 && !p.mustHave {
		return "attribute_not_exists(PK)", nil, nil
	}
	return "#ver = :v",
		map[string]string{"#ver": "version"},
		map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(p.expected, 10)},
		}
}

func (p versionedPut) putItemInput() *dynamodb.PutItemInput {
	cond, names, vals := p.condition()
	return &dynamodb.PutItemInput{
		TableName:                 aws.String(p.table),
		Item:                      p.item,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: vals,
	}
}

func (p versionedPut) transactItem() types.TransactWriteItem {
	cond, names, vals := p.condition()
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                 aws.String(p.table),
		Item:                      p.item,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: vals,
	}}
}
