package coupons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/JaimeStill/warden/pkg/pagination"
)

// DynamoAPI is the subset of *dynamodb.Client used by the DynamoDB store.
type DynamoAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// item is the stored shape. Timestamps are strings because records are
// written by several tools with differing ISO 8601 formats.
type item struct {
	ID          string   `dynamodbav:"id"`
	Code        string   `dynamodbav:"code"`
	Status      string   `dynamodbav:"status"`
	Rewards     []Reward `dynamodbav:"rewards,omitempty"`
	Votes       Votes    `dynamodbav:"votes"`
	SubmittedBy string   `dynamodbav:"submittedBy,omitempty"`
	AddedOn     string   `dynamodbav:"addedOn,omitempty"`
	LastUpdated string   `dynamodbav:"lastUpdated,omitempty"`
	ExpiredOn   string   `dynamodbav:"expiredOn,omitempty"`
}

func (i item) coupon() Coupon {
	c := Coupon{
		ID:          i.ID,
		Code:        i.Code,
		Status:      Status(i.Status),
		Rewards:     i.Rewards,
		Votes:       i.Votes,
		SubmittedBy: i.SubmittedBy,
		AddedOn:     ParseTimestamp(i.AddedOn),
		LastUpdated: ParseTimestamp(i.LastUpdated),
	}
	if c.Rewards == nil {
		c.Rewards = []Reward{}
	}
	if t := ParseTimestamp(i.ExpiredOn); !t.IsZero() {
		c.ExpiredOn = &t
	}
	return c
}

type dynamoStore struct {
	api    DynamoAPI
	table  string
	logger *slog.Logger
}

// NewDynamoStore creates a Store backed by a single DynamoDB table keyed on id.
func NewDynamoStore(api DynamoAPI, table string, logger *slog.Logger) Store {
	return &dynamoStore{
		api:    api,
		table:  table,
		logger: logger.With("store", "dynamodb", "table", table),
	}
}

// ScanByStatus projects only id, code, and status so that records with
// unexpected reward or vote shapes cannot fail the scan.
func (s *dynamoStore) ScanByStatus(ctx context.Context, status Status) ([]Coupon, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("status").Equal(expression.Value(string(status)))).
		WithProjection(expression.NamesList(
			expression.Name("id"),
			expression.Name("code"),
			expression.Name("status"),
		)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build scan expression: %w", err)
	}

	items, err := s.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.table),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	result := make([]Coupon, 0, len(items))
	for _, it := range items {
		result = append(result, it.coupon())
	}
	return result, nil
}

// List scans the full table, filters and orders by addedOn descending in
// memory, then slices the requested page.
func (s *dynamoStore) List(
	ctx context.Context,
	page pagination.Request,
	filters Filters,
) (*pagination.Result[Coupon], error) {
	items, err := s.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(s.table)})
	if err != nil {
		return nil, err
	}

	matched := make([]Coupon, 0, len(items))
	for _, it := range items {
		c := it.coupon()
		if filters.Matches(c, page.Search) {
			matched = append(matched, c)
		}
	}

	slices.SortStableFunc(matched, func(a, b Coupon) int {
		return b.AddedOn.Compare(a.AddedOn)
	})

	result := pagination.Slice(matched, page)
	return &result, nil
}

func (s *dynamoStore) Find(ctx context.Context, id string) (*Coupon, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get coupon %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("decode coupon %s: %w", id, err)
	}

	c := it.coupon()
	return &c, nil
}

func (s *dynamoStore) Expire(ctx context.Context, id string, at time.Time) error {
	ts := FormatTimestamp(at)

	expr, err := expression.NewBuilder().
		WithUpdate(expression.
			Set(expression.Name("status"), expression.Value(string(StatusExpired))).
			Set(expression.Name("lastUpdated"), expression.Value(ts)).
			Set(expression.Name("expiredOn"), expression.Value(ts))).
		WithCondition(expression.Name("status").Equal(expression.Value(string(StatusValid)))).
		Build()
	if err != nil {
		return fmt.Errorf("build expire expression: %w", err)
	}

	_, err = s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotValid
		}
		return fmt.Errorf("expire coupon %s: %w", id, err)
	}

	return nil
}

func (s *dynamoStore) Vote(ctx context.Context, cmd VoteCommand, at time.Time) (*Coupon, error) {
	up, down := cmd.Deltas()

	update := expression.Set(expression.Name("lastUpdated"), expression.Value(FormatTimestamp(at)))
	if up != 0 {
		update = update.Set(expression.Name("votes.up"), expression.Name("votes.up").Plus(expression.Value(up)))
	}
	if down != 0 {
		update = update.Set(expression.Name("votes.down"), expression.Name("votes.down").Plus(expression.Value(down)))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build vote expression: %w", err)
	}

	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key(cmd.CouponID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("vote coupon %s: %w", cmd.CouponID, err)
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return nil, fmt.Errorf("decode coupon %s: %w", cmd.CouponID, err)
	}

	c := it.coupon()
	return &c, nil
}

// scan follows LastEvaluatedKey until the table is exhausted.
func (s *dynamoStore) scan(ctx context.Context, in *dynamodb.ScanInput) ([]item, error) {
	var items []item
	pages := 0

	for {
		out, err := s.api.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		pages++

		var batch []item
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode scan page %d: %w", pages, err)
		}
		items = append(items, batch...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}

	s.logger.Debug("scan complete", "items", len(items), "pages", pages)
	return items, nil
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
