package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsv2xray "github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

const (
	metaSK        = "META"
	userIndexName = "GSI1"
	timeLayout    = time.RFC3339Nano
)

// API is the subset of the DynamoDB client the identity stores use.
type API interface {
	GetItem(ctx context.Context, in *awsv2dynamodb.GetItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *awsv2dynamodb.PutItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *awsv2dynamodb.UpdateItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *awsv2dynamodb.DeleteItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *awsv2dynamodb.QueryInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *awsv2dynamodb.ScanInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *awsv2dynamodb.TransactWriteItemsInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.TransactWriteItemsOutput, error)
}

type Client struct {
	db        API
	tableName string
	metrics   ports.StoreMetrics
	now       func() time.Time
}

func NewClient(ctx context.Context, region, tableName string, metrics ports.StoreMetrics) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	awsv2xray.AWSV2Instrumentor(&cfg.APIOptions)
	return NewClientWithAPI(awsv2dynamodb.NewFromConfig(cfg), tableName, metrics), nil
}

func NewClientWithAPI(api API, tableName string, metrics ports.StoreMetrics) *Client {
	return &Client{db: api, tableName: tableName, metrics: metrics, now: func() time.Time { return time.Now().UTC() }}
}

func userPK(id int64) string           { return "USER#" + strconv.FormatInt(id, 10) }
func rolePK(id int64) string           { return "ROLE#" + strconv.FormatInt(id, 10) }
func usernamePK(username string) string { return "USERNAME#" + username }
func counterPK(kind string) string     { return "COUNTER#" + kind }

func itemKey(pk string) map[string]awsv2types.AttributeValue {
	return map[string]awsv2types.AttributeValue{
		"PK": &awsv2types.AttributeValueMemberS{Value: pk},
		"SK": &awsv2types.AttributeValueMemberS{Value: metaSK},
	}
}

func isConditionalCheckFailure(err error) bool {
	var condErr *awsv2types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

func (c *Client) capture(ctx context.Context, segment string, fn func(context.Context) error) error {
	return xray.Capture(ctx, "DynamoDB."+segment, fn)
}

func (c *Client) observe(entity, op string, err error) {
	if c.metrics != nil {
		c.metrics.ObserveStoreOperation(entity, op, err)
	}
}

// fail records the failed call and hides the SDK error behind the domain kind.
func (c *Client) fail(entity, op string, err error) error {
	c.observe(entity, op, err)
	return domain.NewDatabaseError(entity+"."+op, err)
}

// nextID increments the per-kind counter item and returns the new value.
func (c *Client) nextID(ctx context.Context, kind string) (int64, error) {
	var out *awsv2dynamodb.UpdateItemOutput
	err := c.capture(ctx, "NextID", func(ctx context.Context) error {
		var e error
		out, e = c.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName:        aws.String(c.tableName),
			Key:              itemKey(counterPK(kind)),
			UpdateExpression: aws.String("ADD Seq :one"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":one": &awsv2types.AttributeValueMemberN{Value: "1"},
			},
			ReturnValues: awsv2types.ReturnValueUpdatedNew,
		})
		return e
	})
	if err != nil {
		return 0, err
	}
	var seq struct {
		Seq int64 `dynamodbav:"Seq"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &seq); err != nil {
		return 0, fmt.Errorf("decode counter: %w", err)
	}
	return seq.Seq, nil
}

func (c *Client) getItem(ctx context.Context, segment, pk string) (map[string]awsv2types.AttributeValue, error) {
	var out *awsv2dynamodb.GetItemOutput
	err := c.capture(ctx, segment, func(ctx context.Context) error {
		var e error
		out, e = c.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName:      aws.String(c.tableName),
			Key:            itemKey(pk),
			ConsistentRead: aws.Bool(true),
		})
		return e
	})
	if err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *Client) scanEntities(ctx context.Context, segment, entityType string) ([]map[string]awsv2types.AttributeValue, error) {
	var items []map[string]awsv2types.AttributeValue
	err := c.capture(ctx, segment, func(ctx context.Context) error {
		pages := awsv2dynamodb.NewScanPaginator(c.db, &awsv2dynamodb.ScanInput{
			TableName:        aws.String(c.tableName),
			FilterExpression: aws.String("EntityType = :t"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":t": &awsv2types.AttributeValueMemberS{Value: entityType},
			},
		})
		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				return err
			}
			items = append(items, page.Items...)
		}
		return nil
	})
	return items, err
}

func (c *Client) queryUserIndex(ctx context.Context, segment, pk string) ([]map[string]awsv2types.AttributeValue, error) {
	var items []map[string]awsv2types.AttributeValue
	err := c.capture(ctx, segment, func(ctx context.Context) error {
		pages := awsv2dynamodb.NewQueryPaginator(c.db, &awsv2dynamodb.QueryInput{
			TableName:              aws.String(c.tableName),
			IndexName:              aws.String(userIndexName),
			KeyConditionExpression: aws.String("GSI1PK = :pk"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":pk": &awsv2types.AttributeValueMemberS{Value: pk},
			},
		})
		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				return err
			}
			items = append(items, page.Items...)
		}
		return nil
	})
	return items, err
}

// updateExpr accumulates "SET #a = :a" clauses for the present fields of a form.
type updateExpr struct {
	sets   []string
	names  map[string]string
	values map[string]awsv2types.AttributeValue
}

func newUpdateExpr() *updateExpr {
	return &updateExpr{names: map[string]string{}, values: map[string]awsv2types.AttributeValue{}}
}

func (u *updateExpr) set(attr string, value awsv2types.AttributeValue) {
	placeholder := strings.ToLower(attr)
	u.sets = append(u.sets, fmt.Sprintf("#%s = :%s", placeholder, placeholder))
	u.names["#"+placeholder] = attr
	u.values[":"+placeholder] = value
}

func (u *updateExpr) empty() bool { return len(u.sets) == 0 }

// expression appends UpdatedAt and returns the final SET clause.
func (u *updateExpr) expression(updatedAt time.Time) string {
	u.names["#updatedat"] = "UpdatedAt"
	u.values[":updatedat"] = stringAV(updatedAt.Format(timeLayout))
	return "SET " + strings.Join(append(u.sets, "#updatedat = :updatedat"), ", ")
}

func stringAV(v string) awsv2types.AttributeValue {
	return &awsv2types.AttributeValueMemberS{Value: v}
}

func parseTime(raw string) time.Time {
	t, _ := time.Parse(timeLayout, raw)
	return t
}

func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}
