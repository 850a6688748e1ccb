package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	keyAttr       = "entrypoint"
	attrExpiredAt = "expired_at"
	attrResponse  = "response"
)

// DynamoClient is the subset of the DynamoDB API the store uses.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps the single directory record in a DynamoDB table,
// keyed by the constant entrypoint attribute. Reads are strongly
// consistent; concurrent writers race last-writer-wins, accepted given
// the expiry granularity.
type DynamoStore struct {
	client DynamoClient
	table  string
	logger *slog.Logger
}

// NewDynamoStore creates a store over the given table.
func NewDynamoStore(log *slog.Logger, client DynamoClient, table string) *DynamoStore {
	if log == nil {
		log = slog.Default()
	}
	return &DynamoStore{
		client: client,
		table:  table,
		logger: log.With(slog.String("component", "directory_cache")),
	}
}

// Get reads the cache record. The second return is false when the
// record does not exist.
func (s *DynamoStore) Get(ctx context.Context) (Record, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            recordKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("get cache record: %w", err)
	}
	if len(out.Item) == 0 {
		return Record{}, false, nil
	}

	var rec Record
	if v, ok := out.Item[attrResponse].(*types.AttributeValueMemberS); ok {
		rec.Response = v.Value
	}
	if v, ok := out.Item[attrExpiredAt].(*types.AttributeValueMemberN); ok {
		if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			rec.ExpiresAt = n
		}
	}
	return rec, true, nil
}

// Put overwrites the cache record.
func (s *DynamoStore) Put(ctx context.Context, rec Record) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              recordKey(),
		UpdateExpression: aws.String("SET #E = :e, #R = :r"),
		ExpressionAttributeNames: map[string]string{
			"#E": attrExpiredAt,
			"#R": attrResponse,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.ExpiresAt, 10)},
			":r": &types.AttributeValueMemberS{Value: rec.Response},
		},
	})
	if err != nil {
		return fmt.Errorf("update cache record: %w", err)
	}
	return nil
}

func recordKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttr: &types.AttributeValueMemberS{Value: CacheKey},
	}
}
