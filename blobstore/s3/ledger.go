package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/entigo/blobstore"
)

// RunLedger records published runs in DynamoDB so that a run id is
// committed at most once, even with concurrent writers. S3 writes are
// last-writer-wins; the ledger's conditional put supplies the
// compare-and-swap semantics S3 lacks.
//
// Table schema:
//   - Partition key: namespace (string) - the artifact store prefix
//   - Sort key: run_id (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name entigo-runs \
//	  --attribute-definitions AttributeName=namespace,AttributeType=S AttributeName=run_id,AttributeType=S \
//	  --key-schema AttributeName=namespace,KeyType=HASH AttributeName=run_id,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type RunLedger struct {
	client    DDBClient
	tableName string
	namespace string
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ErrRunExists is returned when registering a run id that is already in
// the ledger.
var ErrRunExists = errors.New("run already registered")

// RunEntry is a committed ledger record.
type RunEntry struct {
	RunID     string
	Keys      []string
	CreatedAt time.Time
}

// NewRunLedger creates a ledger over the given DynamoDB table.
// namespace scopes entries to one artifact store, typically its S3
// bucket/prefix (e.g. "s3://my-bucket/entigo-runs").
func NewRunLedger(client DDBClient, tableName, namespace string) *RunLedger {
	return &RunLedger{
		client:    client,
		tableName: tableName,
		namespace: namespace,
	}
}

// Register commits a run id with the artifact keys it published.
// Returns ErrRunExists if the id was already committed, by this or any
// other writer.
func (l *RunLedger) Register(ctx context.Context, runID string, keys []string) error {
	avKeys := make([]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		avKeys = append(avKeys, &types.AttributeValueMemberS{Value: k})
	}

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item: map[string]types.AttributeValue{
			"namespace":     &types.AttributeValueMemberS{Value: l.namespace},
			"run_id":        &types.AttributeValueMemberS{Value: runID},
			"artifact_keys": &types.AttributeValueMemberL{Value: avKeys},
			"created_at":    &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(run_id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrRunExists
		}
		return fmt.Errorf("failed to register run: %w", err)
	}

	return nil
}

// Lookup returns the ledger entry for a run id.
// Returns blobstore.ErrNotFound if the run was never registered.
func (l *RunLedger) Lookup(ctx context.Context, runID string) (*RunEntry, error) {
	resp, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"namespace": &types.AttributeValueMemberS{Value: l.namespace},
			"run_id":    &types.AttributeValueMemberS{Value: runID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	if len(resp.Item) == 0 {
		return nil, blobstore.ErrNotFound
	}

	return decodeRunEntry(resp.Item)
}

// Runs returns all registered run ids in the namespace, in sort key order.
func (l *RunLedger) Runs(ctx context.Context) ([]string, error) {
	var ids []string
	var startKey map[string]types.AttributeValue

	for {
		resp, err := l.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                aws.String(l.tableName),
			KeyConditionExpression:   aws.String("#ns = :ns"),
			ExpressionAttributeNames: map[string]string{"#ns": "namespace"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":ns": &types.AttributeValueMemberS{Value: l.namespace},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query ledger: %w", err)
		}

		for _, item := range resp.Items {
			if idAttr, ok := item["run_id"].(*types.AttributeValueMemberS); ok {
				ids = append(ids, idAttr.Value)
			}
		}

		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	return ids, nil
}

// Delete removes a run's ledger entry, e.g. during retention cleanup.
// The run's artifacts are not touched.
func (l *RunLedger) Delete(ctx context.Context, runID string) error {
	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"namespace": &types.AttributeValueMemberS{Value: l.namespace},
			"run_id":    &types.AttributeValueMemberS{Value: runID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	return nil
}

func decodeRunEntry(item map[string]types.AttributeValue) (*RunEntry, error) {
	idAttr, ok := item["run_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("invalid run_id attribute in ledger item")
	}

	entry := &RunEntry{RunID: idAttr.Value}

	if keysAttr, ok := item["artifact_keys"].(*types.AttributeValueMemberL); ok {
		for _, av := range keysAttr.Value {
			if s, ok := av.(*types.AttributeValueMemberS); ok {
				entry.Keys = append(entry.Keys, s.Value)
			}
		}
	}

	if tsAttr, ok := item["created_at"].(*types.AttributeValueMemberN); ok {
		sec, err := strconv.ParseInt(tsAttr.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		entry.CreatedAt = time.Unix(sec, 0).UTC()
	}

	return entry, nil
}
