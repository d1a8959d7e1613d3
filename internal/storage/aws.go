package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/campaign-insights/internal/anomaly"
)

// sortKeyLayout is fixed width so lexical order matches time order.
const sortKeyLayout = "2006-01-02T15:04:05Z"

// LoadAWSConfig loads the default AWS config chain for a region, optionally
// pinned to a shared config profile.
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}

// DynamoAPI is the subset of the DynamoDB client the archive uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBItem represents an archived anomaly stored in DynamoDB.
type DynamoDBItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
	TTL       int64  `dynamodbav:"TTL,omitempty"`
}

// AnomalyArchive keeps flagged anomalies in a single DynamoDB table,
// partitioned by group.
type AnomalyArchive struct {
	db        DynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewAnomalyArchive creates a DynamoDB-backed archive. A zero ttl uses
// DefaultRetention.
func NewAnomalyArchive(db DynamoAPI, tableName string, ttl time.Duration) *AnomalyArchive {
	if ttl <= 0 {
		ttl = DefaultRetention
	}
	return &AnomalyArchive{db: db, tableName: tableName, ttl: ttl, now: time.Now}
}

func partitionKey(group string) string {
	return "ANOMALY#" + group
}

// Save writes each anomaly under its group with the current detection time.
func (a *AnomalyArchive) Save(ctx context.Context, anomalies []anomaly.Anomaly) error {
	now := a.now().UTC()
	for _, an := range anomalies {
		data, err := json.Marshal(Record{Anomaly: an, DetectedAt: now})
		if err != nil {
			return fmt.Errorf("marshaling anomaly: %w", err)
		}

		item := DynamoDBItem{
			PK:        partitionKey(an.Group),
			SK:        now.Format(sortKeyLayout) + "#" + an.ID,
			Data:      string(data),
			Timestamp: now.Format(time.RFC3339),
			TTL:       now.Add(a.ttl).Unix(),
		}

		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("marshaling item: %w", err)
		}

		_, err = a.db.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(a.tableName),
			Item:      av,
		})
		if err != nil {
			return fmt.Errorf("putting item to DynamoDB: %w", err)
		}
	}
	return nil
}

// List returns anomalies archived for a group at or after since, oldest first.
// An anomaly archived by several digests appears once, at its latest detection.
func (a *AnomalyArchive) List(ctx context.Context, group string, since time.Time) ([]Record, error) {
	var (
		out   []Record
		start map[string]types.AttributeValue
	)
	for {
		result, err := a.db.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(a.tableName),
			KeyConditionExpression: aws.String("PK = :pk AND SK >= :since"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":    &types.AttributeValueMemberS{Value: partitionKey(group)},
				":since": &types.AttributeValueMemberS{Value: since.UTC().Format(sortKeyLayout)},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("querying DynamoDB: %w", err)
		}

		for _, item := range result.Items {
			var dbItem DynamoDBItem
			if err := attributevalue.UnmarshalMap(item, &dbItem); err != nil {
				return nil, fmt.Errorf("unmarshaling item: %w", err)
			}
			var rec Record
			if err := json.Unmarshal([]byte(dbItem.Data), &rec); err != nil {
				return nil, fmt.Errorf("decoding archived anomaly %s: %w", dbItem.SK, err)
			}
			out = append(out, rec)
		}

		if len(result.LastEvaluatedKey) == 0 {
			return latestByID(out), nil
		}
		start = result.LastEvaluatedKey
	}
}
