// Package eventstore implements the downstream event store the outbox
// relay writes into: a DynamoDB table consumed by the subscription fan-out.
package eventstore

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/skyready/logbook-sync/internal/server/models"
)

// Events are kept for audit and replay far beyond the sync window.
const defaultRetention = 5 * 365 * 24 * time.Hour

// Seams for testing the AWS wiring.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newDynamoClientFromConfig = func(cfg aws.Config, optFns ...func(*dynamodb.Options)) *dynamodb.Client {
		return dynamodb.NewFromConfig(cfg, optFns...)
	}
)

// Options configures the DynamoDB client. AccessKey/SecretKey are used as
// static credentials when set (local endpoints); otherwise the default
// provider chain applies.
type Options struct {
	Table        string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Retention    time.Duration
}

// DynamoStore writes outbox events as DynamoDB items with a retention TTL.
type DynamoStore struct {
	client    *dynamodb.Client
	table     string
	retention time.Duration
}

func NewDynamoStore(ctx context.Context, opts Options) (*DynamoStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := newDynamoClientFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
	})

	retention := opts.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	return &DynamoStore{client: client, table: opts.Table, retention: retention}, nil
}

// Put writes one event item. The payload is re-encoded attribute by
// attribute because the table rejects binary floats; see payloadAttribute.
func (s *DynamoStore) Put(ctx context.Context, ev *models.OutboxEvent) error {
	payload, err := payloadAttribute(ev.Payload)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.retention).Unix()

	item := map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: strconv.FormatInt(ev.ID, 10)},
		"type":      &types.AttributeValueMemberS{Value: ev.EventType},
		"userId":    &types.AttributeValueMemberS{Value: ev.UserID},
		"payload":   payload,
		"timestamp": &types.AttributeValueMemberN{Value: strconv.FormatInt(ev.CreatedAt.UnixMilli(), 10)},
		"expiresAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)},
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return err
}
