/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/suparena/estatestore/datastore"
	storeerrors "github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// Reserved item attributes of the single-table layout.
const (
	attrPK  = "PK"  // collection name
	attrSK  = "SK"  // record id
	attrRev = "_rev" // revision token, replaced on every write
)

// timeLayout keeps a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultMaxAttempts is the number of times a conflicting transaction is run.
const DefaultMaxAttempts = 5

// API is the subset of the DynamoDB client used by Store. *dynamodb.Client
// satisfies it.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error)
}

// Store implements datastore.DocumentStore on a single DynamoDB table keyed by
// PK (collection) and SK (record id).
type Store struct {
	client      API
	tableName   string
	maxAttempts int
	maxRetries  int
	backoff     time.Duration
	clock       func() time.Time
	newID       func() string
	logger      *slog.Logger
}

var _ datastore.DocumentStore = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithMaxAttempts sets how many times a conflicting transaction is run
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetry sets the retry budget for throttled reads
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(s *Store) {
		s.maxRetries = maxRetries
		s.backoff = backoff
	}
}

// WithClock sets the time source used for server timestamps
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithIDFunc sets the generator for store-assigned ids
func WithIDFunc(f func() string) Option {
	return func(s *Store) {
		s.newID = f
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With("component", "datastore.ddb")
		}
	}
}

// ClientConfig holds the settings for NewDynamoDBClient.
type ClientConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are used when
// both keys are set; otherwise the default credential chain applies.
func NewDynamoDBClient(ctx context.Context, cc ClientConfig) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cc.Region)}
	if cc.AccessKey != "" && cc.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKey, cc.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	}), nil
}

// New constructs a Store over an existing client.
func New(client API, tableName string, opts ...Option) *Store {
	s := &Store{
		client:      client,
		tableName:   tableName,
		maxAttempts: DefaultMaxAttempts,
		maxRetries:  3,
		backoff:     200 * time.Millisecond,
		clock:       time.Now,
		newID:       func() string { return uuid.NewString() },
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDynamodbStore connects to DynamoDB and constructs a Store for tableName.
func NewDynamodbStore(ctx context.Context, cc ClientConfig, tableName string, opts ...Option) (*Store, error) {
	client, err := NewDynamoDBClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	s := New(client, tableName, opts...)
	s.logger.Info("DynamoDB client initialized", "table", tableName, "region", cc.Region)
	return s, nil
}

func keyOf(ref storagemodels.DocumentRef) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: ref.Collection},
		attrSK: &types.AttributeValueMemberS{Value: ref.ID},
	}
}

// normalize converts values DynamoDB cannot store natively. Times become
// fixed-width strings.
func normalize(v any) any {
	switch tv := v.(type) {
	case time.Time:
		return tv.UTC().Format(timeLayout)
	case *time.Time:
		if tv == nil {
			return nil
		}
		return tv.UTC().Format(timeLayout)
	case storagemodels.Record:
		return normalizeFields(tv)
	case map[string]any:
		return normalizeFields(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = normalize(v)
	}
	return out
}

func marshalValue(v any) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal(normalize(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return av, nil
}

// toItem builds the full item for a record. Sentinels must be resolved already.
func toItem(ref storagemodels.DocumentRef, fields map[string]any, rev string) (map[string]types.AttributeValue, error) {
	clean := normalizeFields(fields)
	delete(clean, storagemodels.FieldID)
	item, err := attributevalue.MarshalMap(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	for k, v := range keyOf(ref) {
		item[k] = v
	}
	item[attrRev] = &types.AttributeValueMemberS{Value: rev}
	return item, nil
}

// fromItem converts an item to a record and its revision token.
func fromItem(item map[string]types.AttributeValue) (storagemodels.Record, string, error) {
	var fields map[string]any
	if err := attributevalue.UnmarshalMap(item, &fields); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal item: %w", err)
	}
	id, _ := fields[attrSK].(string)
	rev, _ := fields[attrRev].(string)
	delete(fields, attrPK)
	delete(fields, attrSK)
	delete(fields, attrRev)

	rec := storagemodels.Record(fields)
	rec[storagemodels.FieldID] = id
	return rec, rev, nil
}

func fieldsOf(rec storagemodels.Record) map[string]any {
	if rec == nil {
		return nil
	}
	fields := map[string]any(rec.Clone())
	delete(fields, storagemodels.FieldID)
	return fields
}

func (s *Store) getItem(ctx context.Context, ref storagemodels.DocumentRef, consistent bool) (storagemodels.Record, string, error) {
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &s.tableName,
		Key:            keyOf(ref),
		ConsistentRead: aws.Bool(consistent),
	})
	if err != nil {
		return nil, "", fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, "", nil
	}
	return fromItem(out.Item)
}

// Get retrieves a single record. It returns nil, nil when no item is found.
func (s *Store) Get(ctx context.Context, ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	rec, _, err := s.getItem(ctx, ref, false)
	return rec, err
}

// List returns every record of the collection ordered by id
func (s *Store) List(ctx context.Context, collection string) ([]storagemodels.Record, error) {
	return s.queryAll(ctx, collection, nil)
}

// Create stores fields under a new id. The put is conditional so an id collision
// can never overwrite an existing record.
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	ref := storagemodels.DocumentRef{Collection: collection, ID: s.newID()}
	resolved := storagemodels.ResolveTimestamps(fields, nil, s.clock())

	item, err := toItem(ref, resolved, s.newID())
	if err != nil {
		return "", err
	}
	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                &s.tableName,
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": attrPK},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return "", storeerrors.NewAlreadyExistsError(collection, ref.ID)
		}
		return "", fmt.Errorf("PutItem failed: %w", err)
	}
	return ref.ID, nil
}

// Set replaces the record at ref, or merges into it with an UpdateItem upsert.
func (s *Store) Set(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any, merge bool) error {
	now := s.clock()
	if merge {
		return s.updateItem(ctx, ref, fields, now, false)
	}

	var existing map[string]any
	if storagemodels.HasSentinel(fields, storagemodels.CreateTimestamp) {
		rec, _, err := s.getItem(ctx, ref, true)
		if err != nil {
			return err
		}
		existing = fieldsOf(rec)
	}
	item, err := toItem(ref, storagemodels.ResolveTimestamps(fields, existing, now), s.newID())
	if err != nil {
		return err
	}
	if _, err := s.client.PutItem(ctx, &sdk.PutItemInput{TableName: &s.tableName, Item: item}); err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Update replaces top-level fields of an existing record
func (s *Store) Update(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any) error {
	return s.updateItem(ctx, ref, fields, s.clock(), true)
}

func (s *Store) updateItem(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any, now time.Time, mustExist bool) error {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k != storagemodels.FieldID {
			updates[k] = v
		}
	}
	updates[attrRev] = s.newID()

	updateExpr, exprAttrNames, exprAttrValues, err := buildUpdateExpression(updates, now)
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	input := &sdk.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       keyOf(ref),
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
	}
	if mustExist {
		input.ConditionExpression = aws.String("attribute_exists(#pk)")
		input.ExpressionAttributeNames["#pk"] = attrPK
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		// If the condition fails, DynamoDB returns a ConditionalCheckFailedException
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return storeerrors.NewNotFoundError(ref.Collection, ref.ID)
		}
		return fmt.Errorf("UpdateItem failed: %w", err)
	}
	return nil
}

// Delete removes an item. Deleting a missing item succeeds.
func (s *Store) Delete(ctx context.Context, ref storagemodels.DocumentRef) error {
	_, err := s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &s.tableName,
		Key:       keyOf(ref),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no connections that need releasing.
func (s *Store) Close() error {
	return nil
}
