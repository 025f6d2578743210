/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suparena/estatestore/datastore"
	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// Reserved document fields.
const (
	fieldKey = "_id"
	fieldRev = "_rev"
)

// DefaultMaxAttempts is the number of times a conflicting transaction is run.
const DefaultMaxAttempts = 5

// Store implements datastore.DocumentStore on a MongoDB database. Each collection
// maps to a MongoDB collection and the record id is stored as _id.
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	maxAttempts int
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
			s.logger = logger.With("component", "datastore.mongo")
		}
	}
}

// Config holds the settings for Connect.
type Config struct {
	URI      string
	Database string
	// Timeout bounds each connection attempt.
	Timeout time.Duration
	// MaxElapsed bounds the whole connect retry loop.
	MaxElapsed time.Duration
}

// Connect dials MongoDB, retrying with exponential backoff until the server
// answers a ping.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 30 * time.Second
	}
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetMaxPoolSize(100)

	var client *mongo.Client
	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = cfg.MaxElapsed
	err := backoff.Retry(func() error {
		var err error
		client, err = mongo.Connect(ctx, clientOptions)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return err
		}
		return nil
	}, backoff.WithContext(retry, ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return New(client, cfg.Database, opts...), nil
}

// New wraps a connected client.
func New(client *mongo.Client, database string, opts ...Option) *Store {
	s := &Store{
		client:      client,
		db:          client.Database(database),
		maxAttempts: DefaultMaxAttempts,
		clock:       time.Now,
		newID:       uuid.NewString,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func byID(id string) bson.D {
	return bson.D{{Key: fieldKey, Value: id}}
}

// normalize converts decoded BSON values to plain Go values.
func normalize(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC()
	}
	return v
}

// toRecord turns a decoded document into a Record with id attached.
func toRecord(doc bson.M) storagemodels.Record {
	rec := storagemodels.Record{}
	for k, v := range doc {
		switch k {
		case fieldKey:
			rec[storagemodels.FieldID] = fmt.Sprint(v)
		case fieldRev:
		default:
			rec[k] = normalize(v)
		}
	}
	return rec
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]storagemodels.Record, error) {
	defer cur.Close(ctx)
	records := []storagemodels.Record{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, toRecord(doc))
	}
	return records, cur.Err()
}

func (s *Store) get(ctx context.Context, ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	var doc bson.M
	err := s.coll(ref.Collection).FindOne(ctx, byID(ref.ID)).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toRecord(doc), nil
}

// Get returns the record at ref, or nil when absent
func (s *Store) Get(ctx context.Context, ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	return s.get(ctx, ref)
}

// List returns every record of the collection ordered by id
func (s *Store) List(ctx context.Context, collection string) ([]storagemodels.Record, error) {
	cur, err := s.coll(collection).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: fieldKey, Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur)
}

// Create inserts fields under a generated id
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := s.newID()
	doc := bson.M{}
	for k, v := range storagemodels.ResolveTimestamps(fields, nil, s.clock()) {
		if k != storagemodels.FieldID {
			doc[k] = v
		}
	}
	doc[fieldKey] = id
	doc[fieldRev] = s.newID()

	if _, err := s.coll(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", errors.NewAlreadyExistsError(collection, id)
		}
		return "", err
	}
	return id, nil
}

// Set replaces the record at ref, or merges into it. Both run as a single upsert
// so an existing createdAt is kept without a prior read.
func (s *Store) Set(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any, merge bool) error {
	return s.set(ctx, ref, fields, merge)
}

func (s *Store) set(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any, merge bool) error {
	var pipeline mongo.Pipeline
	if merge {
		pipeline = mergePipeline(fields, s.clock(), s.newID())
	} else {
		pipeline = replacePipeline(ref.ID, fields, s.clock(), s.newID())
	}
	_, err := s.coll(ref.Collection).UpdateOne(ctx, byID(ref.ID), pipeline, options.Update().SetUpsert(true))
	return err
}

// Update replaces top-level fields of an existing record
func (s *Store) Update(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any) error {
	return s.update(ctx, ref, fields)
}

func (s *Store) update(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any) error {
	res, err := s.coll(ref.Collection).UpdateOne(ctx, byID(ref.ID), mergePipeline(fields, s.clock(), s.newID()))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.NewNotFoundError(ref.Collection, ref.ID)
	}
	return nil
}

// Delete removes the record at ref
func (s *Store) Delete(ctx context.Context, ref storagemodels.DocumentRef) error {
	_, err := s.coll(ref.Collection).DeleteOne(ctx, byID(ref.ID))
	return err
}

// Query compiles q to a filter, a sort and a limit. Records missing an ordered
// field are filtered out.
func (s *Store) Query(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return nil, err
	}
	findOpts := options.Find().SetSort(sortSpec(q.Orders))
	if q.PageSize > 0 {
		findOpts.SetLimit(int64(q.PageSize))
	}

	cur, err := s.coll(q.Collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	records, err := decodeAll(ctx, cur)
	if err != nil {
		return nil, err
	}

	result := &storagemodels.QueryResult{Records: records}
	if q.PageSize > 0 && len(records) >= q.PageSize {
		result.NextCursor = storagemodels.CursorFor(records[len(records)-1], q.Orders, nil)
	}
	return result, nil
}

// Close disconnects the client
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
