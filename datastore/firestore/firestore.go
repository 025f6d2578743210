/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package firestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	fs "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/suparena/estatestore/datastore"
	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// DefaultMaxAttempts is the number of times a conflicting transaction is run.
const DefaultMaxAttempts = 5

// Store implements datastore.DocumentStore on Cloud Firestore.
type Store struct {
	client      *fs.Client
	maxAttempts int
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

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With("component", "datastore.firestore")
		}
	}
}

// Config holds the settings for Connect.
type Config struct {
	ProjectID string
	// CredentialsFile is a service account key; empty means application default
	// credentials (or the emulator when FIRESTORE_EMULATOR_HOST is set).
	CredentialsFile string
}

// Connect initializes a Firebase app and its Firestore client.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return New(client, opts...), nil
}

// New wraps an existing Firestore client.
func New(client *fs.Client, opts ...Option) *Store {
	s := &Store{
		client:      client,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) doc(ref storagemodels.DocumentRef) *fs.DocumentRef {
	return s.client.Collection(ref.Collection).Doc(ref.ID)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func toRecord(snap *fs.DocumentSnapshot) storagemodels.Record {
	rec := storagemodels.Record(snap.Data())
	if rec == nil {
		rec = storagemodels.Record{}
	}
	rec[storagemodels.FieldID] = snap.Ref.ID
	return rec
}

// toData converts fields to what the client writes. ServerTimestamp maps to the
// native sentinel; CreateTimestamp keeps the value in existing when present, and
// is dropped from a merge in that case so the stored value stays untouched.
func toData(fields map[string]any, existing map[string]any, merge bool) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == storagemodels.FieldID {
			continue
		}
		ts, ok := v.(storagemodels.TimestampSentinel)
		if !ok {
			out[k] = v
			continue
		}
		if ts == storagemodels.CreateTimestamp {
			if prev, found := existing[k]; found && prev != nil {
				if !merge {
					out[k] = prev
				}
				continue
			}
		}
		out[k] = fs.ServerTimestamp
	}
	return out
}

// toUpdates converts fields to top-level field replacements.
func toUpdates(fields map[string]any, existing map[string]any) []fs.Update {
	data := toData(fields, existing, true)
	updates := make([]fs.Update, 0, len(data))
	for k, v := range data {
		updates = append(updates, fs.Update{FieldPath: fs.FieldPath{k}, Value: v})
	}
	return updates
}

// Get returns the record at ref, or nil when absent
func (s *Store) Get(ctx context.Context, ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	snap, err := s.doc(ref).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toRecord(snap), nil
}

// List returns every record of the collection ordered by id
func (s *Store) List(ctx context.Context, collection string) ([]storagemodels.Record, error) {
	iter := s.client.Collection(collection).OrderBy(fs.DocumentID, fs.Asc).Documents(ctx)
	defer iter.Stop()

	var records []storagemodels.Record
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, toRecord(snap))
	}
	return records, nil
}

// Create stores fields under an auto-generated id
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	docRef := s.client.Collection(collection).NewDoc()
	if _, err := docRef.Create(ctx, toData(fields, nil, false)); err != nil {
		return "", err
	}
	return docRef.ID, nil
}

// Set replaces the record at ref, or merges into it. A CreateTimestamp field needs
// the stored value, so such writes run in a transaction.
func (s *Store) Set(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any, merge bool) error {
	var opts []fs.SetOption
	if merge {
		opts = append(opts, fs.MergeAll)
	}

	if !storagemodels.HasSentinel(fields, storagemodels.CreateTimestamp) {
		_, err := s.doc(ref).Set(ctx, toData(fields, nil, merge), opts...)
		return err
	}

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		existing, err := txFields(tx, s.doc(ref))
		if err != nil {
			return err
		}
		return tx.Set(s.doc(ref), toData(fields, existing, merge), opts...)
	}, fs.MaxAttempts(s.maxAttempts))
}

func txFields(tx *fs.Transaction, dr *fs.DocumentRef) (map[string]any, error) {
	snap, err := tx.Get(dr)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return snap.Data(), nil
}

// Update replaces top-level fields of an existing record
func (s *Store) Update(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any) error {
	updates := toUpdates(fields, nil)
	if len(updates) == 0 {
		// an update must name a field; re-check existence instead
		rec, err := s.Get(ctx, ref)
		if err == nil && rec == nil {
			return errors.NewNotFoundError(ref.Collection, ref.ID)
		}
		return err
	}
	if _, err := s.doc(ref).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return errors.NewNotFoundError(ref.Collection, ref.ID)
		}
		return err
	}
	return nil
}

// Delete removes the record at ref. Firestore deletes are idempotent.
func (s *Store) Delete(ctx context.Context, ref storagemodels.DocumentRef) error {
	_, err := s.doc(ref).Delete(ctx)
	return err
}

// Close releases the client
func (s *Store) Close() error {
	return s.client.Close()
}

// readTime returns the snapshot time of a query or document snapshot.
func readTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
