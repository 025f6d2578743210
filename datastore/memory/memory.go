/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-process implementation of datastore.DocumentStore.
package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/estatestore/datastore"
	"github.com/suparena/estatestore/errors"
	"github.com/suparena/estatestore/storagemodels"
)

// DefaultMaxAttempts is the number of times a conflicting transaction is run.
const DefaultMaxAttempts = 5

// Store keeps collections in memory. Committed state is only ever replaced, never
// mutated, so readers can hold on to what they loaded.
type Store struct {
	mu          sync.RWMutex
	data        map[string]map[string]map[string]any
	revs        map[string]int64
	version     int64
	watchers    map[int64]*watcher
	nextWatcher int64
	failures    map[string]error
	done        chan struct{}
	closeOnce   sync.Once

	clock       func() time.Time
	newID       func() string
	maxAttempts int
	logger      *slog.Logger
}

type watcher struct {
	collection string
	signal     chan struct{}
}

var _ datastore.DocumentStore = (*Store)(nil)

// New creates an empty Store
func New() *Store {
	return &Store{
		data:        make(map[string]map[string]map[string]any),
		revs:        make(map[string]int64),
		watchers:    make(map[int64]*watcher),
		failures:    make(map[string]error),
		done:        make(chan struct{}),
		clock:       time.Now,
		newID:       func() string { return uuid.NewString() },
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithClock sets the time source used for server timestamps
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

// WithIDFunc sets the generator for store-assigned ids
func (s *Store) WithIDFunc(f func() string) *Store {
	s.newID = f
	return s
}

// WithMaxAttempts sets how many times a conflicting transaction is run
func (s *Store) WithMaxAttempts(n int) *Store {
	if n > 0 {
		s.maxAttempts = n
	}
	return s
}

// WithLogger sets the logger
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	if logger != nil {
		s.logger = logger.With("component", "datastore.memory")
	}
	return s
}

// WithFailure makes the named operation return err. Operation names are get, list,
// create, set, update, delete, query, commit, transaction and watch. A nil err
// clears the failure.
func (s *Store) WithFailure(op string, err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
	} else {
		s.failures[op] = err
	}
	return s
}

func (s *Store) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[op]
}

// Get returns the record at ref, or nil when absent
func (s *Store) Get(ctx context.Context, ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	if err := s.failure("get"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordLocked(ref), nil
}

func (s *Store) recordLocked(ref storagemodels.DocumentRef) storagemodels.Record {
	fields, ok := s.data[ref.Collection][ref.ID]
	if !ok {
		return nil
	}
	return toRecord(ref.ID, fields)
}

func toRecord(id string, fields map[string]any) storagemodels.Record {
	rec := storagemodels.Record(storagemodels.CopyFields(fields))
	rec[storagemodels.FieldID] = id
	return rec
}

// List returns every record of the collection ordered by id
func (s *Store) List(ctx context.Context, collection string) ([]storagemodels.Record, error) {
	if err := s.failure("list"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(collection), nil
}

func (s *Store) listLocked(collection string) []storagemodels.Record {
	docs := s.data[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]storagemodels.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, toRecord(id, docs[id]))
	}
	return records
}

// Create stores fields under a new id
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := s.failure("create"); err != nil {
		return "", err
	}
	id := s.newID()
	ref := storagemodels.DocumentRef{Collection: collection, ID: id}
	if err := s.commit([]storagemodels.Write{{Kind: storagemodels.WriteSet, Ref: ref, Data: fields}}); err != nil {
		return "", err
	}
	return id, nil
}

// Set replaces or merges into the record at ref
func (s *Store) Set(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any, merge bool) error {
	if err := s.failure("set"); err != nil {
		return err
	}
	return s.commit([]storagemodels.Write{{Kind: storagemodels.WriteSet, Ref: ref, Data: fields, Merge: merge}})
}

// Update replaces top-level fields of an existing record
func (s *Store) Update(ctx context.Context, ref storagemodels.DocumentRef, fields map[string]any) error {
	if err := s.failure("update"); err != nil {
		return err
	}
	return s.commit([]storagemodels.Write{{Kind: storagemodels.WriteUpdate, Ref: ref, Data: fields}})
}

// Delete removes the record at ref if present
func (s *Store) Delete(ctx context.Context, ref storagemodels.DocumentRef) error {
	if err := s.failure("delete"); err != nil {
		return err
	}
	return s.commit([]storagemodels.Write{{Kind: storagemodels.WriteDelete, Ref: ref}})
}

// Query evaluates q against the current state
func (s *Store) Query(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	if err := s.failure("query"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	records := s.listLocked(q.Collection)
	s.mu.RUnlock()
	return storagemodels.Evaluate(records, q), nil
}

// Commit applies all writes atomically
func (s *Store) Commit(ctx context.Context, writes []storagemodels.Write) error {
	if err := s.failure("commit"); err != nil {
		return err
	}
	return s.commit(writes)
}

func (s *Store) commit(writes []storagemodels.Write) error {
	s.mu.Lock()
	touched, err := s.applyLocked(writes)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(touched)
	return nil
}

// applyLocked folds writes over the committed state and publishes the result only
// when every write succeeds.
func (s *Store) applyLocked(writes []storagemodels.Write) (map[string]bool, error) {
	loaded := make(map[string]map[string]any, len(writes))
	for _, w := range writes {
		if fields, ok := s.data[w.Ref.Collection][w.Ref.ID]; ok {
			loaded[w.Ref.String()] = fields
		}
	}
	final, order, err := storagemodels.Fold(loaded, writes, s.clock())
	if err != nil {
		return nil, err
	}

	touched := make(map[string]bool)
	for _, ref := range order {
		docs := make(map[string]map[string]any, len(s.data[ref.Collection])+1)
		for id, fields := range s.data[ref.Collection] {
			docs[id] = fields
		}
		if next := final[ref.String()]; next == nil {
			delete(docs, ref.ID)
		} else {
			docs[ref.ID] = next
		}
		s.data[ref.Collection] = docs
		s.version++
		s.revs[ref.String()] = s.version
		touched[ref.Collection] = true
	}
	return touched, nil
}

// RunTransaction runs fn optimistically and retries it when a record it read was
// written before the commit.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx datastore.Tx) error) error {
	if err := s.failure("transaction"); err != nil {
		return err
	}
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &txn{store: s, reads: make(map[string]int64)}
		if err := fn(ctx, tx); err != nil {
			return err
		}

		s.mu.Lock()
		conflict := false
		for key, rev := range tx.reads {
			if s.revs[key] != rev {
				conflict = true
				break
			}
		}
		if conflict {
			s.mu.Unlock()
			s.logger.Debug("transaction conflict, retrying", "attempt", attempt)
			continue
		}
		touched, err := s.applyLocked(tx.writes)
		s.mu.Unlock()
		if err != nil {
			return err
		}
		s.notify(touched)
		return nil
	}
	return fmt.Errorf("%w after %d attempts", errors.ErrRetryLimit, s.maxAttempts)
}

type txn struct {
	store  *Store
	reads  map[string]int64
	writes []storagemodels.Write
}

func (t *txn) Get(ref storagemodels.DocumentRef) (storagemodels.Record, error) {
	if len(t.writes) > 0 {
		return nil, errors.NewValidationError("transaction", "reads must happen before writes")
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	t.reads[ref.String()] = t.store.revs[ref.String()]
	return t.store.recordLocked(ref), nil
}

func (t *txn) Set(ref storagemodels.DocumentRef, fields map[string]any, merge bool) error {
	t.writes = append(t.writes, storagemodels.Write{Kind: storagemodels.WriteSet, Ref: ref, Data: fields, Merge: merge})
	return nil
}

func (t *txn) Update(ref storagemodels.DocumentRef, fields map[string]any) error {
	t.writes = append(t.writes, storagemodels.Write{Kind: storagemodels.WriteUpdate, Ref: ref, Data: fields})
	return nil
}

func (t *txn) Delete(ref storagemodels.DocumentRef) error {
	t.writes = append(t.writes, storagemodels.Write{Kind: storagemodels.WriteDelete, Ref: ref})
	return nil
}

// Watch delivers the result set of q on every change to its collection
func (s *Store) Watch(ctx context.Context, q *storagemodels.Query, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot {
	return s.watch(ctx, q.Collection, opts, func() ([]storagemodels.Record, error) {
		res, err := s.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		return res.Records, nil
	})
}

// WatchDocument delivers the record at ref, or an empty set when it is absent
func (s *Store) WatchDocument(ctx context.Context, ref storagemodels.DocumentRef, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot {
	return s.watch(ctx, ref.Collection, opts, func() ([]storagemodels.Record, error) {
		rec, err := s.Get(ctx, ref)
		if err != nil || rec == nil {
			return nil, err
		}
		return []storagemodels.Record{rec}, nil
	})
}

func (s *Store) watch(ctx context.Context, collection string, opts []storagemodels.WatchOption, load func() ([]storagemodels.Record, error)) <-chan storagemodels.Snapshot {
	options := storagemodels.ApplyWatchOptions(opts...)
	out := make(chan storagemodels.Snapshot, options.BufferSize)

	w := &watcher{collection: collection, signal: make(chan struct{}, 1)}
	s.mu.Lock()
	s.nextWatcher++
	id := s.nextWatcher
	s.watchers[id] = w
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		}()

		var (
			seq  int64
			last []storagemodels.Record
			sent bool
		)
		emit := func() bool {
			snap := storagemodels.Snapshot{ReadTime: s.clock()}
			if err := s.failure("watch"); err != nil {
				snap.Err = err
			} else {
				records, err := load()
				if err != nil {
					snap.Err = err
				} else {
					if sent && reflect.DeepEqual(records, last) {
						return true
					}
					if records == nil {
						records = []storagemodels.Record{}
					}
					snap.Records = records
					last, sent = records, true
				}
			}
			seq++
			snap.Sequence = seq
			select {
			case out <- snap:
				return true
			case <-ctx.Done():
				return false
			case <-s.done:
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-w.signal:
				if !emit() {
					return
				}
			}
		}
	}()
	return out
}

// notify wakes the watchers of every touched collection. Signals coalesce, so a
// slow watcher sees the latest state once rather than every intermediate one.
func (s *Store) notify(touched map[string]bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.watchers {
		if !touched[w.collection] {
			continue
		}
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}

// Close stops every watch
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Helper methods for testing

// SetData replaces a collection with the given records, keyed by id
func (s *Store) SetData(collection string, records map[string]map[string]any) {
	docs := make(map[string]map[string]any, len(records))
	for id, fields := range records {
		f := storagemodels.CopyFields(fields)
		delete(f, storagemodels.FieldID)
		docs[id] = f
	}
	s.mu.Lock()
	for id := range s.data[collection] {
		if _, kept := docs[id]; !kept {
			s.version++
			s.revs[storagemodels.DocumentRef{Collection: collection, ID: id}.String()] = s.version
		}
	}
	s.data[collection] = docs
	for id := range docs {
		s.version++
		s.revs[storagemodels.DocumentRef{Collection: collection, ID: id}.String()] = s.version
	}
	s.mu.Unlock()
	s.notify(map[string]bool{collection: true})
}

// GetData returns a copy of a collection keyed by id
func (s *Store) GetData(collection string) map[string]storagemodels.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]storagemodels.Record, len(s.data[collection]))
	for id, fields := range s.data[collection] {
		result[id] = toRecord(id, fields)
	}
	return result
}

// Count returns the number of records in a collection
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[collection])
}

// Clear removes all data
func (s *Store) Clear() {
	s.mu.Lock()
	touched := make(map[string]bool, len(s.data))
	for c, docs := range s.data {
		touched[c] = true
		for id := range docs {
			s.version++
			s.revs[storagemodels.DocumentRef{Collection: c, ID: id}.String()] = s.version
		}
	}
	s.data = make(map[string]map[string]map[string]any)
	s.mu.Unlock()
	s.notify(touched)
}
