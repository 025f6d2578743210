/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package firestore

import (
	"context"
	"time"

	fs "cloud.google.com/go/firestore"
	"github.com/cenkalti/backoff/v4"

	"github.com/suparena/estatestore/storagemodels"
)

func direction(d storagemodels.Direction) fs.Direction {
	if d == storagemodels.Desc {
		return fs.Desc
	}
	return fs.Asc
}

// buildQuery applies conditions, then orders with a final document id tie-break,
// then the cursor and the page size.
func (s *Store) buildQuery(q *storagemodels.Query) fs.Query {
	fq := s.client.Collection(q.Collection).Query
	for _, c := range q.Conditions {
		fq = fq.Where(c.Field, string(c.Op), c.Value)
	}
	for _, o := range q.Orders {
		fq = fq.OrderBy(o.Field, direction(o.Direction))
	}
	fq = fq.OrderBy(fs.DocumentID, fs.Asc)

	if q.Cursor != nil {
		if snap, ok := q.Cursor.Native().(*fs.DocumentSnapshot); ok && snap != nil {
			fq = fq.StartAfter(snap)
		} else {
			values := append(append([]any(nil), q.Cursor.Values()...), q.Cursor.ID())
			fq = fq.StartAfter(values...)
		}
	}
	if q.PageSize > 0 {
		fq = fq.Limit(q.PageSize)
	}
	return fq
}

func pageOf(q *storagemodels.Query, snaps []*fs.DocumentSnapshot) *storagemodels.QueryResult {
	result := &storagemodels.QueryResult{Records: make([]storagemodels.Record, 0, len(snaps))}
	for _, snap := range snaps {
		result.Records = append(result.Records, toRecord(snap))
	}
	if q.PageSize > 0 && len(snaps) >= q.PageSize {
		last := len(snaps) - 1
		result.NextCursor = storagemodels.CursorFor(result.Records[last], q.Orders, snaps[last])
	}
	return result
}

// Query runs q natively. A missing composite index surfaces as the backend error.
func (s *Store) Query(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	snaps, err := s.buildQuery(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return pageOf(q, snaps), nil
}

// Watch attaches a snapshot listener to q. Listener errors are delivered and the
// listener is re-attached after a backoff.
func (s *Store) Watch(ctx context.Context, q *storagemodels.Query, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot {
	options := storagemodels.ApplyWatchOptions(opts...)
	out := make(chan storagemodels.Snapshot, options.BufferSize)

	go s.listen(ctx, options, out, func(ctx context.Context) (func() (storagemodels.Snapshot, error), func()) {
		it := s.buildQuery(q).Snapshots(ctx)
		next := func() (storagemodels.Snapshot, error) {
			qs, err := it.Next()
			if err != nil {
				return storagemodels.Snapshot{}, err
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				return storagemodels.Snapshot{}, err
			}
			return storagemodels.Snapshot{Records: pageOf(q, snaps).Records, ReadTime: readTime(qs.ReadTime)}, nil
		}
		return next, it.Stop
	})
	return out
}

// WatchDocument attaches a snapshot listener to one document
func (s *Store) WatchDocument(ctx context.Context, ref storagemodels.DocumentRef, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot {
	options := storagemodels.ApplyWatchOptions(opts...)
	out := make(chan storagemodels.Snapshot, options.BufferSize)

	go s.listen(ctx, options, out, func(ctx context.Context) (func() (storagemodels.Snapshot, error), func()) {
		it := s.doc(ref).Snapshots(ctx)
		next := func() (storagemodels.Snapshot, error) {
			snap, err := it.Next()
			if err != nil {
				return storagemodels.Snapshot{}, err
			}
			result := storagemodels.Snapshot{Records: []storagemodels.Record{}, ReadTime: readTime(snap.ReadTime)}
			if snap.Exists() {
				result.Records = append(result.Records, toRecord(snap))
			}
			return result, nil
		}
		return next, it.Stop
	})
	return out
}

// listen pumps a listener into out, reconnecting with exponential backoff after
// errors until ctx is done.
func (s *Store) listen(
	ctx context.Context,
	options storagemodels.WatchOptions,
	out chan<- storagemodels.Snapshot,
	attach func(ctx context.Context) (next func() (storagemodels.Snapshot, error), stop func()),
) {
	defer close(out)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = options.RetryBackoff
	policy.MaxElapsedTime = 0

	var seq int64
	send := func(snap storagemodels.Snapshot) bool {
		seq++
		snap.Sequence = seq
		select {
		case out <- snap:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		next, stop := attach(ctx)
		var err error
		for {
			var snap storagemodels.Snapshot
			snap, err = next()
			if err != nil {
				break
			}
			policy.Reset()
			if !send(snap) {
				stop()
				return
			}
		}
		stop()

		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("snapshot listener failed, reconnecting", "error", err)
		if !send(storagemodels.Snapshot{Err: err, ReadTime: time.Now()}) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(policy.NextBackOff()):
		}
	}
}
