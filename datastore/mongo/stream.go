/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongo

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/r3labs/diff/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/suparena/estatestore/storagemodels"
)

// Watch opens a change stream on the query's collection and re-runs q after every
// change event, delivering the result set when it differs from the last one.
func (s *Store) Watch(ctx context.Context, q *storagemodels.Query, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot {
	options := storagemodels.ApplyWatchOptions(opts...)
	out := make(chan storagemodels.Snapshot, options.BufferSize)

	go s.watchLoop(ctx, options, out, s.coll(q.Collection), mongo.Pipeline{}, func(ctx context.Context) ([]storagemodels.Record, error) {
		res, err := s.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		return res.Records, nil
	})
	return out
}

// WatchDocument follows one record; a missing record is delivered as an empty set.
func (s *Store) WatchDocument(ctx context.Context, ref storagemodels.DocumentRef, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot {
	options := storagemodels.ApplyWatchOptions(opts...)
	out := make(chan storagemodels.Snapshot, options.BufferSize)

	match := mongo.Pipeline{{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: ref.ID}}}}}
	go s.watchLoop(ctx, options, out, s.coll(ref.Collection), match, func(ctx context.Context) ([]storagemodels.Record, error) {
		rec, err := s.get(ctx, ref)
		if err != nil || rec == nil {
			return []storagemodels.Record{}, err
		}
		return []storagemodels.Record{rec}, nil
	})
	return out
}

// watchLoop keeps a change stream open until ctx is done. A failed stream delivers
// its error and is reopened after a backoff.
func (s *Store) watchLoop(
	ctx context.Context,
	options storagemodels.WatchOptions,
	out chan<- storagemodels.Snapshot,
	coll *mongo.Collection,
	pipeline mongo.Pipeline,
	load func(ctx context.Context) ([]storagemodels.Record, error),
) {
	defer close(out)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = options.RetryBackoff
	policy.MaxElapsedTime = 0

	var (
		seq  int64
		last []storagemodels.Record
		sent bool
	)
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
	refresh := func() error {
		records, err := load(ctx)
		if err != nil {
			return err
		}
		if sent && !changed(last, records) {
			return nil
		}
		last, sent = records, true
		if !send(storagemodels.Snapshot{Records: records, ReadTime: s.clock()}) {
			return ctx.Err()
		}
		return nil
	}

	for {
		stream, err := coll.Watch(ctx, pipeline)
		if err == nil {
			// the stream is open before the first load, so no change falls in between
			err = refresh()
			for err == nil && stream.Next(ctx) {
				policy.Reset()
				err = refresh()
			}
			if err == nil {
				err = stream.Err()
			}
			_ = stream.Close(context.Background())
		}

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Warn("change stream failed, reopening", "error", err)
			if !send(storagemodels.Snapshot{Err: err, ReadTime: s.clock()}) {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(policy.NextBackOff()):
		}
	}
}

// changed reports whether two result sets differ, element order included. A
// diff failure counts as a change.
func changed(prev, next []storagemodels.Record) bool {
	changelog, err := diff.Diff(prev, next, diff.SliceOrdering(true))
	if err != nil {
		return true
	}
	return len(changelog) > 0
}
