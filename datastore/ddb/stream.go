/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/r3labs/diff/v3"

	"github.com/suparena/estatestore/storagemodels"
)

// Watch polls q every PollInterval and delivers the result set whenever it differs
// from the previous poll.
func (s *Store) Watch(ctx context.Context, q *storagemodels.Query, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot {
	options := storagemodels.ApplyWatchOptions(opts...)
	resultCh := make(chan storagemodels.Snapshot, options.BufferSize)

	go s.pollWorker(ctx, options, resultCh, func(ctx context.Context) ([]storagemodels.Record, error) {
		res, err := s.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		return res.Records, nil
	})
	return resultCh
}

// WatchDocument polls one record; a missing record is delivered as an empty set.
func (s *Store) WatchDocument(ctx context.Context, ref storagemodels.DocumentRef, opts ...storagemodels.WatchOption) <-chan storagemodels.Snapshot {
	options := storagemodels.ApplyWatchOptions(opts...)
	resultCh := make(chan storagemodels.Snapshot, options.BufferSize)

	go s.pollWorker(ctx, options, resultCh, func(ctx context.Context) ([]storagemodels.Record, error) {
		rec, err := s.Get(ctx, ref)
		if err != nil || rec == nil {
			return []storagemodels.Record{}, err
		}
		return []storagemodels.Record{rec}, nil
	})
	return resultCh
}

// pollWorker handles the polling loop until ctx is done
func (s *Store) pollWorker(
	ctx context.Context,
	options storagemodels.WatchOptions,
	resultCh chan<- storagemodels.Snapshot,
	load func(ctx context.Context) ([]storagemodels.Record, error),
) {
	defer close(resultCh)

	var (
		seq  int64
		last []storagemodels.Record
		sent bool
	)

	interval := options.PollInterval
	if interval <= 0 {
		interval = storagemodels.DefaultWatchOptions().PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap := storagemodels.Snapshot{ReadTime: s.clock()}
		records, err := load(ctx)
		if ctx.Err() != nil {
			return
		}

		emit := true
		if err != nil {
			snap.Err = err
		} else {
			if records == nil {
				records = []storagemodels.Record{}
			}
			if sent && !changed(last, records) {
				emit = false
			} else {
				snap.Records = records
				last, sent = records, true
			}
		}

		if emit {
			seq++
			snap.Sequence = seq
			select {
			case <-ctx.Done():
				return
			case resultCh <- snap:
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// changed reports whether two polls differ, element order included. A diff
// failure counts as a change.
func changed(prev, next []storagemodels.Record) bool {
	changelog, err := diff.Diff(prev, next, diff.SliceOrdering(true))
	if err != nil {
		return true
	}
	return len(changelog) > 0
}

// queryWithRetry executes a query, retrying throttling and server errors with
// exponential backoff
func (s *Store) queryWithRetry(ctx context.Context, input *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.backoff
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxRetries)), ctx)

	var out *dynamodb.QueryOutput
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		out, err = s.client.Query(ctx, input)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		s.logger.Debug("retrying query", "attempt", attempt, "error", err)
		return err
	}, retry)
	if err != nil {
		if attempt > 1 {
			return nil, fmt.Errorf("query failed after %d attempts: %w", attempt, err)
		}
		return nil, err
	}
	return out, nil
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	// Check for specific retryable DynamoDB errors
	var pte *types.ProvisionedThroughputExceededException
	var rle *types.RequestLimitExceeded
	var ise *types.InternalServerError
	if errors.As(err, &pte) || errors.As(err, &rle) || errors.As(err, &ise) {
		return true
	}

	// Check for AWS SDK retryable errors
	var retryable interface{ IsRetryable() bool }
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return false
}
