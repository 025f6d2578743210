/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	"github.com/suparena/estatestore"
	"github.com/suparena/estatestore/models"
)

// batchLimit keeps every batch within the smallest backend limit (DynamoDB).
const batchLimit = 100

type seedCount struct {
	collection string
	count      int
}

// seedOperations encodes items as set operations on collection, keyed by id.
func seedOperations[T any](collection string, items []T, id func(T) string) ([]estatestore.BatchOperation, error) {
	ops := make([]estatestore.BatchOperation, 0, len(items))
	for _, item := range items {
		data, err := estatestore.Encode(item)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", collection, id(item), err)
		}
		ops = append(ops, estatestore.BatchOperation{
			Type:       estatestore.OpSet,
			Collection: collection,
			ID:         id(item),
			Data:       data,
		})
	}
	return ops, nil
}

// seedDataset writes the demo dataset in batches. Records keep their ids, so
// seeding twice replaces the same records.
func seedDataset(ctx context.Context, f *estatestore.Facade, seed uint64) ([]seedCount, error) {
	d := models.Seed(seed)
	var (
		ops    []estatestore.BatchOperation
		counts []seedCount
	)
	add := func(collection string) func([]estatestore.BatchOperation, error) error {
		return func(batch []estatestore.BatchOperation, err error) error {
			if err != nil {
				return err
			}
			ops = append(ops, batch...)
			counts = append(counts, seedCount{collection, len(batch)})
			return nil
		}
	}

	if err := add(models.CollectionUsers)(seedOperations(models.CollectionUsers, d.Users, func(v models.User) string { return v.ID })); err != nil {
		return nil, err
	}
	if err := add(models.CollectionProperties)(seedOperations(models.CollectionProperties, d.Properties, func(v models.Property) string { return v.ID })); err != nil {
		return nil, err
	}
	if err := add(models.CollectionTransactions)(seedOperations(models.CollectionTransactions, d.Transactions, func(v models.Transaction) string { return v.ID })); err != nil {
		return nil, err
	}
	if err := add(models.CollectionContracts)(seedOperations(models.CollectionContracts, d.Contracts, func(v models.Contract) string { return v.ID })); err != nil {
		return nil, err
	}
	if err := add(models.CollectionChats)(seedOperations(models.CollectionChats, d.Messages, func(v models.Message) string { return v.ID })); err != nil {
		return nil, err
	}
	if err := add(models.CollectionPartners)(seedOperations(models.CollectionPartners, d.Partners, func(v models.Partner) string { return v.ID })); err != nil {
		return nil, err
	}

	for start := 0; start < len(ops); start += batchLimit {
		end := min(start+batchLimit, len(ops))
		if err := f.RunBatch(ctx, ops[start:end]); err != nil {
			return nil, err
		}
	}
	return counts, nil
}
