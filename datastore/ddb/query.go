/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/estatestore/storagemodels"
)

// queryInput builds the partition query for a collection. Conditions are compiled
// into the FilterExpression.
func (s *Store) queryInput(collection string, conditions []storagemodels.Condition) (*dynamodb.QueryInput, error) {
	filter, names, values, err := buildFilterExpression(conditions)
	if err != nil {
		return nil, err
	}
	names["#pk"] = attrPK
	values[":pk"] = &types.AttributeValueMemberS{Value: collection}

	input := &dynamodb.QueryInput{
		TableName:                 &s.tableName,
		KeyConditionExpression:    aws.String("#pk = :pk"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if filter != "" {
		input.FilterExpression = &filter
	}
	return input, nil
}

// queryAll reads every matching item of the collection, following
// LastEvaluatedKey across pages. Items come back ordered by SK, i.e. by id.
func (s *Store) queryAll(ctx context.Context, collection string, conditions []storagemodels.Condition) ([]storagemodels.Record, error) {
	input, err := s.queryInput(collection, conditions)
	if err != nil {
		return nil, err
	}

	var records []storagemodels.Record
	for {
		out, err := s.queryWithRetry(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		for _, item := range out.Items {
			rec, _, err := fromItem(item)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return records, nil
}

// Query filters in DynamoDB and applies ordering, cursor and page size in process,
// since a single-table partition only sorts by id.
func (s *Store) Query(ctx context.Context, q *storagemodels.Query) (*storagemodels.QueryResult, error) {
	records, err := s.queryAll(ctx, q.Collection, q.Conditions)
	if err != nil {
		return nil, err
	}
	return storagemodels.ApplyWindow(records, q), nil
}
