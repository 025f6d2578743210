/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sort"
	"strings"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI keeps items keyed by PK and SK. It honors existence conditions and
// records every transaction request; filter expressions are not evaluated.
type fakeAPI struct {
	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	pageSize    int
	queryCalls  int
	queryErrs   []error
	transacts   []*sdk.TransactWriteItemsInput
	transactErr []error
	updates     []*sdk.UpdateItemInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(key map[string]types.AttributeValue) string {
	pk := key[attrPK].(*types.AttributeValueMemberS).Value
	sk := key[attrSK].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeAPI) put(item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[itemKey(item)] = item
}

func (f *fakeAPI) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeAPI) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := itemKey(in.Item)
	if in.ConditionExpression != nil && strings.HasPrefix(*in.ConditionExpression, "attribute_not_exists") {
		if _, ok := f.items[key]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.items[key] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeAPI) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if in.ConditionExpression != nil && strings.HasPrefix(*in.ConditionExpression, "attribute_exists") {
		if _, ok := f.items[itemKey(in.Key)]; !ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	return &sdk.UpdateItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, itemKey(in.Key))
	return &sdk.DeleteItemOutput{}, nil
}

// Query returns every item of the partition in SK order, pageSize items at a time.
func (f *fakeAPI) Query(ctx context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if len(f.queryErrs) > 0 {
		err := f.queryErrs[0]
		f.queryErrs = f.queryErrs[1:]
		return nil, err
	}

	pk := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	var keys []string
	for k := range f.items {
		if strings.HasPrefix(k, pk+"|") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := itemKey(in.ExclusiveStartKey)
		for start < len(keys) && keys[start] <= after {
			start++
		}
	}
	end := len(keys)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
	}

	out := &sdk.QueryOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		last := f.items[keys[end-1]]
		out.LastEvaluatedKey = map[string]types.AttributeValue{attrPK: last[attrPK], attrSK: last[attrSK]}
	}
	return out, nil
}

func (f *fakeAPI) TransactWriteItems(ctx context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transacts = append(f.transacts, in)
	if len(f.transactErr) > 0 {
		err := f.transactErr[0]
		f.transactErr = f.transactErr[1:]
		if err != nil {
			return nil, err
		}
	}
	for _, item := range in.TransactItems {
		switch {
		case item.Put != nil:
			f.items[itemKey(item.Put.Item)] = item.Put.Item
		case item.Delete != nil:
			delete(f.items, itemKey(item.Delete.Key))
		}
	}
	return &sdk.TransactWriteItemsOutput{}, nil
}
