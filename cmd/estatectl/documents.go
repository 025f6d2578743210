/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/suparena/estatestore"
	"github.com/suparena/estatestore/registry"
	"github.com/suparena/estatestore/storagemodels"
)

// typed decodes records of registered collections into their model so output
// shows normalized statuses; other collections print as stored.
func typed(collection string, rec storagemodels.Record) any {
	v, err := registry.New(collection)
	if err != nil {
		return rec
	}
	if err := estatestore.Decode(rec, v); err != nil {
		return rec
	}
	return v
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecords(collection string, records []storagemodels.Record) error {
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = typed(collection, rec)
	}
	return printJSON(out)
}

func expectArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

// readData parses a JSON object given inline or, for "-", on stdin.
func readData(arg string) (map[string]any, error) {
	raw := []byte(arg)
	if arg == "-" {
		var err error
		if raw, err = io.ReadAll(os.Stdin); err != nil {
			return nil, err
		}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("data must be a JSON object: %w", err)
	}
	return data, nil
}

func runGet(ctx context.Context, f *estatestore.Facade, args []string) error {
	if err := expectArgs(args, 2, commands["get"].usage); err != nil {
		return err
	}
	rec, err := f.GetDocumentByID(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%s/%s not found", args[0], args[1])
	}
	return printJSON(typed(args[0], rec))
}

func runList(ctx context.Context, f *estatestore.Facade, args []string) error {
	if err := expectArgs(args, 1, commands["list"].usage); err != nil {
		return err
	}
	records, err := f.GetCollection(ctx, args[0])
	if err != nil {
		return err
	}
	return printRecords(args[0], records)
}

// repeated collects every occurrence of a flag.
type repeated []string

func (r *repeated) String() string     { return strings.Join(*r, ", ") }
func (r *repeated) Set(v string) error { *r = append(*r, v); return nil }

// parseValue reads JSON literals (numbers, booleans, lists) and falls back to
// the raw text.
func parseValue(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v
	}
	return text
}

// parseCondition splits "field op value". The value may contain spaces.
func parseCondition(text string) (storagemodels.Condition, error) {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 3)
	if len(parts) != 3 {
		return storagemodels.Condition{}, fmt.Errorf("condition %q must be 'field op value'", text)
	}
	return storagemodels.Condition{
		Field: parts[0],
		Op:    storagemodels.Operator(parts[1]),
		Value: parseValue(parts[2]),
	}, nil
}

func parseOrder(text string) storagemodels.Order {
	field, dir, _ := strings.Cut(text, ":")
	return storagemodels.Order{Field: field, Direction: storagemodels.Direction(dir)}
}

// parseQuery reads the flags shared by query and watch followed by the collection.
func parseQuery(name string, args []string) (storagemodels.Query, error) {
	var where, order repeated
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Var(&where, "where", "Condition 'field op value' (repeatable)")
	fs.Var(&order, "order", "Order field[:asc|desc] (repeatable)")
	limit := fs.Int("limit", 0, "Page size")
	after := fs.String("after", "", "Resume after this id (requires the order values as -after-values)")
	afterValues := fs.String("after-values", "", "JSON list of the order-field values of the -after record")

	// The collection comes first so flags can follow it.
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return storagemodels.Query{}, fmt.Errorf("usage: %s", commands[name].usage)
	}
	q := storagemodels.Query{Collection: args[0]}
	if err := fs.Parse(args[1:]); err != nil {
		return q, err
	}
	for _, w := range where {
		c, err := parseCondition(w)
		if err != nil {
			return q, err
		}
		q.Conditions = append(q.Conditions, c)
	}
	for _, o := range order {
		q.Orders = append(q.Orders, parseOrder(o))
	}
	q.PageSize = *limit
	if *after != "" {
		var values []any
		if *afterValues != "" {
			if err := json.Unmarshal([]byte(*afterValues), &values); err != nil {
				return q, fmt.Errorf("after-values must be a JSON list: %w", err)
			}
		}
		q.Cursor = storagemodels.NewCursor(*after, values, nil)
	}
	return q, nil
}

func runQuery(ctx context.Context, f *estatestore.Facade, args []string) error {
	q, err := parseQuery("query", args)
	if err != nil {
		return err
	}
	res, err := f.QueryCollection(ctx, q)
	if err != nil {
		return err
	}
	if err := printRecords(q.Collection, res.Records); err != nil {
		return err
	}
	if res.NextCursor != nil {
		values, _ := json.Marshal(res.NextCursor.Values())
		fmt.Fprintf(os.Stderr, "more results: -after %s -after-values '%s'\n", res.NextCursor.ID(), values)
	}
	return nil
}

// runWatch prints the result set on every change until interrupted.
func runWatch(ctx context.Context, f *estatestore.Facade, args []string) error {
	q, err := parseQuery("watch", args)
	if err != nil {
		return err
	}
	sub, err := f.WatchCollection(ctx, q)
	if err != nil {
		return err
	}
	defer sub.Close()
	for {
		select {
		case records, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if err := printRecords(q.Collection, records); err != nil {
				return err
			}
		case err, ok := <-sub.Errors():
			if ok {
				fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func runSet(ctx context.Context, f *estatestore.Facade, args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	merge := fs.Bool("merge", false, "Merge into the existing record instead of replacing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := expectArgs(fs.Args(), 3, commands["set"].usage); err != nil {
		return err
	}
	data, err := readData(fs.Arg(2))
	if err != nil {
		return err
	}
	id, err := f.SetDocument(ctx, fs.Arg(0), fs.Arg(1), data, *merge)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runUpdate(ctx context.Context, f *estatestore.Facade, args []string) error {
	if err := expectArgs(args, 3, commands["update"].usage); err != nil {
		return err
	}
	data, err := readData(args[2])
	if err != nil {
		return err
	}
	id, err := f.UpdateDocument(ctx, args[0], args[1], data)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runDelete(ctx context.Context, f *estatestore.Facade, args []string) error {
	if err := expectArgs(args, 2, commands["delete"].usage); err != nil {
		return err
	}
	return f.DeleteDocumentByID(ctx, args[0], args[1])
}

func runSeed(ctx context.Context, f *estatestore.Facade, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	seed := fs.Uint64("seed", 1, "Random seed of the generated records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	counts, err := seedDataset(ctx, f, *seed)
	if err != nil {
		return err
	}
	for _, c := range counts {
		fmt.Printf("%-14s %s\n", c.collection, strconv.Itoa(c.count))
	}
	return nil
}
