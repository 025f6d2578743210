/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// The registry binds each record type to one collection name and back.
var (
	collectionsByType = make(map[reflect.Type]string)
	typesByCollection = make(map[string]reflect.Type)
	mu                sync.RWMutex
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterCollection binds T to the collection name. Registering the same pair
// again does nothing; binding either side to something else panics to prevent
// accidental overrides.
func RegisterCollection[T any](name string) {
	t := typeOf[T]()

	mu.Lock()
	defer mu.Unlock()
	if existing, ok := collectionsByType[t]; ok && existing != name {
		panic(fmt.Sprintf("collection registry: %s already bound to %q", t, existing))
	}
	if existing, ok := typesByCollection[name]; ok && existing != t {
		panic(fmt.Sprintf("collection registry: collection %q already bound to %s", name, existing))
	}
	collectionsByType[t] = name
	typesByCollection[name] = t
}

// CollectionOf returns the collection T is bound to.
func CollectionOf[T any]() (string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	name, ok := collectionsByType[typeOf[T]()]
	return name, ok
}

// TypeOf returns the record type bound to the collection name.
func TypeOf(name string) (reflect.Type, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := typesByCollection[name]
	return t, ok
}

// New returns a pointer to a new zero record of the type bound to name.
func New(name string) (any, error) {
	t, ok := TypeOf(name)
	if !ok {
		return nil, fmt.Errorf("collection registry: no type registered for collection %q", name)
	}
	return reflect.New(t).Interface(), nil
}

// Collections returns the registered collection names, sorted.
func Collections() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(typesByCollection))
	for name := range typesByCollection {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
