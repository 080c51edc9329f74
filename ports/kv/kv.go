// Package kv defines the key-value storage port fronted by the kvstore actor.
package kv

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
)

type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) (value []byte, err error)
	Delete(ctx context.Context, key string) error
}

func Put[T any](ctx context.Context, store Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, data)
}

func Get[T any](ctx context.Context, store Store, key string) (out T, err error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &out)
	if err != nil {
		return
	}
	return
}
