package kv

import "context"

type Repository interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys returns all keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
	MultiDelete(ctx context.Context, keys []string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
	// Update runs fn atomically. Calling Update on the Repository passed to
	// fn joins the outer transaction.
	Update(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error
}
