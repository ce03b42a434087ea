// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package store implements the durable key-value store pushpopbot keeps its
// watermark and push authors in. Values are backed in-memory, by a JSON file,
// by SQLite or by PostgreSQL.
package store

import (
	"context"
	"strings"
)

// Store is a generic interface for a key-value store.
type Store interface {
	// Get retrieves a value for a given key.
	// It must return (nil, nil) if the key is not found.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value for a given key. The write must be durable when Set
	// returns.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close closes the store and releases any resources.
	Close() error
}

// Open opens the store described by dsn:
//
//   - "mem:" is an in-memory store;
//   - "sqlite:PATH" is a SQLite database at PATH;
//   - "postgres://..." and "postgresql://..." are PostgreSQL connection URLs;
//   - anything else is treated as a path to a JSON file.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "mem:":
		return NewMemStore(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn)
	default:
		return NewFileStore(dsn)
	}
}
