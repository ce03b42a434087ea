// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.astrophena.name/pushpopbot/internal/testutil"
)

func TestMemStore(t *testing.T) {
	t.Parallel()
	testStore(t, NewMemStore())
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)

	// A fresh store must see what the previous one wrote.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Get(context.Background(), "key1")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(got), "value1")
}

func TestFileStoreCorrupted(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Fatal("want error for corrupted file, got nil")
	}
}

func TestFileStoreMissingDir(t *testing.T) {
	t.Parallel()

	if _, err := NewFileStore(filepath.Join(t.TempDir(), "missing", "state.json")); err == nil {
		t.Fatal("want error creating a store in a missing directory")
	}
}

func TestFileStoreDelete(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "key"); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Get(ctx, "key")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("deleted key is still present: %q", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	testStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, databaseURL)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Clean up the table before running the test.
	if _, err := s.pool.Exec(ctx, "DELETE FROM pushpopbot_kv"); err != nil {
		t.Fatal(err)
	}

	testStore(t, s)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	cases := map[string]struct {
		dsn    string
		isKind func(Store) bool
	}{
		"memory": {
			dsn:    "mem:",
			isKind: func(s Store) bool { _, ok := s.(*MemStore); return ok },
		},
		"sqlite": {
			dsn:    "sqlite:" + filepath.Join(dir, "state.db"),
			isKind: func(s Store) bool { _, ok := s.(*SQLiteStore); return ok },
		},
		"file": {
			dsn:    filepath.Join(dir, "state.json"),
			isKind: func(s Store) bool { _, ok := s.(*FileStore); return ok },
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Open(ctx, tc.dsn)
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
			if !tc.isKind(s) {
				t.Fatalf("Open(%q) returned %T", tc.dsn, s)
			}
		})
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	v, err := s.Get(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("Get(missing) = %q, want nil", v)
	}

	if err := s.Set(ctx, "key1", []byte("value1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "key2", []byte("value2")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "key2", []byte("value2-updated")); err != nil {
		t.Fatal(err)
	}

	v, err = s.Get(ctx, "key1")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(v), "value1")

	v, err = s.Get(ctx, "key2")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(v), "value2-updated")

	if err := s.Set(ctx, "empty", []byte("")); err != nil {
		t.Fatal(err)
	}
	v, err = s.Get(ctx, "empty")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(v), 0)

	if err := s.Delete(ctx, "key2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Fatal(err)
	}
	v, err = s.Get(ctx, "key2")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("Get(key2) after Delete = %q, want nil", v)
	}
}
