// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package state keeps the bot's watermark and push authors in a [store.Store].
package state

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.astrophena.name/pushpopbot/internal/store"
)

const (
	// WatermarkKey holds the ID of the last processed mention as a decimal
	// string, or an empty value when nothing was processed yet.
	WatermarkKey = "last_processed_tweet"
	authorPrefix = "author/"
)

// Store is the bot's persistent state.
type Store struct {
	kv store.Store
}

// New returns a Store over kv.
func New(kv store.Store) *Store {
	return &Store{kv: kv}
}

// Watermark returns the last processed mention ID, or zero if there is none.
func (s *Store) Watermark(ctx context.Context) (int64, error) {
	b, err := s.kv.Get(ctx, WatermarkKey)
	if err != nil {
		return 0, fmt.Errorf("reading watermark: %w", err)
	}
	v := strings.TrimSpace(string(b))
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("reading watermark: invalid value %q: %w", v, err)
	}
	return id, nil
}

// SetWatermark persists id as the last processed mention ID.
func (s *Store) SetWatermark(ctx context.Context, id int64) error {
	if err := s.kv.Set(ctx, WatermarkKey, []byte(strconv.FormatInt(id, 10))); err != nil {
		return fmt.Errorf("writing watermark: %w", err)
	}
	return nil
}

// ResetWatermark sets the watermark to the empty value.
func (s *Store) ResetWatermark(ctx context.Context) error {
	if err := s.kv.Set(ctx, WatermarkKey, []byte{}); err != nil {
		return fmt.Errorf("resetting watermark: %w", err)
	}
	return nil
}

// Author returns the handle that requested the post with id, or an empty
// string if it is not known.
func (s *Store) Author(ctx context.Context, id int64) (string, error) {
	b, err := s.kv.Get(ctx, authorKey(id))
	if err != nil {
		return "", fmt.Errorf("reading author of %d: %w", id, err)
	}
	return string(b), nil
}

// SetAuthor records author as the requester of the post with id.
func (s *Store) SetAuthor(ctx context.Context, id int64, author string) error {
	if err := s.kv.Set(ctx, authorKey(id), []byte(author)); err != nil {
		return fmt.Errorf("recording author of %d: %w", id, err)
	}
	return nil
}

// ForgetAuthor drops the requester of the post with id.
func (s *Store) ForgetAuthor(ctx context.Context, id int64) error {
	if err := s.kv.Delete(ctx, authorKey(id)); err != nil {
		return fmt.Errorf("forgetting author of %d: %w", id, err)
	}
	return nil
}

// Close closes the underlying store.
func (s *Store) Close() error { return s.kv.Close() }

func authorKey(id int64) string { return authorPrefix + strconv.FormatInt(id, 10) }
