// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package stack holds the ordered set of live top-level posts the bot treats
// as its stack.
package stack

import (
	"cmp"
	"errors"
	"slices"

	"go.astrophena.name/pushpopbot/internal/social"
)

// ErrEmpty is returned by [Stack.Pop] on an empty stack.
var ErrEmpty = errors.New("stack is empty")

// Item is a live post on the stack.
type Item struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

// Stack is a last-in-first-out sequence of items, oldest first.
// The zero value is an empty stack.
type Stack struct {
	items []Item
}

// New returns a stack holding items, the last one being the top.
func New(items ...Item) *Stack {
	return &Stack{items: slices.Clone(items)}
}

// FromTimeline builds a stack from the bot's own posts in any order.
// Replies are dropped and the rest are ordered by ID, oldest first.
// If author is not nil, it is called to recover the requester of each post.
func FromTimeline(posts []social.Post, author func(id int64) string) *Stack {
	s := new(Stack)
	for _, p := range posts {
		if p.IsReply() {
			continue
		}
		it := Item{ID: p.ID, Text: p.Text}
		if author != nil {
			it.Author = author(p.ID)
		}
		s.items = append(s.items, it)
	}
	slices.SortFunc(s.items, func(a, b Item) int { return cmp.Compare(a.ID, b.ID) })
	return s
}

// Len returns the number of items.
func (s *Stack) Len() int { return len(s.items) }

// Top returns the most recently pushed item.
func (s *Stack) Top() (Item, bool) {
	if len(s.items) == 0 {
		return Item{}, false
	}
	return s.items[len(s.items)-1], true
}

// Push puts it on top.
func (s *Stack) Push(it Item) { s.items = append(s.items, it) }

// Pop removes and returns the top item.
func (s *Stack) Pop() (Item, error) {
	it, ok := s.Top()
	if !ok {
		return Item{}, ErrEmpty
	}
	s.items = s.items[:len(s.items)-1]
	return it, nil
}

// PopIf removes the top item only if its ID is id. It reports whether the
// item was removed.
func (s *Stack) PopIf(id int64) bool {
	it, ok := s.Top()
	if !ok || it.ID != id {
		return false
	}
	s.items = s.items[:len(s.items)-1]
	return true
}

// Snapshot returns a copy of the items, oldest first.
func (s *Stack) Snapshot() []Item { return slices.Clone(s.items) }
