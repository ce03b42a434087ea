// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package stack

import (
	"errors"
	"testing"

	"go.astrophena.name/pushpopbot/internal/social"
	"go.astrophena.name/pushpopbot/internal/testutil"
)

func TestPushPop(t *testing.T) {
	t.Parallel()

	var s Stack
	if _, ok := s.Top(); ok {
		t.Fatal("Top on zero Stack: got ok")
	}
	if _, err := s.Pop(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Pop on zero Stack: got %v, want ErrEmpty", err)
	}

	s.Push(Item{ID: 1, Text: "a", Author: "alice"})
	s.Push(Item{ID: 2, Text: "b", Author: "bob"})
	testutil.AssertEqual(t, s.Len(), 2)

	top, ok := s.Top()
	if !ok {
		t.Fatal("Top: not ok")
	}
	testutil.AssertEqual(t, top, Item{ID: 2, Text: "b", Author: "bob"})

	got, err := s.Pop()
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, got.ID, int64(2))
	testutil.AssertEqual(t, s.Snapshot(), []Item{{ID: 1, Text: "a", Author: "alice"}})
}

func TestPopIf(t *testing.T) {
	t.Parallel()

	s := New(Item{ID: 1}, Item{ID: 2})
	if s.PopIf(1) {
		t.Fatal("PopIf(1) removed an item that is not on top")
	}
	if !s.PopIf(2) {
		t.Fatal("PopIf(2) did not remove the top item")
	}
	testutil.AssertEqual(t, s.Snapshot(), []Item{{ID: 1}})
	if New().PopIf(1) {
		t.Fatal("PopIf on empty stack reported removal")
	}
}

func TestNewCopies(t *testing.T) {
	t.Parallel()

	items := []Item{{ID: 1, Text: "a"}}
	s := New(items...)
	items[0].Text = "changed"
	snap := s.Snapshot()
	snap[0].Text = "changed too"

	top, _ := s.Top()
	testutil.AssertEqual(t, top.Text, "a")
}

func TestFromTimeline(t *testing.T) {
	t.Parallel()

	posts := []social.Post{
		{ID: 20, Text: "second"},
		{ID: 30, Text: "third"},
		{ID: 10, Text: "first"},
		{ID: 25, Text: "@bob second", InReplyTo: 7},
	}
	authors := map[int64]string{10: "alice", 30: "carol"}

	s := FromTimeline(posts, func(id int64) string { return authors[id] })
	testutil.AssertEqual(t, s.Snapshot(), []Item{
		{ID: 10, Text: "first", Author: "alice"},
		{ID: 20, Text: "second"},
		{ID: 30, Text: "third", Author: "carol"},
	})

	testutil.AssertEqual(t, FromTimeline(nil, nil).Len(), 0)
}
