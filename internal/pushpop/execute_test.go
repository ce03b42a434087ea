// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package pushpop

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.astrophena.name/pushpopbot/internal/logger"
	"go.astrophena.name/pushpopbot/internal/testutil"
)

func testExecutor(c *stubClient) (*Executor, *int) {
	e := NewExecutor(c, time.Second, logger.Discard().Logger)
	sleeps := new(int)
	e.sleep = func(ctx context.Context, d time.Duration) bool {
		if d != time.Second {
			panic("unexpected delay")
		}
		*sleeps++
		return true
	}
	return e, sleeps
}

func statuses(outcomes []Outcome) []Status {
	var s []Status
	for _, o := range outcomes {
		s = append(s, o.Status)
	}
	return s
}

var popOps = []Op{
	{Kind: OpReply, Text: "@alice hi", InReplyTo: 5},
	{Kind: OpDelete, Target: 100, Needs: []int{0}},
}

func TestExecuteInOrder(t *testing.T) {
	t.Parallel()

	c := &stubClient{}
	e, sleeps := testExecutor(c)

	outcomes, err := e.Execute(t.Context(), popOps)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, statuses(outcomes), []Status{Succeeded, Succeeded})
	testutil.AssertEqual(t, c.calls, []string{`reply 5 "@alice hi"`, "delete 100"})
	testutil.AssertEqual(t, outcomes[0].Post.ID, int64(1000))
	testutil.AssertEqual(t, outcomes[0].Post.InReplyTo, int64(5))
	testutil.AssertEqual(t, *sleeps, 2)
}

func TestExecuteSkipsUnmetNeeds(t *testing.T) {
	t.Parallel()

	c := &stubClient{postErr: map[string]error{"@alice hi": errStub}}
	e, sleeps := testExecutor(c)

	outcomes, err := e.Execute(t.Context(), popOps)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, statuses(outcomes), []Status{Failed, Skipped})
	if !errors.Is(outcomes[0].Err, errStub) {
		t.Fatalf("outcome error: got %v, want errStub", outcomes[0].Err)
	}
	testutil.AssertEqual(t, c.calls, []string{`reply 5 "@alice hi"`})
	testutil.AssertEqual(t, *sleeps, 1)
}

func TestExecuteContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	c := &stubClient{deleteErr: map[int64]error{1: errStub}}
	e, _ := testExecutor(c)

	outcomes, err := e.Execute(t.Context(), []Op{
		{Kind: OpDelete, Target: 1},
		{Kind: OpPost, Text: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, statuses(outcomes), []Status{Failed, Succeeded})
	testutil.AssertEqual(t, c.calls, []string{"delete 1", `post "b"`})
}

func TestExecuteCanceled(t *testing.T) {
	t.Parallel()

	c := &stubClient{}
	e := NewExecutor(c, 0, logger.Discard().Logger)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	outcomes, err := e.Execute(ctx, popOps)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	testutil.AssertEqual(t, len(outcomes), 0)
	testutil.AssertEqual(t, len(c.calls), 0)
}

func TestExecuteCanceledDuringCall(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	c := &stubClient{cancel: cancel}
	e, _ := testExecutor(c)

	outcomes, err := e.Execute(ctx, popOps)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	testutil.AssertEqual(t, statuses(outcomes), []Status{Failed})
	testutil.AssertEqual(t, c.calls, []string{`reply 5 "@alice hi"`})
}

func TestSleep(t *testing.T) {
	t.Parallel()

	if !sleep(t.Context(), time.Millisecond) {
		t.Fatal("sleep on live context returned false")
	}
	if !sleep(t.Context(), 0) {
		t.Fatal("zero sleep on live context returned false")
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	start := time.Now()
	if sleep(ctx, time.Hour) {
		t.Fatal("sleep on canceled context returned true")
	}
	if time.Since(start) > time.Minute {
		t.Fatal("sleep on canceled context did not return early")
	}
}
