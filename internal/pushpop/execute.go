// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package pushpop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.astrophena.name/pushpopbot/internal/social"
)

// Status is the result of an executed [Op].
type Status int

const (
	Skipped Status = iota
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// Outcome is what happened to an [Op].
type Outcome struct {
	Op     Op
	Status Status
	// Post is the created post of a successful OpPost or OpReply.
	Post social.Post
	// Err is the remote error of a failed op.
	Err error
}

// Executor runs operations against a [social.Client].
type Executor struct {
	client social.Client
	delay  time.Duration
	slog   *slog.Logger

	sleep func(context.Context, time.Duration) bool
}

// NewExecutor returns an Executor that waits delay before every remote call.
func NewExecutor(client social.Client, delay time.Duration, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		client: client,
		delay:  delay,
		slog:   logger,
		sleep:  sleep,
	}
}

// Execute runs ops one by one, in order. It returns an outcome for every op.
// Remote failures are recorded in the outcomes; the returned error is only
// non-nil if ctx was canceled before or during a call, and then the outcomes
// are incomplete.
func (e *Executor) Execute(ctx context.Context, ops []Op) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(ops))
	for i, op := range ops {
		out := Outcome{Op: op}

		if !needsMet(op, outcomes) {
			e.slog.Warn("skipping operation, a previous one failed", "op", op)
			outcomes = append(outcomes, out)
			continue
		}

		if !e.sleep(ctx, e.delay) {
			return outcomes, ctx.Err()
		}

		var err error
		switch op.Kind {
		case OpPost:
			out.Post, err = e.client.Post(ctx, op.Text, 0)
		case OpReply:
			out.Post, err = e.client.Post(ctx, op.Text, op.InReplyTo)
		case OpDelete:
			err = e.client.Delete(ctx, op.Target)
		default:
			err = fmt.Errorf("unknown operation %v", op.Kind)
		}

		if err != nil {
			out.Status, out.Err = Failed, err
			if ctxErr := ctx.Err(); ctxErr != nil {
				e.slog.Warn("operation interrupted", "index", i, "op", op, "err", err)
				return append(outcomes, out), ctxErr
			}
			e.slog.Error("operation failed", "index", i, "op", op, "err", err)
		} else {
			out.Status = Succeeded
			attrs := []any{"index", i, "op", op}
			if op.Kind != OpDelete {
				attrs = append(attrs, "post", out.Post.ID)
			}
			e.slog.Info("operation succeeded", attrs...)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func needsMet(op Op, outcomes []Outcome) bool {
	for _, i := range op.Needs {
		if i >= len(outcomes) || outcomes[i].Status != Succeeded {
			return false
		}
	}
	return true
}

// sleep pauses for d or until ctx is done, reporting whether ctx is still
// live.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
