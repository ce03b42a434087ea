// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package pushpop

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.astrophena.name/pushpopbot/internal/social"
	"go.astrophena.name/pushpopbot/internal/stack"
)

// Ledger is the persistent state a [Runner] needs. It is implemented by
// [go.astrophena.name/pushpopbot/internal/state.Store].
type Ledger interface {
	Watermark(ctx context.Context) (int64, error)
	SetWatermark(ctx context.Context, id int64) error
	Author(ctx context.Context, id int64) (string, error)
	SetAuthor(ctx context.Context, id int64, author string) error
	ForgetAuthor(ctx context.Context, id int64) error
}

// Phase is the state of a [Runner].
type Phase int

const (
	Idle Phase = iota
	FetchingTimeline
	FetchingMentions
	ProcessingMention
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case FetchingTimeline:
		return "fetching timeline"
	case FetchingMentions:
		return "fetching mentions"
	case ProcessingMention:
		return "processing mention"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Config configures a [Runner].
type Config struct {
	Client social.Client
	Ledger Ledger
	// Handle is the bot's own handle, stripped from mentions.
	Handle string
	// MaxPostLength is the longest text the bot posts. If zero,
	// social.MaxLength is used.
	MaxPostLength int
	// Delay is the pause before every remote write.
	Delay time.Duration
	// DryRun makes the Runner only log what it would do.
	DryRun bool
	Logger *slog.Logger
}

// Report summarizes a run.
type Report struct {
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`

	Mentions  int `json:"mentions"`
	Pushes    int `json:"pushes"`
	Pops      int `json:"pops"`
	EmptyPops int `json:"empty_pops"`
	Ignored   int `json:"ignored"`
	Failed    int `json:"failed"`

	StackSize int   `json:"stack_size"`
	Watermark int64 `json:"watermark"`
}

// Runner processes one batch of mentions. A Runner is not safe for
// concurrent use and runs only once.
type Runner struct {
	client    social.Client
	ledger    Ledger
	sanitizer *Sanitizer
	planner   *Planner
	exec      *Executor
	dry       bool
	slog      *slog.Logger

	phase Phase
	stack *stack.Stack
}

// NewRunner returns a Runner for cfg.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Client == nil {
		return nil, errors.New("pushpop: no client")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("pushpop: no ledger")
	}
	if cfg.Handle == "" {
		return nil, errors.New("pushpop: no handle")
	}
	logger := cmp.Or(cfg.Logger, slog.Default())
	san := NewSanitizer(cfg.Handle)
	return &Runner{
		client:    cfg.Client,
		ledger:    cfg.Ledger,
		sanitizer: san,
		planner:   NewPlanner(san, cfg.MaxPostLength),
		exec:      NewExecutor(cfg.Client, cfg.Delay, logger),
		dry:       cfg.DryRun,
		slog:      logger,
		stack:     stack.New(),
	}, nil
}

// Phase returns the current phase.
func (r *Runner) Phase() Phase { return r.phase }

// Stack returns a snapshot of the stack, oldest first.
func (r *Runner) Stack() []stack.Item { return r.stack.Snapshot() }

func (r *Runner) setPhase(p Phase) {
	r.phase = p
	r.slog.Debug("entering phase", "phase", p)
}

// Run derives the stack from the timeline and processes every mention newer
// than the watermark, oldest first. The watermark is persisted after each
// mention. Failed remote operations do not stop the run; failing to fetch,
// failing to persist the watermark and ctx cancellation do.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.phase != Idle {
		return nil, errors.New("pushpop: Runner already used")
	}
	rep := &Report{Start: time.Now()}
	defer func() { rep.Duration = time.Since(rep.Start) }()

	r.setPhase(FetchingTimeline)
	posts, err := r.client.Timeline(ctx)
	if err != nil {
		return rep, fmt.Errorf("fetching timeline: %w", err)
	}
	r.stack = stack.FromTimeline(posts, func(id int64) string {
		author, err := r.ledger.Author(ctx, id)
		if err != nil {
			r.slog.Warn("unable to look up author", "post", id, "err", err)
		}
		return author
	})
	rep.StackSize = r.stack.Len()
	r.slog.Info("loaded stack", "size", r.stack.Len())

	r.setPhase(FetchingMentions)
	wm, err := r.ledger.Watermark(ctx)
	if err != nil {
		return rep, err
	}
	rep.Watermark = wm
	mentions, err := r.client.Mentions(ctx, wm)
	if err != nil {
		return rep, fmt.Errorf("fetching mentions: %w", err)
	}
	slices.SortFunc(mentions, func(a, b social.Mention) int { return cmp.Compare(a.ID, b.ID) })
	r.slog.Info("fetched mentions", "count", len(mentions), "since", wm)

	for _, m := range mentions {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if m.ID <= wm {
			r.slog.Debug("skipping already processed mention", "mention", m.ID)
			continue
		}

		r.setPhase(ProcessingMention)
		rep.Mentions++
		if err := r.process(ctx, m, rep); err != nil {
			return rep, err
		}

		wm = m.ID
		rep.Watermark = wm
		if r.dry {
			continue
		}
		if err := r.ledger.SetWatermark(ctx, wm); err != nil {
			return rep, err
		}
	}

	rep.StackSize = r.stack.Len()
	r.setPhase(Done)
	return rep, nil
}

func (r *Runner) process(ctx context.Context, m social.Mention, rep *Report) error {
	log := r.slog.With("mention", m.ID, "author", m.Author)

	cmd := Classify(r.sanitizer.Sanitize(m.Text))
	if cmd.Kind == Ignore {
		rep.Ignored++
		log.Info("ignoring mention", "text", m.Text)
		return nil
	}

	plan, err := r.planner.Plan(cmd, m, r.stack.Snapshot())
	if err != nil {
		rep.Failed++
		log.Warn("dropping mention", "command", cmd.Kind, "err", err)
		return nil
	}
	if len(plan.Ops) == 0 {
		rep.EmptyPops++
		log.Warn("nothing to pop, stack is empty")
		return nil
	}

	if r.dry {
		log.Info("would execute plan", "command", cmd.Kind, "ops", plan.Ops)
		return nil
	}

	outcomes, err := r.exec.Execute(ctx, plan.Ops)
	if err != nil {
		return err
	}

	switch mut := plan.Mutation(outcomes); mut.Kind {
	case MutatePush:
		r.stack.Push(mut.Item)
		rep.Pushes++
		log.Info("pushed", "post", mut.Item.ID, "size", r.stack.Len())
		if err := r.ledger.SetAuthor(ctx, mut.Item.ID, mut.Item.Author); err != nil {
			log.Warn("unable to record author", "post", mut.Item.ID, "err", err)
		}
	case MutatePop:
		r.stack.PopIf(mut.Item.ID)
		rep.Pops++
		log.Info("popped", "post", mut.Item.ID, "size", r.stack.Len())
		if err := r.ledger.ForgetAuthor(ctx, mut.Item.ID); err != nil {
			log.Warn("unable to forget author", "post", mut.Item.ID, "err", err)
		}
	default:
		rep.Failed++
		log.Warn("stack left unchanged", "command", cmd.Kind)
	}
	return nil
}
