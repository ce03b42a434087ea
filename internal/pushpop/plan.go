// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package pushpop

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"

	"go.astrophena.name/pushpopbot/internal/social"
	"go.astrophena.name/pushpopbot/internal/stack"
)

// ErrTooLong is returned by [Planner.Plan] when the text it would post is
// longer than the configured maximum.
var ErrTooLong = errors.New("text is too long")

// OpKind is the kind of a remote operation.
type OpKind int

const (
	OpPost OpKind = iota
	OpReply
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpPost:
		return "post"
	case OpReply:
		return "reply"
	case OpDelete:
		return "delete"
	default:
		return "OpKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Op is a single remote operation.
type Op struct {
	Kind OpKind
	// Text is the text to post for OpPost and OpReply.
	Text string
	// InReplyTo is the post OpReply replies to.
	InReplyTo int64
	// Target is the post OpDelete deletes.
	Target int64
	// Needs lists indexes of earlier ops in the same plan that must have
	// succeeded for this one to be attempted.
	Needs []int
}

func (op Op) String() string {
	switch op.Kind {
	case OpPost:
		return fmt.Sprintf("post %q", op.Text)
	case OpReply:
		return fmt.Sprintf("reply %d %q", op.InReplyTo, op.Text)
	case OpDelete:
		return fmt.Sprintf("delete %d", op.Target)
	default:
		return op.Kind.String()
	}
}

// MutationKind is the kind of a [Mutation].
type MutationKind int

const (
	MutateNone MutationKind = iota
	MutatePush
	MutatePop
)

// Mutation describes the change to apply to the stack after a plan ran.
type Mutation struct {
	Kind MutationKind
	// Item is the pushed item for MutatePush and the popped one for
	// MutatePop.
	Item stack.Item
}

// Plan is the ordered list of operations a command requires, together with
// the stack change to make once their outcomes are known.
type Plan struct {
	Command Command
	Ops     []Op
	mutate  func([]Outcome) Mutation
}

// Mutation returns the stack change the outcomes of p.Ops confirm.
func (p *Plan) Mutation(outcomes []Outcome) Mutation {
	if p.mutate == nil {
		return Mutation{}
	}
	return p.mutate(outcomes)
}

func succeeded(outcomes []Outcome, i int) (Outcome, bool) {
	if i >= len(outcomes) || outcomes[i].Status != Succeeded {
		return Outcome{}, false
	}
	return outcomes[i], true
}

// Planner turns commands into plans.
type Planner struct {
	sanitizer *Sanitizer
	maxLen    int
}

// NewPlanner returns a Planner that refuses to post text longer than maxLen
// code points. If maxLen is not positive, social.MaxLength is used.
func NewPlanner(sanitizer *Sanitizer, maxLen int) *Planner {
	if maxLen <= 0 {
		maxLen = social.MaxLength
	}
	return &Planner{sanitizer: sanitizer, maxLen: maxLen}
}

// Plan returns the plan for cmd, issued by mention m, against a snapshot of
// the stack (oldest first).
func (p *Planner) Plan(cmd Command, m social.Mention, snapshot []stack.Item) (*Plan, error) {
	plan := &Plan{Command: cmd}

	switch cmd.Kind {
	case Push:
		if err := p.checkLen(cmd.Payload); err != nil {
			return nil, err
		}
		plan.Ops = []Op{{Kind: OpPost, Text: cmd.Payload}}
		plan.mutate = func(outcomes []Outcome) Mutation {
			out, ok := succeeded(outcomes, 0)
			if !ok {
				return Mutation{}
			}
			return Mutation{Kind: MutatePush, Item: stack.Item{
				ID:     out.Post.ID,
				Text:   cmp.Or(out.Post.Text, cmd.Payload),
				Author: m.Author,
			}}
		}

	case Pop:
		if len(snapshot) == 0 {
			return plan, nil
		}
		target := snapshot[len(snapshot)-1]
		text := "@" + cmp.Or(target.Author, m.Author) + " " + p.sanitizer.Sanitize(target.Text)
		if err := p.checkLen(text); err != nil {
			return nil, err
		}
		plan.Ops = []Op{
			{Kind: OpReply, Text: text, InReplyTo: m.ID},
			{Kind: OpDelete, Target: target.ID, Needs: []int{0}},
		}
		plan.mutate = func(outcomes []Outcome) Mutation {
			if _, ok := succeeded(outcomes, 1); !ok {
				return Mutation{}
			}
			return Mutation{Kind: MutatePop, Item: target}
		}
	}

	return plan, nil
}

func (p *Planner) checkLen(text string) error {
	if n := social.Len(text); n > p.maxLen {
		return fmt.Errorf("%w: %d characters, at most %d allowed", ErrTooLong, n, p.maxLen)
	}
	return nil
}
