// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package pushpop

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.astrophena.name/pushpopbot/internal/social"
)

var errStub = errors.New("stub: operation failed")

// stubClient is an in-memory social.Client that records every write.
type stubClient struct {
	timeline    []social.Post // newest first
	mentions    []social.Mention
	ignoreSince bool
	postErr     map[string]error
	deleteErr   map[int64]error
	timelineErr error
	mentionsErr error
	// cancel, if set, is called by Post, which then fails with the context
	// error as an interrupted request would.
	cancel context.CancelFunc

	nextID   int64
	calls    []string
	sinceIDs []int64
}

func (c *stubClient) Timeline(ctx context.Context) ([]social.Post, error) {
	if c.timelineErr != nil {
		return nil, c.timelineErr
	}
	return slices.Clone(c.timeline), nil
}

func (c *stubClient) Mentions(ctx context.Context, sinceID int64) ([]social.Mention, error) {
	c.sinceIDs = append(c.sinceIDs, sinceID)
	if c.mentionsErr != nil {
		return nil, c.mentionsErr
	}
	var out []social.Mention
	for _, m := range c.mentions {
		if c.ignoreSince || m.ID > sinceID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b social.Mention) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (c *stubClient) Post(ctx context.Context, text string, inReplyTo int64) (social.Post, error) {
	if inReplyTo != 0 {
		c.calls = append(c.calls, fmt.Sprintf("reply %d %q", inReplyTo, text))
	} else {
		c.calls = append(c.calls, fmt.Sprintf("post %q", text))
	}
	if c.cancel != nil {
		c.cancel()
		return social.Post{}, ctx.Err()
	}
	if err := c.postErr[text]; err != nil {
		return social.Post{}, err
	}
	if c.nextID == 0 {
		c.nextID = 1000
	}
	p := social.Post{ID: c.nextID, Text: text, InReplyTo: inReplyTo}
	c.nextID++
	c.timeline = append([]social.Post{p}, c.timeline...)
	return p, nil
}

func (c *stubClient) Delete(ctx context.Context, id int64) error {
	c.calls = append(c.calls, fmt.Sprintf("delete %d", id))
	if err := c.deleteErr[id]; err != nil {
		return err
	}
	c.timeline = slices.DeleteFunc(c.timeline, func(p social.Post) bool { return p.ID == id })
	return nil
}

var _ social.Client = (*stubClient)(nil)
