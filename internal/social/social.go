// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package social defines the boundary between pushpopbot and the social
// network it posts to.
package social

import (
	"context"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxLength is the default maximum length of a post, as counted by [Len].
const MaxLength = 280

// Post is a post published by the bot's account.
type Post struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	// InReplyTo is the ID of the post this one replies to, or zero.
	InReplyTo int64 `json:"in_reply_to,omitempty"`
}

// IsReply reports whether p is a reply to another post.
func (p Post) IsReply() bool { return p.InReplyTo != 0 }

// Mention is an inbound post that mentions the bot.
type Mention struct {
	ID int64 `json:"id"`
	// Author is the handle of the mention's author, without the leading "@".
	Author    string `json:"author"`
	Text      string `json:"text"`
	InReplyTo int64  `json:"in_reply_to,omitempty"`
}

// Client talks to the social network on behalf of the bot's account.
// All methods may fail with a service error (rate limit, duplicate content,
// not found, auth failure).
type Client interface {
	// Timeline returns the bot's own posts, newest first.
	Timeline(ctx context.Context) ([]Post, error)
	// Mentions returns the mentions with an ID greater than sinceID, newest
	// first. A zero sinceID returns all available mentions.
	Mentions(ctx context.Context, sinceID int64) ([]Mention, error)
	// Post publishes text, as a reply to inReplyTo if it's not zero.
	Post(ctx context.Context, text string, inReplyTo int64) (Post, error)
	// Delete deletes the bot's post with the given ID.
	Delete(ctx context.Context, id int64) error
}

// Len returns the length of text the way the social network counts it: the
// number of code points after NFC normalization.
func Len(text string) int {
	return utf8.RuneCountInString(norm.NFC.String(text))
}
