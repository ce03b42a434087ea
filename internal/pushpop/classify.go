// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package pushpop

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the kind of a [Command].
type Kind int

const (
	Ignore Kind = iota
	Push
	Pop
)

func (k Kind) String() string {
	switch k {
	case Push:
		return "push"
	case Pop:
		return "pop"
	default:
		return "ignore"
	}
}

// Command is a classified mention. Payload is only set for Push.
type Command struct {
	Kind    Kind
	Payload string
}

const (
	popToken  = "pop"
	pushToken = "push"
)

// Classify classifies sanitized mention text. Leading whitespace is ignored.
func Classify(text string) Command {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)

	if rest, ok := strings.CutPrefix(text, popToken); ok {
		// "pop", "pop!" and "pop today", but not "popsicle".
		r, _ := utf8.DecodeRuneInString(rest)
		if rest == "" || !unicode.IsLetter(r) {
			return Command{Kind: Pop}
		}
		return Command{Kind: Ignore}
	}

	if rest, ok := strings.CutPrefix(text, pushToken); ok {
		r, _ := utf8.DecodeRuneInString(rest)
		if rest == "" || !unicode.IsSpace(r) {
			return Command{Kind: Ignore}
		}
		payload := strings.TrimSpace(rest)
		if payload == "" {
			return Command{Kind: Ignore}
		}
		return Command{Kind: Push, Payload: payload}
	}

	return Command{Kind: Ignore}
}

// Sanitizer removes the bot's own handle from text.
type Sanitizer struct {
	rules []*regexp.Regexp
}

// NewSanitizer returns a Sanitizer for handle, with or without the leading
// "@". Matching is case-insensitive and the handle must end at a word
// boundary, so "@pushpopbot" does not match inside "@pushpopbot_fan".
func NewSanitizer(handle string) *Sanitizer {
	tok := `(?i:@` + regexp.QuoteMeta(strings.TrimPrefix(handle, "@")) + `)\b`
	// Leading, trailing and bare forms, in this order.
	return &Sanitizer{rules: []*regexp.Regexp{
		regexp.MustCompile(tok + `\s+`),
		regexp.MustCompile(`\s+` + tok),
		regexp.MustCompile(`\s*` + tok + `\s*`),
	}}
}

// Sanitize strips every occurrence of the handle together with the whitespace
// that separates it from the rest of text. Sanitize is idempotent.
func (s *Sanitizer) Sanitize(text string) string {
	for {
		prev := text
		for _, re := range s.rules {
			text = re.ReplaceAllString(text, "")
		}
		if text == prev {
			return text
		}
	}
}
