// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package social

import (
	"strings"
	"testing"

	"go.astrophena.name/pushpopbot/internal/testutil"
)

func TestLen(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in   string
		want int
	}{
		"empty":                {in: "", want: 0},
		"ascii":                {in: "hello", want: 5},
		"emoji":                {in: "🙂🙂", want: 2},
		"precomposed":          {in: "caf\u00e9", want: 4},
		"combining normalized": {in: "cafe\u0301", want: 4},
		"limit":                {in: strings.Repeat("a", MaxLength), want: MaxLength},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqual(t, Len(tc.in), tc.want)
		})
	}
}

func TestPostIsReply(t *testing.T) {
	t.Parallel()
	testutil.AssertEqual(t, Post{ID: 1}.IsReply(), false)
	testutil.AssertEqual(t, Post{ID: 2, InReplyTo: 1}.IsReply(), true)
}
