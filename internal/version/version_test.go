// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"go.astrophena.name/pushpopbot/internal/testutil"
)

func TestLoadInfo(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		bi          *debug.BuildInfo
		ok          bool
		wantVersion string
		wantCommit  string
	}{
		"no build info": {
			wantVersion: "devel",
		},
		"devel with vcs": {
			bi: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
					{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
				},
			},
			ok:          true,
			wantVersion: "devel",
			wantCommit:  "abc123",
		},
		"tagged": {
			bi:          &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}},
			ok:          true,
			wantVersion: "v1.2.3",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			i := loadInfo(func() (*debug.BuildInfo, bool) { return tc.bi, tc.ok })
			testutil.AssertEqual(t, i.Version, tc.wantVersion)
			testutil.AssertEqual(t, i.Commit, tc.wantCommit)
		})
	}
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	testutil.AssertEqual(t, userAgent(Info{Version: "v1.0.0"}), "pushpopbot/v1.0.0 (+https://astrophena.name/bleep-bloop)")
	testutil.AssertEqual(t, userAgent(Info{Version: "devel", Commit: "abc"}), "pushpopbot/abc (+https://astrophena.name/bleep-bloop)")
}

func TestInfoString(t *testing.T) {
	t.Parallel()

	i := Info{Name: "pushpopbot", Version: "devel", Go: "go1.24.0", OS: "linux", Arch: "amd64", Commit: "abc", BuiltAt: "now"}
	got := i.String()
	if !strings.HasPrefix(got, "pushpopbot devel (go1.24.0, linux/amd64)\n") {
		t.Fatalf("unexpected first line: %q", got)
	}
	testutil.AssertEqual(t, strings.Count(got, "\n"), 3)
}
