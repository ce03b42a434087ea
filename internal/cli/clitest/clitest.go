// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest runs table tests against a [cli.App].
package clitest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.astrophena.name/pushpopbot/internal/cli"
)

// Case is a single invocation of an application.
type Case struct {
	Args  []string
	Stdin io.Reader
	Env   map[string]string
	// WantErr is matched with errors.Is. A nil WantErr means success.
	WantErr error
	// WantInStdout must be a substring of the standard output.
	WantInStdout string
}

// Run runs each case in parallel against a fresh application from setup.
func Run(t *testing.T, setup func(*testing.T) cli.App, cases map[string]Case) {
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			stdin := tc.Stdin
			if stdin == nil {
				stdin = strings.NewReader("")
			}
			var stdout, stderr bytes.Buffer
			env := &cli.Env{
				Args:   tc.Args,
				Getenv: func(key string) string { return tc.Env[key] },
				Stdin:  stdin,
				Stdout: &stdout,
				Stderr: &stderr,
			}

			err := cli.Run(context.Background(), setup(t), env)
			switch {
			case tc.WantErr == nil && err != nil:
				t.Fatalf("unexpected error: %v\nstderr:\n%s", err, stderr.String())
			case tc.WantErr != nil && !errors.Is(err, tc.WantErr):
				t.Fatalf("got error %v, want %v", err, tc.WantErr)
			}
			if !strings.Contains(stdout.String(), tc.WantInStdout) {
				t.Errorf("stdout must contain %q, got: %q", tc.WantInStdout, stdout.String())
			}
		})
	}
}
