// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"testing"
)

type flagApp struct {
	name string
	args []string
}

func (a *flagApp) Flags(fs *flag.FlagSet) { fs.StringVar(&a.name, "name", "", "Name.") }

func (a *flagApp) Run(ctx context.Context, env *Env) error {
	a.args = env.Args
	return nil
}

func testEnv(args ...string) (*Env, *bytes.Buffer) {
	var stderr bytes.Buffer
	return &Env{
		Args:   args,
		Getenv: func(string) string { return "" },
		Stdin:  strings.NewReader(""),
		Stdout: new(bytes.Buffer),
		Stderr: &stderr,
	}, &stderr
}

func TestRunParsesFlags(t *testing.T) {
	t.Parallel()

	app := new(flagApp)
	env, _ := testEnv("-name", "bot", "run", "extra")
	if err := Run(context.Background(), app, env); err != nil {
		t.Fatal(err)
	}
	if app.name != "bot" {
		t.Fatalf("name = %q, want %q", app.name, "bot")
	}
	if len(app.args) != 2 || app.args[0] != "run" {
		t.Fatalf("args = %v, want [run extra]", app.args)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	env, stderr := testEnv("-version")
	err := Run(context.Background(), new(flagApp), env)
	if !errors.Is(err, ErrExitVersion) {
		t.Fatalf("want ErrExitVersion, got %v", err)
	}
	if stderr.Len() == 0 {
		t.Fatal("version was not printed")
	}
	if isPrintableError(err) {
		t.Fatal("version exit must not be printed")
	}
}

func TestRunBadFlag(t *testing.T) {
	t.Parallel()

	env, _ := testEnv("-nope")
	err := Run(context.Background(), new(flagApp), env)
	if err == nil || isPrintableError(err) {
		t.Fatalf("want unprintable error, got %v", err)
	}
}

func TestIsPrintableError(t *testing.T) {
	t.Parallel()

	if !isPrintableError(fmt.Errorf("%w: boom", ErrInvalidArgs)) {
		t.Fatal("wrapped ErrInvalidArgs must be printable")
	}
	if isPrintableError(flag.ErrHelp) {
		t.Fatal("flag.ErrHelp must not be printable")
	}
}

func TestSetDocComment(t *testing.T) {
	defer func() { usageText = "" }()

	SetDocComment([]byte("// header\n\n/*\nBot does things.\n\n\t$ bot run\n*/\npackage main\n"))
	if usageText != "Bot does things.\n\n\t$ bot run" {
		t.Fatalf("usageText = %q", usageText)
	}

	env, stderr := testEnv("-help")
	if err := Run(context.Background(), new(flagApp), env); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("want flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(stderr.String(), "Bot does things.") {
		t.Fatalf("usage lacks the doc comment:\n%s", stderr.String())
	}
}
