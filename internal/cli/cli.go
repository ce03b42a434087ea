// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package cli runs a command-line application with its flags, environment and
// usage text.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.astrophena.name/pushpopbot/internal/version"
)

// Main runs app in the operating system environment until it finishes or an
// interrupt or SIGTERM arrives, and exits with status 1 on error.
func Main(app App) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := Run(ctx, app, OSEnv())
	if err == nil {
		return
	}
	if isPrintableError(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

type unprintableError struct{ err error }

func (e *unprintableError) Error() string { return e.err.Error() }
func (e *unprintableError) Unwrap() error { return e.err }

func isPrintableError(err error) bool {
	if errors.Is(err, flag.ErrHelp) {
		return false
	}
	var ue *unprintableError
	return !errors.As(err, &ue)
}

// ErrExitVersion is returned by [Run] after printing the version.
var ErrExitVersion = &unprintableError{errors.New("version flag exit")}

// ErrInvalidArgs is wrapped by applications to report bad arguments:
//
//	return fmt.Errorf("%w: unknown command %q", cli.ErrInvalidArgs, name)
var ErrInvalidArgs = errors.New("invalid arguments")

// App is a command-line application.
type App interface {
	Run(context.Context, *Env) error
}

// HasFlags is an [App] that defines flags.
type HasFlags interface {
	App
	Flags(*flag.FlagSet)
}

// Env is the environment an [App] runs in.
type Env struct {
	Args   []string
	Getenv func(string) string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSEnv returns the current operating system environment.
func OSEnv() *Env {
	return &Env{
		Args:   os.Args[1:],
		Getenv: os.Getenv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run parses the flags of app from env.Args and runs it with the remaining
// arguments.
func Run(ctx context.Context, app App, env *Env) error {
	flags := flag.NewFlagSet(version.CmdName(), flag.ContinueOnError)
	if fa, ok := app.(HasFlags); ok {
		fa.Flags(flags)
	}
	var showVersion bool
	if flags.Lookup("version") == nil {
		flags.BoolVar(&showVersion, "version", false, "Show version.")
	}

	flags.SetOutput(env.Stderr)
	flags.Usage = func() {
		if usageText != "" {
			fmt.Fprintln(env.Stderr, usageText)
		}
		fmt.Fprint(env.Stderr, "Available flags:\n\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(env.Args); err != nil {
		// The flag package has already printed it.
		return &unprintableError{err}
	}

	if showVersion {
		fmt.Fprint(env.Stderr, version.Version())
		return ErrExitVersion
	}
	env.Args = flags.Args()

	return app.Run(ctx, env)
}

var usageText string

// SetDocComment sets the usage text printed with -help to the first
// /* ... */ block of src, usually the embedded doc.go of the command.
func SetDocComment(src []byte) {
	_, after, ok := strings.Cut(string(src), "/*\n")
	if !ok {
		return
	}
	text, _, _ := strings.Cut(after, "\n*/")
	usageText = text
}
