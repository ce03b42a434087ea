// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.astrophena.name/pushpopbot/internal/cli"
	"go.astrophena.name/pushpopbot/internal/config"
	"go.astrophena.name/pushpopbot/internal/filelock"
	"go.astrophena.name/pushpopbot/internal/httplogger"
	"go.astrophena.name/pushpopbot/internal/logger"
	"go.astrophena.name/pushpopbot/internal/pushpop"
	"go.astrophena.name/pushpopbot/internal/request"
	"go.astrophena.name/pushpopbot/internal/social/twitter"
	"go.astrophena.name/pushpopbot/internal/stack"
	"go.astrophena.name/pushpopbot/internal/state"
	"go.astrophena.name/pushpopbot/internal/store"

	"github.com/joho/godotenv"
)

var (
	errAlreadyRunning = errors.New("already running")
	errNotAllDeleted  = errors.New("some posts were not deleted")
)

func main() { cli.Main(new(bot)) }

type bot struct {
	// flags
	configPath string
	dry        bool
	envFile    string
	json       bool
	stateDSN   string
	verbose    bool
	yes        bool

	// configured from environment
	stateDir string
	getenv   func(string) string
	// httpc is the base HTTP client of the API client, if set.
	httpc *http.Client

	log *logger.Logger
	cfg config.Config
}

func (b *bot) Flags(fs *flag.FlagSet) {
	fs.StringVar(&b.configPath, "config", "", "Path to the config file (overrides $CONFIG).")
	fs.BoolVar(&b.dry, "dry", false, "Enable dry-run mode: log actions, but don't post, delete or save state.")
	fs.StringVar(&b.envFile, "env-file", "", "Load environment variables from a dotenv `file`.")
	fs.BoolVar(&b.json, "json", false, "Output in JSON format (honored by run and status).")
	fs.StringVar(&b.stateDSN, "state", "", "Where to keep the state (overrides $STATE).")
	fs.BoolVar(&b.verbose, "v", false, "Enable debug logging.")
	fs.BoolVar(&b.yes, "yes", false, "Don't ask for confirmation in reset.")
}

func (b *bot) Run(ctx context.Context, env *cli.Env) error {
	if len(env.Args) == 0 {
		return fmt.Errorf("%w: command is required, see -help for usage", cli.ErrInvalidArgs)
	}
	command := env.Args[0]
	if len(env.Args) > 1 {
		return fmt.Errorf("%w: %s command takes no arguments", cli.ErrInvalidArgs, command)
	}
	switch command {
	case "run", "status", "reset":
	default:
		return fmt.Errorf("%w: no such command %q", cli.ErrInvalidArgs, command)
	}

	b.getenv = env.Getenv
	if b.envFile != "" {
		vars, err := godotenv.Read(b.envFile)
		if err != nil {
			return fmt.Errorf("loading %s: %w", b.envFile, err)
		}
		b.getenv = func(key string) string { return cmp.Or(env.Getenv(key), vars[key]) }
	}

	logw := env.Stderr
	if path := b.getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logw = f
	}
	b.log = logger.New(logw)
	// Enable debug logging in dry-run mode.
	if b.verbose || b.dry {
		b.log.Level.Set(slog.LevelDebug)
	}
	if b.verbose && b.httpc == nil {
		b.httpc = &http.Client{
			Transport: httplogger.New(nil, b.log.Logger),
			Timeout:   request.DefaultClient.Timeout,
		}
	}

	b.stateDir = cmp.Or(b.stateDir, b.getenv("STATE_DIRECTORY"))
	if b.stateDir == "" {
		xdgStateHome := b.getenv("XDG_STATE_HOME")
		if xdgStateHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			xdgStateHome = filepath.Join(home, ".local", "state")
		}
		b.stateDir = filepath.Join(xdgStateHome, "pushpopbot")
	}
	if err := os.MkdirAll(b.stateDir, 0o700); err != nil {
		return err
	}

	var err error
	b.cfg, err = config.Load(cmp.Or(b.configPath, b.getenv("CONFIG"), filepath.Join(b.stateDir, "config.star")), b.logf)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	b.log.Debug("loaded config", "handle", b.cfg.Handle, "max_post_length", b.cfg.MaxPostLength, "delay", b.cfg.Delay)

	switch command {
	case "run":
		return b.run(ctx, env.Stdout)
	case "status":
		return b.status(ctx, env.Stdout)
	default:
		return b.reset(ctx, env.Stdin, env.Stdout)
	}
}

func (b *bot) logf(format string, args ...any) { b.log.Info(fmt.Sprintf(format, args...)) }

func (b *bot) client(ctx context.Context) (*twitter.Client, error) {
	c, err := twitter.New(ctx, twitter.Config{
		APIURL:       b.getenv("TWITTER_API_URL"),
		AccessToken:  b.getenv("TWITTER_ACCESS_TOKEN"),
		RefreshToken: b.getenv("TWITTER_REFRESH_TOKEN"),
		ClientID:     b.getenv("TWITTER_CLIENT_ID"),
		ClientSecret: b.getenv("TWITTER_CLIENT_SECRET"),
		HTTPClient:   b.httpc,
		Logger:       b.log.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: set TWITTER_ACCESS_TOKEN", err)
	}
	return c, nil
}

func (b *bot) openState(ctx context.Context) (*state.Store, error) {
	dsn := cmp.Or(b.stateDSN, b.getenv("STATE"), filepath.Join(b.stateDir, "state.json"))
	kv, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}
	return state.New(kv), nil
}

func (b *bot) lockPath() string { return filepath.Join(b.stateDir, ".run.lock") }

func (b *bot) lock() (*filelock.Lock, error) {
	l, err := filelock.Acquire(b.lockPath())
	if errors.Is(err, filelock.ErrAlreadyLocked) {
		return nil, errAlreadyRunning
	}
	return l, err
}

func (b *bot) run(ctx context.Context, w io.Writer) error {
	client, err := b.client(ctx)
	if err != nil {
		return err
	}
	l, err := b.lock()
	if err != nil {
		return err
	}
	defer l.Release()

	st, err := b.openState(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := pushpop.NewRunner(pushpop.Config{
		Client:        client,
		Ledger:        st,
		Handle:        b.cfg.Handle,
		MaxPostLength: b.cfg.MaxPostLength,
		Delay:         b.cfg.Delay,
		DryRun:        b.dry,
		Logger:        b.log.Logger,
	})
	if err != nil {
		return err
	}

	rep, err := r.Run(ctx)
	if err != nil {
		return err
	}
	b.log.Info(
		"finished",
		"mentions", rep.Mentions,
		"pushes", rep.Pushes,
		"pops", rep.Pops,
		"empty_pops", rep.EmptyPops,
		"ignored", rep.Ignored,
		"failed", rep.Failed,
		"stack_size", rep.StackSize,
		"watermark", rep.Watermark,
		"duration", rep.Duration,
	)
	if b.json {
		return writeJSON(w, rep)
	}
	return nil
}

func (b *bot) status(ctx context.Context, w io.Writer) error {
	client, err := b.client(ctx)
	if err != nil {
		return err
	}
	st, err := b.openState(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	wm, err := st.Watermark(ctx)
	if err != nil {
		return err
	}
	posts, err := client.Timeline(ctx)
	if err != nil {
		return err
	}
	s := stack.FromTimeline(posts, func(id int64) string {
		author, err := st.Author(ctx, id)
		if err != nil {
			b.log.Warn("unable to look up author", "post", id, "err", err)
		}
		return author
	})

	running := filelock.IsLocked(b.lockPath())
	if b.json {
		return writeJSON(w, struct {
			Running   bool         `json:"running"`
			Watermark int64        `json:"watermark"`
			Stack     []stack.Item `json:"stack"`
		}{running, wm, s.Snapshot()})
	}

	if running {
		fmt.Fprintln(w, "a run is in progress")
	}
	if wm == 0 {
		fmt.Fprintln(w, "watermark: none")
	} else {
		fmt.Fprintf(w, "watermark: %d\n", wm)
	}
	fmt.Fprintf(w, "stack: %d item(s), top last\n", s.Len())
	for _, it := range s.Snapshot() {
		author := "unknown"
		if it.Author != "" {
			author = "@" + it.Author
		}
		fmt.Fprintf(w, "  %d %q (%s)\n", it.ID, it.Text, author)
	}
	return nil
}

func (b *bot) reset(ctx context.Context, r io.Reader, w io.Writer) error {
	if !b.yes && !b.dry {
		fmt.Fprint(w, "This deletes every post of the bot and forgets the watermark. Continue? [y/N] ")
		answer, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	client, err := b.client(ctx)
	if err != nil {
		return err
	}
	l, err := b.lock()
	if err != nil {
		return err
	}
	defer l.Release()

	st, err := b.openState(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	posts, err := client.Timeline(ctx)
	if err != nil {
		return err
	}
	ops := make([]pushpop.Op, 0, len(posts))
	for _, p := range posts {
		ops = append(ops, pushpop.Op{Kind: pushpop.OpDelete, Target: p.ID})
	}

	if b.dry {
		b.log.Info("would delete posts and reset the watermark", "posts", len(ops))
		return nil
	}

	outcomes, err := pushpop.NewExecutor(client, b.cfg.Delay, b.log.Logger).Execute(ctx, ops)
	if err != nil {
		return err
	}
	var failed int
	for _, out := range outcomes {
		if out.Status != pushpop.Succeeded {
			failed++
			continue
		}
		if err := st.ForgetAuthor(ctx, out.Op.Target); err != nil {
			b.log.Warn("unable to forget author", "post", out.Op.Target, "err", err)
		}
	}

	if err := st.ResetWatermark(ctx); err != nil {
		return err
	}
	if path := b.getenv("LOG_FILE"); path != "" && failed == 0 {
		if err := os.Truncate(path, 0); err != nil {
			return fmt.Errorf("clearing log: %w", err)
		}
	}
	b.log.Info("reset", "deleted", len(outcomes)-failed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", errNotAllDeleted, failed, len(outcomes))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
