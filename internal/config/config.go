// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config loads the bot's behaviour settings from a Starlark file.
//
// A config file assigns some of these globals:
//
//	handle = "@pushpopbot"                # own handle stripped from mentions
//	max_post_length = 280                 # longest text the bot posts
//	delay = time.parse_duration("1s")     # pause before every remote write
//
// Globals starting with an underscore are free for helpers. Any other
// unknown global is an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.astrophena.name/pushpopbot/internal/logger"
	"go.astrophena.name/pushpopbot/internal/social"

	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Config holds the bot's behaviour settings.
type Config struct {
	Handle        string        `json:"handle"`
	MaxPostLength int           `json:"max_post_length"`
	Delay         time.Duration `json:"delay"`
}

// Default returns the settings used when there is no config file.
func Default() Config {
	return Config{
		Handle:        "@pushpopbot",
		MaxPostLength: social.MaxLength,
		Delay:         time.Second,
	}
}

var validHandle = regexp.MustCompile(`^@[A-Za-z0-9_]{1,15}$`)

// Load reads the config file at path. A missing file yields [Default].
func Load(path string, logf logger.Logf) (Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return Parse(path, b, logf)
}

// Parse evaluates src as a config file named filename.
func Parse(filename string, src []byte, logf logger.Logf) (Config, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			TopLevelControl: true,
		},
		&starlark.Thread{
			Name:  filename,
			Print: func(_ *starlark.Thread, msg string) { logf("%s", msg) },
		},
		filename,
		src,
		starlark.StringDict{
			"time": starlarktime.Module,
		},
	)
	if err != nil {
		return Config{}, err
	}

	c := Default()
	names := globals.Keys()
	sort.Strings(names)
	for _, name := range names {
		v := globals[name]
		switch name {
		case "handle":
			s, ok := starlark.AsString(v)
			if !ok {
				return Config{}, fmt.Errorf("%s: handle must be a string, got %s", filename, v.Type())
			}
			c.Handle = "@" + strings.TrimPrefix(s, "@")
		case "max_post_length":
			n, err := starlark.AsInt32(v)
			if err != nil {
				return Config{}, fmt.Errorf("%s: max_post_length: %w", filename, err)
			}
			c.MaxPostLength = n
		case "delay":
			d, ok := v.(starlarktime.Duration)
			if !ok {
				return Config{}, fmt.Errorf("%s: delay must be a duration, got %s", filename, v.Type())
			}
			c.Delay = time.Duration(d)
		default:
			if !strings.HasPrefix(name, "_") {
				return Config{}, fmt.Errorf("%s: unknown setting %q", filename, name)
			}
		}
	}

	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

func (c Config) validate() error {
	if !validHandle.MatchString(c.Handle) {
		return fmt.Errorf("invalid handle %q", c.Handle)
	}
	if c.MaxPostLength <= 0 {
		return fmt.Errorf("max_post_length must be positive, got %d", c.MaxPostLength)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %v", c.Delay)
	}
	return nil
}
