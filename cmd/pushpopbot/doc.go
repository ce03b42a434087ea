// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Pushpopbot is a social media bot that keeps a stack of posts, driven by
mentions.

Mention the bot with "push <text>" and it posts the text. Mention it with
"pop" and it replies with the most recently pushed text, naming who pushed it,
and deletes the original post. The stack is the bot's own timeline without
replies, so it survives restarts.

Pushpopbot is a batch job: every invocation of the run command handles the
mentions that arrived since the previous one and exits. Run it periodically,
for example from a systemd timer.

# Usage

	$ pushpopbot [flags...] <command>

Commands:

  - run: process new mentions.
  - status: print the watermark and the current stack.
  - reset: delete every post of the bot and forget the watermark. Asks for
    confirmation unless -yes is passed. If all posts were deleted, the log
    file is cleared too.

# Environment Variables

  - TWITTER_ACCESS_TOKEN: OAuth 2.0 user access token of the bot account.
  - TWITTER_REFRESH_TOKEN, TWITTER_CLIENT_ID, TWITTER_CLIENT_SECRET: when set,
    a new access token is obtained with the refresh token if there is none.
  - TWITTER_API_URL: API base URL. Defaults to "https://api.twitter.com".
  - STATE_DIRECTORY: directory for the state and the run lock. Defaults to
    $XDG_STATE_HOME/pushpopbot.
  - STATE: where the state is kept: "mem:", "sqlite:<path>", a PostgreSQL URL
    or a JSON file path. Defaults to state.json in the state directory.
  - CONFIG: path to the config file. Defaults to config.star in the state
    directory.
  - LOG_FILE: append logs to this file instead of standard error.

Variables can also be loaded from a dotenv file with -env-file. Variables set
in the environment take precedence.

# Configuration

The config file is written in Starlark:

	handle = "@pushpopbot"
	max_post_length = 280
	delay = time.parse_duration("1s")

handle is the bot's own handle, stripped from mentions. max_post_length is
the longest text the bot posts; longer pushes are dropped. delay is the pause
before every call that changes something remotely.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/pushpopbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
