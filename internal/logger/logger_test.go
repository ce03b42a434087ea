// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package logger

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestLogfWrite(t *testing.T) {
	t.Parallel()

	var got string
	f := Logf(func(format string, args ...any) { got = fmt.Sprintf(format, args...) })
	n, err := f.Write([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || got != "hello" {
		t.Fatalf("Write() = %d, logged %q", n, got)
	}
}

func TestNewLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf)

	l.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug record logged at Info level: %q", buf.String())
	}

	l.Level.Set(slog.LevelDebug)
	l.Debug("shown", "mention", 42)
	if !strings.Contains(buf.String(), "msg=shown mention=42") {
		t.Fatalf("debug record not logged: %q", buf.String())
	}
}
