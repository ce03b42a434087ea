// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package httplogger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := &http.Client{Transport: New(nil, logger)}

	resp, err := c.Get(srv.URL + "/2/users/me")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	out := buf.String()
	for _, want := range []string{`msg="http request"`, "method=GET", "/2/users/me", "status=418"} {
		if !strings.Contains(out, want) {
			t.Errorf("log must contain %q, got: %q", want, out)
		}
	}
}

func TestRoundTripError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := &http.Client{Transport: New(nil, logger)}

	if _, err := c.Get("http://127.0.0.1:0/"); err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(buf.String(), "err=") {
		t.Errorf("log must contain the error, got: %q", buf.String())
	}
}
