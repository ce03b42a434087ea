// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package twittertest implements an in-memory fake of the parts of the X API
// v2 the bot uses.
package twittertest

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"go.astrophena.name/pushpopbot/internal/social"
)

// Default credentials of a [Server].
const (
	Token    = "test-token"
	UserID   = "42"
	Username = "pushpopbot"
)

// Server is a fake X API server.
type Server struct {
	URL string

	// PageSize limits the number of results per page of timelines and
	// mentions.
	PageSize int

	mu       sync.Mutex
	token    string
	nextID   int64
	posts    []social.Post
	mentions []social.Mention
	failures map[string][]failure
	calls    []string
}

type failure struct {
	status int
	body   string
}

// NewServer starts a Server that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		PageSize: 100,
		token:    Token,
		nextID:   1000,
		failures: make(map[string][]failure),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /2/users/me", s.me)
	mux.HandleFunc("GET /2/users/{id}/tweets", s.timeline)
	mux.HandleFunc("GET /2/users/{id}/mentions", s.listMentions)
	mux.HandleFunc("POST /2/tweets", s.create)
	mux.HandleFunc("DELETE /2/tweets/{id}", s.delete)
	mux.HandleFunc("POST /2/oauth2/token", s.refresh)

	srv := httptest.NewServer(s.auth(mux))
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// SetToken changes the access token the server accepts.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// AddPost adds a post to the bot's timeline and returns it.
func (s *Server) AddPost(text string, inReplyTo int64) social.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := social.Post{ID: s.nextID, Text: text, InReplyTo: inReplyTo}
	s.nextID++
	s.posts = append(s.posts, p)
	return p
}

// AddMention adds a mention of the bot.
func (s *Server) AddMention(m social.Mention) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mentions = append(s.mentions, m)
}

// Posts returns the bot's posts, oldest first.
func (s *Server) Posts() []social.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.posts)
}

// Calls returns every write the server received, like
// `post "text"`, `reply 5 "text"` or `delete 1000`.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// FailNext makes the next request matching pattern fail with status and a
// JSON problem detail. Patterns are "GET /2/users/tweets",
// "GET /2/users/mentions", "POST /2/tweets" and "DELETE /2/tweets".
func (s *Server) FailNext(pattern string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, _ := json.Marshal(map[string]any{"title": http.StatusText(status), "detail": detail, "status": status})
	s.failures[pattern] = append(s.failures[pattern], failure{status: status, body: string(body)})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/oauth2/token" {
			s.mu.Lock()
			want := "Bearer " + s.token
			s.mu.Unlock()
			if r.Header.Get("Authorization") != want {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// fail reports whether a failure was injected for pattern and writes it.
// s.mu must be held.
func (s *Server) fail(w http.ResponseWriter, pattern string) bool {
	fs := s.failures[pattern]
	if len(fs) == 0 {
		return false
	}
	f := fs[0]
	s.failures[pattern] = fs[1:]
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	fmt.Fprint(w, f.body)
	return true
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": UserID, "username": Username}})
}

type tweet struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	AuthorID         string `json:"author_id,omitempty"`
	ReferencedTweets []ref  `json:"referenced_tweets,omitempty"`
}

type ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func toTweet(id int64, text string, inReplyTo int64) tweet {
	t := tweet{ID: strconv.FormatInt(id, 10), Text: text}
	if inReplyTo != 0 {
		t.ReferencedTweets = []ref{{Type: "replied_to", ID: strconv.FormatInt(inReplyTo, 10)}}
	}
	return t
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") != UserID {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail(w, "GET /2/users/tweets") {
		return
	}

	var all []tweet
	for _, p := range slices.Backward(s.posts) {
		all = append(all, toTweet(p.ID, p.Text, p.InReplyTo))
	}
	s.writePage(w, r, all, nil)
}

func (s *Server) listMentions(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("id") != UserID {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail(w, "GET /2/users/mentions") {
		return
	}

	var since int64
	if v := r.URL.Query().Get("since_id"); v != "" {
		var err error
		if since, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid since_id")
			return
		}
	}

	ms := slices.Clone(s.mentions)
	slices.SortFunc(ms, func(a, b social.Mention) int { return cmp.Compare(b.ID, a.ID) })

	var (
		all   []tweet
		users []map[string]string
	)
	seen := make(map[string]bool)
	for _, m := range ms {
		if m.ID <= since {
			continue
		}
		authorID := "u-" + m.Author
		t := toTweet(m.ID, m.Text, m.InReplyTo)
		t.AuthorID = authorID
		all = append(all, t)
		if !seen[authorID] {
			seen[authorID] = true
			users = append(users, map[string]string{"id": authorID, "username": m.Author})
		}
	}
	s.writePage(w, r, all, users)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, all []tweet, users []map[string]string) {
	start := 0
	if tok := r.URL.Query().Get("pagination_token"); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > len(all) {
			writeError(w, http.StatusBadRequest, "invalid pagination_token")
			return
		}
		start = n
	}
	end := min(start+s.PageSize, len(all))
	page := all[start:end]

	meta := map[string]any{"result_count": len(page)}
	if end < len(all) {
		meta["next_token"] = strconv.Itoa(end)
	}
	resp := map[string]any{"meta": meta}
	if len(page) > 0 {
		resp["data"] = page
	}
	if len(users) > 0 && len(page) > 0 {
		resp["includes"] = map[string]any{"users": users}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Reply *struct {
			InReplyToTweetID string `json:"in_reply_to_tweet_id"`
		} `json:"reply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var inReplyTo int64
	if req.Reply != nil {
		var err error
		if inReplyTo, err = strconv.ParseInt(req.Reply.InReplyToTweetID, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid in_reply_to_tweet_id")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if inReplyTo != 0 {
		s.calls = append(s.calls, fmt.Sprintf("reply %d %q", inReplyTo, req.Text))
	} else {
		s.calls = append(s.calls, fmt.Sprintf("post %q", req.Text))
	}
	if s.fail(w, "POST /2/tweets") {
		return
	}
	if social.Len(req.Text) > social.MaxLength {
		writeError(w, http.StatusBadRequest, "Your Tweet text is too long.")
		return
	}
	for _, p := range s.posts {
		if p.Text == req.Text {
			writeError(w, http.StatusForbidden, "You are not allowed to create a Tweet with duplicate content.")
			return
		}
	}

	p := social.Post{ID: s.nextID, Text: req.Text, InReplyTo: inReplyTo}
	s.nextID++
	s.posts = append(s.posts, p)
	writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]string{"id": strconv.FormatInt(p.ID, 10), "text": p.Text}})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("delete %d", id))
	if s.fail(w, "DELETE /2/tweets") {
		return
	}
	i := slices.IndexFunc(s.posts, func(p social.Post) bool { return p.ID == id })
	if i < 0 {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	s.posts = slices.Delete(s.posts, i, i+1)
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"deleted": true}})
}

// RefreshToken is the refresh token the server exchanges for [Token].
const RefreshToken = "test-refresh-token"

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := r.BasicAuth(); !ok {
		writeError(w, http.StatusUnauthorized, "missing client credentials")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != RefreshToken {
		writeError(w, http.StatusBadRequest, "invalid refresh token")
		return
	}
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"token_type":    "bearer",
		"access_token":  token,
		"refresh_token": RefreshToken,
		"expires_in":    7200,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"title": http.StatusText(status), "detail": detail, "status": status})
}
