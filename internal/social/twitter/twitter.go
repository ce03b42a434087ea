// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package twitter implements [social.Client] over the X (Twitter) API v2.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.astrophena.name/pushpopbot/internal/request"
	"go.astrophena.name/pushpopbot/internal/social"

	"golang.org/x/oauth2"
)

// DefaultAPIURL is the base URL of the X API.
const DefaultAPIURL = "https://api.twitter.com"

const (
	pageSize = 100
	// The API serves at most 3200 of the most recent posts of a timeline.
	maxPages = 32
)

// ErrNoToken is returned by [New] when neither an access token nor a refresh
// token with client credentials is configured.
var ErrNoToken = errors.New("no access token or refresh token configured")

// Config configures a [Client].
type Config struct {
	// APIURL overrides DefaultAPIURL.
	APIURL string
	// AccessToken is an OAuth 2.0 user-context access token.
	AccessToken string
	// RefreshToken, ClientID and ClientSecret, when set, let the client
	// obtain a new access token once the current one is missing.
	RefreshToken string
	ClientID     string
	ClientSecret string
	// HTTPClient is the base client requests and token refreshes go through.
	// If nil, request.DefaultClient is used.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a [social.Client] for a single X account.
type Client struct {
	apiURL   string
	httpc    *http.Client
	scrubber *strings.Replacer
	slog     *slog.Logger

	mu     sync.Mutex
	userID string
	handle string
}

// New returns a Client authenticated with the tokens in cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{
		apiURL: strings.TrimSuffix(cfg.APIURL, "/"),
		slog:   cfg.Logger,
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.slog == nil {
		c.slog = slog.Default()
	}

	base := cfg.HTTPClient
	if base == nil {
		base = request.DefaultClient
	}

	var ts oauth2.TokenSource
	switch {
	case cfg.RefreshToken != "" && cfg.ClientID != "":
		conf := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  c.apiURL + "/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		}
		tokCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
		ts = conf.TokenSource(tokCtx, &oauth2.Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
		})
	case cfg.AccessToken != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	default:
		return nil, ErrNoToken
	}

	c.httpc = &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: base.Transport},
		Timeout:   base.Timeout,
	}

	var secrets []string
	for _, s := range []string{cfg.AccessToken, cfg.RefreshToken, cfg.ClientSecret} {
		if s != "" {
			secrets = append(secrets, s, "[EXPUNGED]")
		}
	}
	if len(secrets) > 0 {
		c.scrubber = strings.NewReplacer(secrets...)
	}

	return c, nil
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tweet struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	AuthorID         string `json:"author_id,omitempty"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets,omitempty"`
}

func (t tweet) inReplyTo() (int64, error) {
	for _, ref := range t.ReferencedTweets {
		if ref.Type == "replied_to" {
			return parseID(ref.ID)
		}
	}
	return 0, nil
}

type listResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []user `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

// Me returns the ID and handle of the authenticated account.
func (c *Client) Me(ctx context.Context) (id, handle string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != "" {
		return c.userID, c.handle, nil
	}

	resp, err := request.Make[struct {
		Data user `json:"data"`
	}](ctx, c.params(http.MethodGet, "/2/users/me", nil))
	if err != nil {
		return "", "", fmt.Errorf("looking up authenticated user: %w", err)
	}
	if resp.Data.ID == "" {
		return "", "", errors.New("looking up authenticated user: empty user ID")
	}
	c.userID, c.handle = resp.Data.ID, resp.Data.Username
	return c.userID, c.handle, nil
}

// Timeline implements [social.Client].
func (c *Client) Timeline(ctx context.Context) ([]social.Post, error) {
	id, _, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("max_results", strconv.Itoa(pageSize))
	q.Set("tweet.fields", "referenced_tweets")

	var posts []social.Post
	err = c.paginate(ctx, "/2/users/"+id+"/tweets", q, func(resp *listResponse) error {
		for _, t := range resp.Data {
			p, err := toPost(t)
			if err != nil {
				return err
			}
			posts = append(posts, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching timeline: %w", err)
	}
	return posts, nil
}

// Mentions implements [social.Client].
func (c *Client) Mentions(ctx context.Context, sinceID int64) ([]social.Mention, error) {
	id, _, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("max_results", strconv.Itoa(pageSize))
	q.Set("tweet.fields", "referenced_tweets,author_id")
	q.Set("expansions", "author_id")
	q.Set("user.fields", "username")
	if sinceID > 0 {
		q.Set("since_id", strconv.FormatInt(sinceID, 10))
	}

	var mentions []social.Mention
	err = c.paginate(ctx, "/2/users/"+id+"/mentions", q, func(resp *listResponse) error {
		handles := make(map[string]string, len(resp.Includes.Users))
		for _, u := range resp.Includes.Users {
			handles[u.ID] = u.Username
		}
		for _, t := range resp.Data {
			p, err := toPost(t)
			if err != nil {
				return err
			}
			mentions = append(mentions, social.Mention{
				ID:        p.ID,
				Author:    handles[t.AuthorID],
				Text:      p.Text,
				InReplyTo: p.InReplyTo,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching mentions: %w", err)
	}
	return mentions, nil
}

func (c *Client) paginate(ctx context.Context, path string, q url.Values, f func(*listResponse) error) error {
	for page := 0; page < maxPages; page++ {
		resp, err := request.Make[listResponse](ctx, c.params(http.MethodGet, path+"?"+q.Encode(), nil))
		if err != nil {
			return err
		}
		if err := f(&resp); err != nil {
			return err
		}
		if resp.Meta.NextToken == "" {
			return nil
		}
		q.Set("pagination_token", resp.Meta.NextToken)
	}
	c.slog.Warn("stopped paginating, too many pages", "path", path, "pages", maxPages)
	return nil
}

type createRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

// Post implements [social.Client].
func (c *Client) Post(ctx context.Context, text string, inReplyTo int64) (social.Post, error) {
	body := createRequest{Text: text}
	if inReplyTo != 0 {
		body.Reply = &struct {
			InReplyToTweetID string `json:"in_reply_to_tweet_id"`
		}{InReplyToTweetID: strconv.FormatInt(inReplyTo, 10)}
	}

	p := c.params(http.MethodPost, "/2/tweets", body)
	p.WantStatusCode = http.StatusCreated
	resp, err := request.Make[struct {
		Data tweet `json:"data"`
	}](ctx, p)
	if err != nil {
		return social.Post{}, fmt.Errorf("posting: %w", err)
	}

	id, err := parseID(resp.Data.ID)
	if err != nil {
		return social.Post{}, fmt.Errorf("posting: %w", err)
	}
	posted := social.Post{ID: id, Text: resp.Data.Text, InReplyTo: inReplyTo}
	if posted.Text == "" {
		posted.Text = text
	}
	return posted, nil
}

// Delete implements [social.Client].
func (c *Client) Delete(ctx context.Context, id int64) error {
	resp, err := request.Make[struct {
		Data struct {
			Deleted bool `json:"deleted"`
		} `json:"data"`
	}](ctx, c.params(http.MethodDelete, "/2/tweets/"+strconv.FormatInt(id, 10), nil))
	if err != nil {
		return fmt.Errorf("deleting %d: %w", id, err)
	}
	if !resp.Data.Deleted {
		return fmt.Errorf("deleting %d: not deleted", id)
	}
	return nil
}

func (c *Client) params(method, path string, body any) request.Params {
	return request.Params{
		Method:     method,
		URL:        c.apiURL + path,
		Body:       body,
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	}
}

func toPost(t tweet) (social.Post, error) {
	id, err := parseID(t.ID)
	if err != nil {
		return social.Post{}, err
	}
	inReplyTo, err := t.inReplyTo()
	if err != nil {
		return social.Post{}, err
	}
	return social.Post{ID: id, Text: t.Text, InReplyTo: inReplyTo}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post ID %q: %w", s, err)
	}
	return id, nil
}

var _ social.Client = (*Client)(nil)
