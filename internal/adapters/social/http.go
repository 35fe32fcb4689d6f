// Package social contains the publishers and account clients behind
// social.Publisher and social.Account.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
)

const pageSize = 100

// HTTPClient talks to an X API v2 compatible endpoint with a bearer token.
type HTTPClient struct {
	baseURL string
	token   string
	userID  string
	http    *http.Client
	logger  logger.Logger
}

// NewHTTPClient creates a client acting as userID.
func NewHTTPClient(baseURL, token, userID string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		userID:  userID,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("social")
	}
	return c
}

type tweetDTO struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	PublicMetrics struct {
		LikeCount int `json:"like_count"`
	} `json:"public_metrics"`
}

func (t tweetDTO) post() social.Post {
	return social.Post{ID: t.ID, Text: t.Text, CreatedAt: t.CreatedAt, Likes: t.PublicMetrics.LikeCount}
}

type listResponse struct {
	Data []tweetDTO `json:"data"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

// Publish posts text.
func (c *HTTPClient) Publish(ctx context.Context, text string) (social.Post, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return social.Post{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	var resp struct {
		Data tweetDTO `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/2/tweets", body, &resp); err != nil {
		return social.Post{}, err
	}
	return resp.Data.post(), nil
}

// Delete removes a post.
func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/2/tweets/"+url.PathEscape(id), nil, nil)
}

// Timeline lists the account's own posts, newest first.
func (c *HTTPClient) Timeline(ctx context.Context, token string) (social.Page, error) {
	q := listParams()
	if token != "" {
		q.Set("pagination_token", token)
	}
	return c.list(ctx, "/2/users/"+url.PathEscape(c.userID)+"/tweets?"+q.Encode())
}

// Search runs a recent search query.
func (c *HTTPClient) Search(ctx context.Context, query, token string) (social.Page, error) {
	q := listParams()
	q.Set("query", query)
	if token != "" {
		q.Set("next_token", token)
	}
	return c.list(ctx, "/2/tweets/search/recent?"+q.Encode())
}

func listParams() url.Values {
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(pageSize))
	q.Set("tweet.fields", "created_at,public_metrics")
	return q
}

func (c *HTTPClient) list(ctx context.Context, path string) (social.Page, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return social.Page{}, err
	}
	page := social.Page{Posts: make([]social.Post, len(resp.Data)), NextToken: resp.Meta.NextToken}
	for i, t := range resp.Data {
		page.Posts[i] = t.post()
	}
	return page, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequest, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return rateLimitError(resp.Header)
	}
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrRequest, path, err)
	}
	return nil
}

// rateLimitError reads the x-rate-limit-* headers. Missing headers never
// look exhausted to the retry logic.
func rateLimitError(h http.Header) *social.RateLimitError {
	rl := &social.RateLimitError{Remaining: -1}
	if n, err := strconv.Atoi(h.Get("x-rate-limit-limit")); err == nil {
		rl.Limit = n
	}
	if n, err := strconv.Atoi(h.Get("x-rate-limit-remaining")); err == nil {
		rl.Remaining = n
	}
	if n, err := strconv.ParseInt(h.Get("x-rate-limit-reset"), 10, 64); err == nil {
		rl.Reset = time.Unix(n, 0).UTC()
	}
	return rl
}
