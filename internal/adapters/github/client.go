// Package github reads the ranked repository list and owner profiles from
// the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/ranking"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// DefaultBaseURL is the public API.
const DefaultBaseURL = "https://api.github.com"

// Client implements ranking.Source and detect.MentionResolver.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	logger  logger.Logger

	mentions sync.Map // owner login -> handle
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("github")
	}
	return c
}

// FetchPage runs one page of the repository search.
func (c *Client) FetchPage(ctx context.Context, q ranking.Query, page int) ([]model.RankedEntity, error) {
	params := url.Values{}
	params.Set("q", q.Q)
	params.Set("sort", q.Sort)
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(q.PerPage))
	params.Set("page", strconv.Itoa(page))

	var resp searchResponse
	if err := c.get(ctx, "/search/repositories?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	if resp.IncompleteResults {
		c.logger.Warn(ctx, "search returned incomplete results", logger.Int("page", page))
	}
	out := make([]model.RankedEntity, len(resp.Items))
	for i, item := range resp.Items {
		out[i] = item.model()
	}
	return out, nil
}

// Mention returns the owner's twitter username, or "" when none is linked.
// Results are cached for the lifetime of the client.
func (c *Client) Mention(ctx context.Context, owner model.Owner) (string, error) {
	if v, ok := c.mentions.Load(owner.Login); ok {
		return v.(string), nil
	}
	path := "/users/" + url.PathEscape(owner.Login)
	switch owner.Type {
	case "Organization":
		path = "/orgs/" + url.PathEscape(owner.Login)
	case "User", "":
	default:
		c.logger.Warn(ctx, "unknown owner type", logger.String("owner", owner.Login), logger.String("type", owner.Type))
		path = "/orgs/" + url.PathEscape(owner.Login)
	}

	var acct accountDTO
	if err := c.get(ctx, path, &acct); err != nil {
		return "", err
	}
	handle := ""
	if acct.TwitterUsername != nil {
		handle = *acct.TwitterUsername
	}
	c.mentions.Store(owner.Login, handle)
	return handle, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: wait: %w", ErrRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequest, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		apiErr := responseError(resp)
		if errors.Is(apiErr, ErrRateLimited) {
			metrics.RecordSourceRateLimited()
			c.logger.Warn(ctx, "github rate limit hit",
				logger.String("path", path), logger.Time("reset", apiErr.Reset))
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrRequest, path, err)
	}
	return nil
}

func responseError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Remaining: -1}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e errorDTO
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		apiErr.Message = e.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiErr.Remaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			apiErr.Reset = time.Unix(n, 0).UTC()
		}
	}
	return apiErr
}
