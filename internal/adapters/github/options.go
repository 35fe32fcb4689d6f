package github

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/startrack/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRate throttles outgoing requests. rps <= 0 disables throttling.
func WithRate(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}
