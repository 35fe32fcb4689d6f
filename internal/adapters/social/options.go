package social

import (
	"net/http"

	"github.com/okian/startrack/pkg/logger"
)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = l
	}
}
