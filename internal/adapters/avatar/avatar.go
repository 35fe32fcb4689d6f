// Package avatar fingerprints owner avatars so clients can tell when one
// changed without downloading it.
package avatar

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zeebo/blake3"
)

// maxSize bounds the bytes read from an avatar.
const maxSize = 4 << 20

// ErrFetch wraps download failures.
var ErrFetch = errors.New("fetch avatar")

// Hasher downloads images and hashes them with BLAKE3.
type Hasher struct {
	http *http.Client
}

// NewHasher creates a Hasher; h may be nil.
func NewHasher(h *http.Client) *Hasher {
	if h == nil {
		h = &http.Client{Timeout: 15 * time.Second}
	}
	return &Hasher{http: h}
}

// Hash returns the hex BLAKE3-256 digest of the image at url.
func (h *Hasher) Hash(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	hasher := blake3.New()
	if _, err := io.Copy(hasher, io.LimitReader(resp.Body, maxSize)); err != nil {
		return "", fmt.Errorf("%w: read: %w", ErrFetch, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Sum hashes data directly.
func Sum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
