package history

import "errors"

// ErrLookup wraps store failures while locating a historical point.
var ErrLookup = errors.New("history lookup failed")
