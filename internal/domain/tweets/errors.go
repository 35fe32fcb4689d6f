package tweets

import "errors"

// ErrPublish wraps failures of the publishing collaborator.
var ErrPublish = errors.New("publish event")
