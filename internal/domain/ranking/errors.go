package ranking

import (
	"errors"
	"fmt"

	"github.com/okian/startrack/internal/domain/model"
)

// Sentinel kinds for ranking errors.
var (
	ErrIntegrity = errors.New("ranking integrity check failed")
	ErrFetch     = errors.New("ranking fetch failed")
	ErrDenylist  = errors.New("invalid denylist")
)

// IntegrityKind names the violated property.
type IntegrityKind string

// Integrity violations.
const (
	IntegrityCount IntegrityKind = "count"
	IntegrityOrder IntegrityKind = "order"
)

// IntegrityError reports why a fetched list was rejected. For order
// violations Index is the 0-based index of the first entry with more stars
// than its predecessor.
type IntegrityError struct {
	Kind     IntegrityKind
	Expected int
	Got      int
	Index    int
	Previous model.RankedEntity
	Current  model.RankedEntity
}

func (e *IntegrityError) Error() string {
	if e.Kind == IntegrityCount {
		return fmt.Sprintf("%s: expected %d entries, got %d", ErrIntegrity, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s: position %d %s (%d stars) has more stars than position %d %s (%d stars)",
		ErrIntegrity, e.Index+1, e.Current.FullName, e.Current.Stars, e.Index, e.Previous.FullName, e.Previous.Stars)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }
