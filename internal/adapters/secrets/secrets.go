// Package secrets resolves credentials from the environment or mounted files.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvPrefix precedes the upper-cased secret name in the environment.
const EnvPrefix = "STARTRACK_SECRET_"

// ErrNotFound is returned when neither source has the secret.
var ErrNotFound = errors.New("secret not found")

// Accessor reads secrets. The environment wins over files.
type Accessor struct {
	dir    string
	lookup func(string) (string, bool)
}

// NewAccessor reads files from dir.
func NewAccessor(dir string) *Accessor {
	return &Accessor{dir: dir, lookup: os.LookupEnv}
}

// Get returns the trimmed secret value.
func (a *Accessor) Get(_ context.Context, name string) (string, error) {
	env := EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if v, ok := a.lookup(env); ok && v != "" {
		return strings.TrimSpace(v), nil
	}
	if a.dir != "" && !strings.ContainsAny(name, `/\`) {
		b, err := os.ReadFile(filepath.Join(a.dir, name))
		if err == nil {
			return strings.TrimSpace(string(b)), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("read secret %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Optional returns the secret or "" when it is not configured.
func (a *Accessor) Optional(ctx context.Context, name string) (string, error) {
	v, err := a.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
