// Package branch validates and normalizes branch ("sucursal") identifiers
// against the fixed set configured at startup.
package branch

import (
	"fmt"
	"strings"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// Registry holds the allowed branch set. The set is fixed at construction and
// never mutated afterwards, so lookups are safe for concurrent use.
type Registry struct {
	allowed map[string]struct{}
	order   []string
}

// New builds a Registry from the configured branch names. Entries that
// normalize to the empty string are dropped and duplicates collapse.
func New(allowed []string) *Registry {
	r := &Registry{allowed: make(map[string]struct{}, len(allowed))}
	for _, raw := range allowed {
		b := Normalize(raw)
		if b == "" {
			continue
		}
		if _, ok := r.allowed[b]; ok {
			continue
		}
		r.allowed[b] = struct{}{}
		r.order = append(r.order, b)
	}
	return r
}

// Normalize folds case and strips every character outside [a-z0-9-]. The same
// normalization feeds both lookup keys and storage directory names, so two
// spellings of one branch can never map to two locations.
func Normalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve returns the normalized branch identifier, or ErrInvalidBranch
// before any I/O happens for the request.
func (r *Registry) Resolve(raw string) (string, error) {
	b := Normalize(raw)
	if b == "" {
		return "", fmt.Errorf("%w: empty branch id", utils.ErrInvalidBranch)
	}
	if _, ok := r.allowed[b]; !ok {
		return "", fmt.Errorf("%w: unknown branch %q", utils.ErrInvalidBranch, raw)
	}
	return b, nil
}

// All returns the allowed branches in configuration order.
func (r *Registry) All() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
