// Package recommend builds per-user paper recommendations by fanning out to
// the Semantic Scholar Recommendations API over the papers a user has shown
// interest in.
package recommend

import (
	"context"
	"regexp"
	"strings"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// arxivIDPattern matches modern arXiv identifiers like "2301.01234" with an
// optional version suffix ("2301.01234v2").
var arxivIDPattern = regexp.MustCompile(`^\d{4}\.\d{5}(v\d+)?$`)

// IsArxivID reports whether id looks like a modern arXiv identifier.
func IsArxivID(id string) bool {
	return arxivIDPattern.MatchString(id)
}

// StripVersion removes a trailing version suffix from an arXiv identifier.
// "2301.01234v2" becomes "2301.01234"; IDs without a version pass through.
func StripVersion(id string) string {
	if i := strings.LastIndex(id, "v"); i > 0 {
		suffix := id[i+1:]
		if suffix != "" && isDigits(suffix) {
			return id[:i]
		}
	}
	return id
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ArxivResolver resolves arXiv identifiers to Semantic Scholar paper IDs.
// The Semantic Scholar client satisfies this interface.
type ArxivResolver interface {
	ResolveArxivID(ctx context.Context, arxivID string) (string, error)
}

// Resolver normalizes seed paper identifiers for the Recommendations API,
// which only accepts Semantic Scholar paper IDs. arXiv-shaped IDs are
// version-stripped and resolved through Semantic Scholar; anything else is
// assumed to already be a Semantic Scholar ID and passes through unchanged.
type Resolver struct {
	client ArxivResolver
}

// NewResolver creates a Resolver backed by the given Semantic Scholar client.
func NewResolver(client ArxivResolver) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns the Semantic Scholar paper ID for the given identifier.
// Returns an error wrapping domain.ErrNotFound when an arXiv ID cannot be
// resolved; callers treat that seed as contributing zero results.
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	if !IsArxivID(id) {
		return id, nil
	}

	resolved, err := r.client.ResolveArxivID(ctx, StripVersion(id))
	if err != nil {
		return "", err
	}
	if resolved == "" {
		return "", domain.NewNotFoundError("paper", id)
	}
	return resolved, nil
}
