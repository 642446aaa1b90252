package providers

import (
	"context"
	"time"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// SearchParams defines the parameters for searching academic papers.
// All fields except Query are optional.
type SearchParams struct {
	// Query is the search query string (required).
	// The format varies by provider: arXiv accepts fielded clauses
	// (ti:, au:, abs:, cat:, all:), Semantic Scholar accepts free text.
	Query string

	// MaxResults limits the number of papers returned in a single request.
	// Providers may have their own maximum limits that override this value.
	// A value of 0 uses the provider's default limit.
	MaxResults int

	// Offset specifies the starting position for paginated results.
	Offset int
}

// SearchResult contains the results of a provider search operation.
type SearchResult struct {
	// Papers contains the papers returned by the search, already mapped
	// to the canonical shape. May be empty if nothing matched.
	Papers []*domain.Paper

	// TotalResults is the total number of papers matching the query,
	// regardless of pagination limits. This value is provided by the
	// provider API and may be an estimate for large result sets.
	TotalResults int

	// HasMore indicates whether additional results are available
	// beyond the current page.
	HasMore bool

	// NextOffset is the offset value to use for fetching the next page
	// of results. Only meaningful when HasMore is true.
	NextOffset int

	// Source identifies which provider produced these results.
	Source domain.SourceType

	// SearchDuration is the time taken to execute the search,
	// including network latency and response parsing.
	SearchDuration time.Duration
}

// Provider defines the interface that all bibliographic API clients implement.
//
// Implementations return typed errors: *domain.ExternalAPIError for upstream
// failures, *domain.NotFoundError when a paper does not exist. Absorbing
// provider failures (fail-soft) is the caller's decision, not the client's.
type Provider interface {
	// Search queries the provider for papers matching the given parameters.
	// The context should be used for cancellation and deadline propagation.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply rate limiting as needed
	//   - Transform provider-specific responses to domain.Paper
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves a specific paper by its provider-native identifier
	// (an arXiv ID or a Semantic Scholar paper ID).
	//
	// Returns an error wrapping domain.ErrNotFound if the paper does not exist.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// SourceType returns the type identifier for this provider.
	SourceType() domain.SourceType

	// Name returns a human-readable name for this provider.
	// Used for logging, metrics, and error attribution.
	Name() string

	// IsEnabled returns whether this provider is currently enabled
	// and available for searches.
	IsEnabled() bool
}
