package repository

import (
	"context"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// PaperRepository manages the local paper cache.
// Papers discovered from bibliographic providers are upserted here so that
// library references (favorites, ratings, history) always resolve locally.
type PaperRepository interface {
	// Upsert inserts a paper or updates the existing row with the same ID.
	// Fresh provider data wins for counts; absent fields never erase stored
	// values. Returns the stored paper with database timestamps populated.
	// Returns domain.ErrInvalidInput if the paper fails validation.
	Upsert(ctx context.Context, paper *domain.Paper) (*domain.Paper, error)

	// BulkUpsert upserts multiple papers in a single batched roundtrip.
	// Returned papers are in input order with database timestamps populated.
	// Returns domain.ErrInvalidInput if any paper fails validation.
	BulkUpsert(ctx context.Context, papers []*domain.Paper) ([]*domain.Paper, error)

	// Get retrieves a paper by identifier. The identifier is matched against
	// the primary ID first, then against the stored arXiv and Semantic Scholar
	// cross-reference IDs, so that a paper saved under one provider's identity
	// is still found when referenced by the other's.
	// Returns domain.ErrNotFound if no matching paper exists.
	Get(ctx context.Context, id string) (*domain.Paper, error)

	// GetByIDs retrieves multiple papers by their primary IDs.
	// Missing IDs are silently skipped; result order follows the input.
	// Returns nil, nil if the input slice is empty.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Paper, error)
}
