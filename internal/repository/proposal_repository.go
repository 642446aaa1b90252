package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// ProposalRepository manages AI-generated research proposals.
type ProposalRepository interface {
	// Create persists a new proposal.
	// Returns domain.ErrInvalidInput if the proposal fails validation.
	Create(ctx context.Context, proposal *domain.Proposal) (*domain.Proposal, error)

	// Get retrieves a proposal by ID.
	// Returns domain.ErrNotFound if no matching proposal exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.Proposal, error)

	// ListByUser returns a user's proposals, most recent first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Proposal, error)

	// Delete removes a proposal owned by the given user.
	// Returns domain.ErrNotFound if the proposal does not exist or belongs
	// to a different user.
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
