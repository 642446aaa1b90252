package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// Compile-time interface verification.
var _ ProposalRepository = (*PgProposalRepository)(nil)

// PgProposalRepository is a PostgreSQL implementation of ProposalRepository.
type PgProposalRepository struct {
	db DBTX
}

// NewPgProposalRepository creates a new PostgreSQL proposal repository.
func NewPgProposalRepository(db DBTX) *PgProposalRepository {
	return &PgProposalRepository{db: db}
}

// Create persists a new proposal.
func (r *PgProposalRepository) Create(ctx context.Context, proposal *domain.Proposal) (*domain.Proposal, error) {
	if proposal == nil {
		return nil, domain.NewValidationError("proposal", "proposal cannot be nil")
	}
	if proposal.UserID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if err := proposal.Validate(); err != nil {
		return nil, err
	}

	if proposal.ID == uuid.Nil {
		proposal.ID = uuid.New()
	}
	openProblems := proposal.OpenProblems
	if openProblems == nil {
		openProblems = []string{}
	}

	query := `
		INSERT INTO proposals (id, user_id, title, description, source_paper_ids, open_problems, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		proposal.ID, proposal.UserID, proposal.Title, proposal.Description,
		proposal.SourcePaperIDs, openProblems, time.Now().UTC(),
	).Scan(&proposal.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	return proposal, nil
}

// Get retrieves a proposal by ID.
func (r *PgProposalRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Proposal, error) {
	query := `
		SELECT id, user_id, title, description, source_paper_ids, open_problems, created_at
		FROM proposals
		WHERE id = $1`

	var p domain.Proposal
	err := r.db.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.SourcePaperIDs, &p.OpenProblems, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("proposal", id.String())
		}
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	return &p, nil
}

// ListByUser returns a user's proposals, most recent first.
func (r *PgProposalRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Proposal, error) {
	applyPaginationDefaults(&limit, &offset)

	query := `
		SELECT id, user_id, title, description, source_paper_ids, open_problems, created_at
		FROM proposals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	proposals := make([]*domain.Proposal, 0, limit)
	for rows.Next() {
		var p domain.Proposal
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.SourcePaperIDs, &p.OpenProblems, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposals: %w", err)
	}

	return proposals, nil
}

// Delete removes a proposal owned by the given user.
func (r *PgProposalRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM proposals WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("proposal", id.String())
	}
	return nil
}
