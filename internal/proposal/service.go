// Package proposal generates and manages AI-drafted research-theme proposals
// built from a user's favorited papers.
package proposal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/llm"
	"github.com/scholaris/paper-discovery-service/internal/observability"
	"github.com/scholaris/paper-discovery-service/internal/repository"
)

const (
	// DefaultListLimit is the page size when the caller does not specify one.
	DefaultListLimit = 20
	// MaxListLimit caps the proposal listing page size.
	MaxListLimit = 100
	// maxSourceFavorites caps how many favorites seed a proposal.
	maxSourceFavorites = 10
)

// Service generates proposals with the LLM completer and persists them.
type Service struct {
	proposals repository.ProposalRepository
	library   repository.LibraryRepository
	papers    repository.PaperRepository
	completer llm.Completer
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewService creates a proposal service. completer may be nil, which disables
// proposal generation; listing and retrieval still work.
func NewService(
	proposals repository.ProposalRepository,
	library repository.LibraryRepository,
	papers repository.PaperRepository,
	completer llm.Completer,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		proposals: proposals,
		library:   library,
		papers:    papers,
		completer: completer,
		logger:    logger.With().Str("component", "proposal_service").Logger(),
		metrics:   metrics,
	}
}

// Generate drafts a research proposal from the user's most recent favorites
// and persists it. Returns domain.ErrInvalidInput when the user has no
// favorites to draw from.
func (s *Service) Generate(ctx context.Context, userID string) (*domain.Proposal, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if s.completer == nil {
		return nil, fmt.Errorf("proposal generation is not configured: %w", domain.ErrServiceUnavailable)
	}

	favorites, err := s.library.ListFavorites(ctx, userID, maxSourceFavorites, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	if len(favorites) == 0 {
		return nil, domain.NewValidationError("favorites", "at least one favorite is required to generate a proposal")
	}

	paperIDs := make([]string, 0, len(favorites))
	for _, fav := range favorites {
		paperIDs = append(paperIDs, fav.PaperID)
	}
	papers, err := s.papers.GetByIDs(ctx, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorited papers: %w", err)
	}
	if len(papers) == 0 {
		return nil, domain.NewNotFoundError("papers", strings.Join(paperIDs, ","))
	}

	start := time.Now()
	draft, err := llm.GenerateProposal(ctx, s.completer, papers)
	if err != nil {
		s.metrics.RecordLLMRequestFailed("generate_proposal", s.completer.Model(), llmErrorType(err))
		return nil, err
	}
	s.metrics.RecordLLMRequest("generate_proposal", s.completer.Model(), time.Since(start).Seconds())

	sourceIDs := make([]string, 0, len(papers))
	for _, p := range papers {
		sourceIDs = append(sourceIDs, p.ID)
	}

	proposal := &domain.Proposal{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          draft.Title,
		Description:    draft.Description,
		SourcePaperIDs: sourceIDs,
		OpenProblems:   draft.OpenProblems,
	}
	stored, err := s.proposals.Create(ctx, proposal)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("proposal_id", stored.ID.String()).
		Int("source_papers", len(sourceIDs)).
		Msg("generated research proposal")
	return stored, nil
}

// Get retrieves one of the user's proposals by ID.
// Returns domain.ErrNotFound when the proposal belongs to a different user.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Proposal, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}

	proposal, err := s.proposals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.UserID != userID {
		return nil, domain.NewNotFoundError("proposal", id.String())
	}
	return proposal, nil
}

// List returns the user's proposals, most recent first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*domain.Proposal, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.proposals.ListByUser(ctx, userID, limit, offset)
}

// Delete removes one of the user's proposals.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.NewValidationError("user_id", "user ID is required")
	}
	return s.proposals.Delete(ctx, userID, id)
}

func llmErrorType(err error) string {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type != "" {
			return apiErr.Type
		}
		return "api_error"
	}
	return "internal"
}
