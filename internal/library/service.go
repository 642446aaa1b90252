// Package library orchestrates a user's saved papers: favorites with tags,
// like/dislike ratings, and viewing history.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/events"
	"github.com/scholaris/paper-discovery-service/internal/llm"
	"github.com/scholaris/paper-discovery-service/internal/observability"
	"github.com/scholaris/paper-discovery-service/internal/repository"
)

const (
	// DefaultListLimit is the page size when the caller does not specify one.
	DefaultListLimit = 50
	// MaxListLimit caps the page size for favorites and history listings.
	MaxListLimit = 200
)

// Service implements favorites, ratings, and history on top of the library
// repository. Activity events are published fire-and-forget; tag generation
// requires a configured LLM completer.
type Service struct {
	library   repository.LibraryRepository
	papers    repository.PaperRepository
	completer llm.Completer
	publisher events.Publisher
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewService creates a library service. completer may be nil, which disables
// tag generation; publisher may be nil, which disables activity events.
func NewService(
	library repository.LibraryRepository,
	papers repository.PaperRepository,
	completer llm.Completer,
	publisher events.Publisher,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		library:   library,
		papers:    papers,
		completer: completer,
		publisher: publisher,
		logger:    logger.With().Str("component", "library_service").Logger(),
		metrics:   metrics,
	}
}

// AddFavorite saves a paper to the user's favorites with an optional tag set.
func (s *Service) AddFavorite(ctx context.Context, userID, paperID string, tags []string) (*domain.Favorite, error) {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return nil, err
	}

	fav, err := s.library.AddFavorite(ctx, &domain.Favorite{
		UserID:  userID,
		PaperID: paperID,
		Tags:    normalizeTags(tags),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordFavorite("added")
	s.publisher.Publish(ctx, events.Event{
		Type:    events.TypeFavoriteAdded,
		UserID:  userID,
		PaperID: paperID,
	})
	s.logger.Debug().Str("user_id", userID).Str("paper_id", paperID).Msg("favorite added")
	return fav, nil
}

// RemoveFavorite deletes a paper from the user's favorites.
func (s *Service) RemoveFavorite(ctx context.Context, userID, paperID string) error {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return err
	}

	if err := s.library.RemoveFavorite(ctx, userID, paperID); err != nil {
		return err
	}

	s.metrics.RecordFavorite("removed")
	s.publisher.Publish(ctx, events.Event{
		Type:    events.TypeFavoriteRemoved,
		UserID:  userID,
		PaperID: paperID,
	})
	s.logger.Debug().Str("user_id", userID).Str("paper_id", paperID).Msg("favorite removed")
	return nil
}

// ToggleFavorite adds the paper to favorites if absent, otherwise removes it.
// The returned favorite is nil when the toggle removed an existing one.
func (s *Service) ToggleFavorite(ctx context.Context, userID, paperID string) (*domain.Favorite, bool, error) {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return nil, false, err
	}

	_, err = s.library.GetFavorite(ctx, userID, paperID)
	switch {
	case err == nil:
		if err := s.RemoveFavorite(ctx, userID, paperID); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	case errors.Is(err, domain.ErrNotFound):
		fav, err := s.AddFavorite(ctx, userID, paperID, nil)
		if err != nil {
			return nil, false, err
		}
		return fav, true, nil
	default:
		return nil, false, err
	}
}

// GetFavorite returns the user's favorite for a paper, or reports that the
// paper is not favorited.
func (s *Service) GetFavorite(ctx context.Context, userID, paperID string) (*domain.Favorite, bool, error) {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return nil, false, err
	}

	fav, err := s.library.GetFavorite(ctx, userID, paperID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return fav, true, nil
}

// ListFavorites returns the user's favorites, most recent first, optionally
// restricted to those carrying the given tag.
func (s *Service) ListFavorites(ctx context.Context, userID, tag string, limit, offset int) ([]*domain.Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	favorites, err := s.library.ListFavorites(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return favorites, nil
	}
	filtered := make([]*domain.Favorite, 0, len(favorites))
	for _, fav := range favorites {
		if fav.HasTag(tag) {
			filtered = append(filtered, fav)
		}
	}
	return filtered, nil
}

// UpdateTags replaces the tag set on a favorite and returns the updated row.
func (s *Service) UpdateTags(ctx context.Context, userID, paperID string, tags []string) (*domain.Favorite, error) {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return nil, err
	}

	if err := s.library.UpdateFavoriteTags(ctx, userID, paperID, normalizeTags(tags)); err != nil {
		return nil, err
	}
	return s.library.GetFavorite(ctx, userID, paperID)
}

// GenerateTags asks the LLM for topical tags describing a favorited paper
// and persists them on the favorite.
func (s *Service) GenerateTags(ctx context.Context, userID, paperID string) ([]string, error) {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return nil, err
	}
	if s.completer == nil {
		return nil, fmt.Errorf("tag generation is not configured: %w", domain.ErrServiceUnavailable)
	}

	if _, err := s.library.GetFavorite(ctx, userID, paperID); err != nil {
		return nil, err
	}
	paper, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tags, err := llm.GenerateTags(ctx, s.completer, paper.Title, paper.Abstract)
	if err != nil {
		s.metrics.RecordLLMRequestFailed("generate_tags", s.completer.Model(), llmErrorType(err))
		return nil, err
	}
	s.metrics.RecordLLMRequest("generate_tags", s.completer.Model(), time.Since(start).Seconds())

	if err := s.library.UpdateFavoriteTags(ctx, userID, paperID, tags); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("paper_id", paperID).
		Strs("tags", tags).
		Msg("generated favorite tags")
	return tags, nil
}

// RatePaper records a like/dislike rating, replacing any previous rating by
// the same user on the same paper.
func (s *Service) RatePaper(ctx context.Context, userID, paperID string, value int) (*domain.Rating, error) {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return nil, err
	}

	rating := &domain.Rating{
		ID:      uuid.New(),
		UserID:  userID,
		PaperID: paperID,
		Value:   value,
	}
	if err := rating.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.library.UpsertRating(ctx, rating)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRating(ratingLabel(value))
	s.logger.Debug().Str("user_id", userID).Str("paper_id", paperID).Int("value", value).Msg("paper rated")
	return stored, nil
}

// DeleteRating removes the user's rating on a paper.
func (s *Service) DeleteRating(ctx context.Context, userID, paperID string) error {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return err
	}
	return s.library.DeleteRating(ctx, userID, paperID)
}

// ListRatings returns all of the user's ratings, most recent first.
func (s *Service) ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	return s.library.ListRatings(ctx, userID)
}

// RecordView appends a paper view to the user's history, with an optional
// primary category for later filtering.
func (s *Service) RecordView(ctx context.Context, userID, paperID, category string) (*domain.HistoryEntry, error) {
	userID, paperID, err := requireIDs(userID, paperID)
	if err != nil {
		return nil, err
	}

	entry, err := s.library.AddHistory(ctx, &domain.HistoryEntry{
		ID:       uuid.New(),
		UserID:   userID,
		PaperID:  paperID,
		Category: strings.TrimSpace(category),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordHistory()
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypePaperViewed,
		UserID:   userID,
		PaperID:  paperID,
		Category: entry.Category,
	})
	return entry, nil
}

// ListHistory returns the user's viewing history, most recent first,
// optionally restricted to a category.
func (s *Service) ListHistory(ctx context.Context, userID, category string, limit, offset int) ([]*domain.HistoryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	entries, err := s.library.ListHistory(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return entries, nil
	}
	filtered := make([]*domain.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Category == category {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

func requireIDs(userID, paperID string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", "", domain.NewValidationError("user_id", "user ID is required")
	}
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return "", "", domain.NewValidationError("paper_id", "paper ID is required")
	}
	return userID, paperID, nil
}

// normalizeTags trims whitespace, drops empties, and removes duplicates
// while preserving order.
func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func ratingLabel(value int) string {
	if value == domain.RatingLike {
		return "like"
	}
	return "dislike"
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
