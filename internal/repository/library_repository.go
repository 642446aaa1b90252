package repository

import (
	"context"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// LibraryRepository manages per-user favorites, ratings, and viewing history.
type LibraryRepository interface {
	// AddFavorite marks a paper as a favorite for a user.
	// Returns domain.ErrAlreadyExists if the favorite already exists.
	// Returns domain.ErrNotFound if the paper is not in the local cache.
	AddFavorite(ctx context.Context, fav *domain.Favorite) (*domain.Favorite, error)

	// RemoveFavorite deletes a user's favorite.
	// Returns domain.ErrNotFound if the favorite does not exist.
	RemoveFavorite(ctx context.Context, userID, paperID string) error

	// GetFavorite retrieves a single favorite.
	// Returns domain.ErrNotFound if the favorite does not exist.
	GetFavorite(ctx context.Context, userID, paperID string) (*domain.Favorite, error)

	// ListFavorites returns a user's favorites, most recent first.
	ListFavorites(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error)

	// UpdateFavoriteTags replaces the tag set on a favorite.
	// Returns domain.ErrNotFound if the favorite does not exist.
	UpdateFavoriteTags(ctx context.Context, userID, paperID string, tags []string) error

	// UpsertRating records a like/dislike rating, replacing any previous
	// rating by the same user on the same paper.
	// Returns domain.ErrInvalidInput if the rating fails validation.
	// Returns domain.ErrNotFound if the paper is not in the local cache.
	UpsertRating(ctx context.Context, rating *domain.Rating) (*domain.Rating, error)

	// DeleteRating removes a user's rating on a paper.
	// Returns domain.ErrNotFound if the rating does not exist.
	DeleteRating(ctx context.Context, userID, paperID string) error

	// ListRatings returns all of a user's ratings, most recent first.
	ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error)

	// AddHistory records that a user viewed a paper.
	// Returns domain.ErrNotFound if the paper is not in the local cache.
	AddHistory(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error)

	// ListHistory returns a user's viewing history, most recent first.
	ListHistory(ctx context.Context, userID string, limit, offset int) ([]*domain.HistoryEntry, error)
}
