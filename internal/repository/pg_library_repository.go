package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// PostgreSQL error codes relevant to library writes.
const (
	pgErrForeignKeyViolation = "23503"
	pgErrUniqueViolation     = "23505"
)

// Compile-time interface verification.
var _ LibraryRepository = (*PgLibraryRepository)(nil)

// PgLibraryRepository is a PostgreSQL implementation of LibraryRepository.
type PgLibraryRepository struct {
	db DBTX
}

// NewPgLibraryRepository creates a new PostgreSQL library repository.
func NewPgLibraryRepository(db DBTX) *PgLibraryRepository {
	return &PgLibraryRepository{db: db}
}

// AddFavorite marks a paper as a favorite for a user.
func (r *PgLibraryRepository) AddFavorite(ctx context.Context, fav *domain.Favorite) (*domain.Favorite, error) {
	if fav == nil {
		return nil, domain.NewValidationError("favorite", "favorite cannot be nil")
	}
	if fav.UserID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if fav.PaperID == "" {
		return nil, domain.NewValidationError("paper_id", "paper ID is required")
	}

	tags := fav.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO favorites (user_id, paper_id, tags, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query, fav.UserID, fav.PaperID, tags, time.Now().UTC()).
		Scan(&fav.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return nil, domain.NewAlreadyExistsError("favorite", fav.PaperID)
			case pgErrForeignKeyViolation:
				return nil, domain.NewNotFoundError("paper", fav.PaperID)
			}
		}
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	return fav, nil
}

// RemoveFavorite deletes a user's favorite.
func (r *PgLibraryRepository) RemoveFavorite(ctx context.Context, userID, paperID string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND paper_id = $2`,
		userID, paperID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("favorite", paperID)
	}
	return nil
}

// GetFavorite retrieves a single favorite.
func (r *PgLibraryRepository) GetFavorite(ctx context.Context, userID, paperID string) (*domain.Favorite, error) {
	query := `
		SELECT user_id, paper_id, tags, created_at
		FROM favorites
		WHERE user_id = $1 AND paper_id = $2`

	var fav domain.Favorite
	err := r.db.QueryRow(ctx, query, userID, paperID).
		Scan(&fav.UserID, &fav.PaperID, &fav.Tags, &fav.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("favorite", paperID)
		}
		return nil, fmt.Errorf("failed to get favorite: %w", err)
	}

	return &fav, nil
}

// ListFavorites returns a user's favorites, most recent first.
func (r *PgLibraryRepository) ListFavorites(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
	applyPaginationDefaults(&limit, &offset)

	query := `
		SELECT user_id, paper_id, tags, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]*domain.Favorite, 0, limit)
	for rows.Next() {
		var fav domain.Favorite
		if err := rows.Scan(&fav.UserID, &fav.PaperID, &fav.Tags, &fav.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, &fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}

	return favorites, nil
}

// UpdateFavoriteTags replaces the tag set on a favorite.
func (r *PgLibraryRepository) UpdateFavoriteTags(ctx context.Context, userID, paperID string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}

	result, err := r.db.Exec(ctx,
		`UPDATE favorites SET tags = $1 WHERE user_id = $2 AND paper_id = $3`,
		tags, userID, paperID)
	if err != nil {
		return fmt.Errorf("failed to update favorite tags: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("favorite", paperID)
	}
	return nil
}

// UpsertRating records a like/dislike rating, replacing any previous rating.
func (r *PgLibraryRepository) UpsertRating(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	if rating == nil {
		return nil, domain.NewValidationError("rating", "rating cannot be nil")
	}
	if rating.UserID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if err := rating.Validate(); err != nil {
		return nil, err
	}

	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}

	query := `
		INSERT INTO ratings (id, user_id, paper_id, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, paper_id) DO UPDATE SET
			value = EXCLUDED.value,
			created_at = EXCLUDED.created_at
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		rating.ID, rating.UserID, rating.PaperID, rating.Value, time.Now().UTC(),
	).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrForeignKeyViolation {
			return nil, domain.NewNotFoundError("paper", rating.PaperID)
		}
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}

	return rating, nil
}

// DeleteRating removes a user's rating on a paper.
func (r *PgLibraryRepository) DeleteRating(ctx context.Context, userID, paperID string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM ratings WHERE user_id = $1 AND paper_id = $2`,
		userID, paperID)
	if err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("rating", paperID)
	}
	return nil
}

// ListRatings returns all of a user's ratings, most recent first.
func (r *PgLibraryRepository) ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error) {
	query := `
		SELECT id, user_id, paper_id, value, created_at
		FROM ratings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(&rating.ID, &rating.UserID, &rating.PaperID, &rating.Value, &rating.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, &rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return ratings, nil
}

// AddHistory records that a user viewed a paper.
func (r *PgLibraryRepository) AddHistory(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	if entry == nil {
		return nil, domain.NewValidationError("entry", "history entry cannot be nil")
	}
	if entry.UserID == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if entry.PaperID == "" {
		return nil, domain.NewValidationError("paper_id", "paper ID is required")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO history (id, user_id, paper_id, category, viewed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING viewed_at`

	err := r.db.QueryRow(ctx, query,
		entry.ID, entry.UserID, entry.PaperID, nullableString(entry.Category), time.Now().UTC(),
	).Scan(&entry.ViewedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrForeignKeyViolation {
			return nil, domain.NewNotFoundError("paper", entry.PaperID)
		}
		return nil, fmt.Errorf("failed to add history entry: %w", err)
	}

	return entry, nil
}

// ListHistory returns a user's viewing history, most recent first.
func (r *PgLibraryRepository) ListHistory(ctx context.Context, userID string, limit, offset int) ([]*domain.HistoryEntry, error) {
	applyPaginationDefaults(&limit, &offset)

	query := `
		SELECT id, user_id, paper_id, category, viewed_at
		FROM history
		WHERE user_id = $1
		ORDER BY viewed_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.HistoryEntry, 0, limit)
	for rows.Next() {
		var entry domain.HistoryEntry
		var category *string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.PaperID, &category, &entry.ViewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if category != nil {
			entry.Category = *category
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}
