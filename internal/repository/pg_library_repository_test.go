package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

func TestPgLibraryRepository_AddFavorite(t *testing.T) {
	ctx := context.Background()

	t.Run("adds favorite successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		now := time.Now().UTC()
		fav := &domain.Favorite{
			UserID:  "user-1",
			PaperID: "2301.01234",
			Tags:    []string{"transformers"},
		}

		mock.ExpectQuery("INSERT INTO favorites").
			WithArgs(fav.UserID, fav.PaperID, fav.Tags, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

		result, err := repo.AddFavorite(ctx, fav)
		require.NoError(t, err)
		assert.Equal(t, now, result.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to already exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		fav := &domain.Favorite{UserID: "user-1", PaperID: "2301.01234"}

		mock.ExpectQuery("INSERT INTO favorites").
			WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

		result, err := repo.AddFavorite(ctx, fav)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("maps foreign key violation to paper not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		fav := &domain.Favorite{UserID: "user-1", PaperID: "unknown"}

		mock.ExpectQuery("INSERT INTO favorites").
			WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

		result, err := repo.AddFavorite(ctx, fav)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("rejects missing user ID", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		result, err := repo.AddFavorite(ctx, &domain.Favorite{PaperID: "2301.01234"})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestPgLibraryRepository_RemoveFavorite(t *testing.T) {
	ctx := context.Background()

	t.Run("removes favorite", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)

		mock.ExpectExec("DELETE FROM favorites").
			WithArgs("user-1", "2301.01234").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err = repo.RemoveFavorite(ctx, "user-1", "2301.01234")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found when nothing deleted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)

		mock.ExpectExec("DELETE FROM favorites").
			WithArgs("user-1", "unknown").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.RemoveFavorite(ctx, "user-1", "unknown")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestPgLibraryRepository_ListFavorites(t *testing.T) {
	ctx := context.Background()

	t.Run("lists favorites most recent first", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		now := time.Now().UTC()

		rows := pgxmock.NewRows([]string{"user_id", "paper_id", "tags", "created_at"}).
			AddRow("user-1", "2301.01234", []string{"nlp"}, now).
			AddRow("user-1", "abc123", []string{}, now.Add(-time.Hour))

		mock.ExpectQuery("SELECT (.+) FROM favorites").
			WithArgs("user-1", 50, 0).
			WillReturnRows(rows)

		result, err := repo.ListFavorites(ctx, "user-1", 50, 0)
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "2301.01234", result[0].PaperID)
		assert.Equal(t, []string{"nlp"}, result[0].Tags)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies pagination defaults", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)

		mock.ExpectQuery("SELECT (.+) FROM favorites").
			WithArgs("user-1", defaultListLimit, 0).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "paper_id", "tags", "created_at"}))

		result, err := repo.ListFavorites(ctx, "user-1", 0, -5)
		require.NoError(t, err)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgLibraryRepository_UpdateFavoriteTags(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces tag set", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)

		mock.ExpectExec("UPDATE favorites SET tags").
			WithArgs([]string{"graphs", "attention"}, "user-1", "2301.01234").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.UpdateFavoriteTags(ctx, "user-1", "2301.01234", []string{"graphs", "attention"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil tags become empty set", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)

		mock.ExpectExec("UPDATE favorites SET tags").
			WithArgs([]string{}, "user-1", "2301.01234").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.UpdateFavoriteTags(ctx, "user-1", "2301.01234", nil)
		require.NoError(t, err)
	})

	t.Run("returns not found for missing favorite", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)

		mock.ExpectExec("UPDATE favorites SET tags").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.UpdateFavoriteTags(ctx, "user-1", "unknown", []string{"x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestPgLibraryRepository_UpsertRating(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts rating successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		now := time.Now().UTC()
		id := uuid.New()
		rating := &domain.Rating{
			UserID:  "user-1",
			PaperID: "2301.01234",
			Value:   domain.RatingLike,
		}

		mock.ExpectQuery("INSERT INTO ratings").
			WithArgs(pgxmock.AnyArg(), rating.UserID, rating.PaperID, rating.Value, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, now))

		result, err := repo.UpsertRating(ctx, rating)
		require.NoError(t, err)
		assert.Equal(t, id, result.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid rating value", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		rating := &domain.Rating{UserID: "user-1", PaperID: "2301.01234", Value: 5}

		result, err := repo.UpsertRating(ctx, rating)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("maps foreign key violation to paper not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		rating := &domain.Rating{UserID: "user-1", PaperID: "unknown", Value: domain.RatingDislike}

		mock.ExpectQuery("INSERT INTO ratings").
			WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

		result, err := repo.UpsertRating(ctx, rating)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestPgLibraryRepository_ListRatings(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgLibraryRepository(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "user_id", "paper_id", "value", "created_at"}).
		AddRow(uuid.New(), "user-1", "2301.01234", 1, now).
		AddRow(uuid.New(), "user-1", "abc123", -1, now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM ratings").
		WithArgs("user-1").
		WillReturnRows(rows)

	result, err := repo.ListRatings(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, domain.RatingLike, result[0].Value)
	assert.Equal(t, domain.RatingDislike, result[1].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgLibraryRepository_AddHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("adds history entry", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		now := time.Now().UTC()
		entry := &domain.HistoryEntry{
			UserID:   "user-1",
			PaperID:  "2301.01234",
			Category: "cs.LG",
		}

		mock.ExpectQuery("INSERT INTO history").
			WithArgs(pgxmock.AnyArg(), entry.UserID, entry.PaperID, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"viewed_at"}).AddRow(now))

		result, err := repo.AddHistory(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, now, result.ViewedAt)
		assert.NotEqual(t, uuid.Nil, result.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects missing paper ID", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)
		result, err := repo.AddHistory(ctx, &domain.HistoryEntry{UserID: "user-1"})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestPgLibraryRepository_ListHistory(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgLibraryRepository(mock)
	now := time.Now().UTC()
	category := "cs.CL"

	rows := pgxmock.NewRows([]string{"id", "user_id", "paper_id", "category", "viewed_at"}).
		AddRow(uuid.New(), "user-1", "2301.01234", &category, now).
		AddRow(uuid.New(), "user-1", "abc123", nil, now.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM history").
		WithArgs("user-1", 20, 0).
		WillReturnRows(rows)

	result, err := repo.ListHistory(ctx, "user-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "cs.CL", result[0].Category)
	assert.Empty(t, result[1].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgLibraryRepository_GetFavorite_NotFound(t *testing.T) {
	ctx := context.Background()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgLibraryRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM favorites").
		WithArgs("user-1", "unknown").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetFavorite(ctx, "user-1", "unknown")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPgLibraryRepository_DeleteRating(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes rating", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)

		mock.ExpectExec("DELETE FROM ratings").
			WithArgs("user-1", "2301.01234").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err = repo.DeleteRating(ctx, "user-1", "2301.01234")
		require.NoError(t, err)
	})

	t.Run("returns not found when nothing deleted", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgLibraryRepository(mock)

		mock.ExpectExec("DELETE FROM ratings").
			WithArgs("user-1", "unknown").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.DeleteRating(ctx, "user-1", "unknown")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
