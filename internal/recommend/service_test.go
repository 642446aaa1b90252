package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockPaperRepo implements repository.PaperRepository for service tests.
type mockPaperRepo struct {
	upsertFn     func(ctx context.Context, paper *domain.Paper) (*domain.Paper, error)
	bulkUpsertFn func(ctx context.Context, papers []*domain.Paper) ([]*domain.Paper, error)
	getFn        func(ctx context.Context, id string) (*domain.Paper, error)
	getByIDsFn   func(ctx context.Context, ids []string) ([]*domain.Paper, error)
}

func (m *mockPaperRepo) Upsert(ctx context.Context, paper *domain.Paper) (*domain.Paper, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, paper)
	}
	return paper, nil
}

func (m *mockPaperRepo) BulkUpsert(ctx context.Context, papers []*domain.Paper) ([]*domain.Paper, error) {
	if m.bulkUpsertFn != nil {
		return m.bulkUpsertFn(ctx, papers)
	}
	return papers, nil
}

func (m *mockPaperRepo) Get(ctx context.Context, id string) (*domain.Paper, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("paper", id)
}

func (m *mockPaperRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Paper, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

// mockLibraryRepo implements repository.LibraryRepository for service tests.
type mockLibraryRepo struct {
	listFavoritesFn func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error)
	listRatingsFn   func(ctx context.Context, userID string) ([]*domain.Rating, error)
}

func (m *mockLibraryRepo) AddFavorite(ctx context.Context, fav *domain.Favorite) (*domain.Favorite, error) {
	return fav, nil
}

func (m *mockLibraryRepo) RemoveFavorite(ctx context.Context, userID, paperID string) error {
	return nil
}

func (m *mockLibraryRepo) GetFavorite(ctx context.Context, userID, paperID string) (*domain.Favorite, error) {
	return nil, domain.NewNotFoundError("favorite", paperID)
}

func (m *mockLibraryRepo) ListFavorites(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
	if m.listFavoritesFn != nil {
		return m.listFavoritesFn(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *mockLibraryRepo) UpdateFavoriteTags(ctx context.Context, userID, paperID string, tags []string) error {
	return nil
}

func (m *mockLibraryRepo) UpsertRating(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	return rating, nil
}

func (m *mockLibraryRepo) DeleteRating(ctx context.Context, userID, paperID string) error {
	return nil
}

func (m *mockLibraryRepo) ListRatings(ctx context.Context, userID string) ([]*domain.Rating, error) {
	if m.listRatingsFn != nil {
		return m.listRatingsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockLibraryRepo) AddHistory(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	return entry, nil
}

func (m *mockLibraryRepo) ListHistory(ctx context.Context, userID string, limit, offset int) ([]*domain.HistoryEntry, error) {
	return nil, nil
}

// mockProvider implements RecommendationProvider for service tests.
type mockProvider struct {
	recommendationsFn func(ctx context.Context, id string, limit int) ([]*domain.Paper, error)
}

func (m *mockProvider) Recommendations(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
	if m.recommendationsFn != nil {
		return m.recommendationsFn(ctx, id, limit)
	}
	return nil, nil
}

// passthroughResolver returns every seed unchanged.
func passthroughResolver() *Resolver {
	return NewResolver(&mockArxivResolver{
		resolveFn: func(ctx context.Context, arxivID string) (string, error) {
			return arxivID, nil
		},
	})
}

func favorite(userID, paperID string) *domain.Favorite {
	return &domain.Favorite{UserID: userID, PaperID: paperID}
}

func rating(userID, paperID string, value int) *domain.Rating {
	return &domain.Rating{UserID: userID, PaperID: paperID, Value: value}
}

func newTestService(library *mockLibraryRepo, papers *mockPaperRepo, provider *mockProvider, resolver *Resolver) *Service {
	if resolver == nil {
		resolver = passthroughResolver()
	}
	return NewService(papers, library, provider, resolver, Config{
		RequestDelay: time.Millisecond,
	}, zerolog.Nop(), testMetrics)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestService_Recommend(t *testing.T) {
	t.Run("requires a user ID", func(t *testing.T) {
		svc := newTestService(&mockLibraryRepo{}, &mockPaperRepo{}, &mockProvider{}, nil)

		result, err := svc.Recommend(context.Background(), "  ", 10)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty interest set returns empty result with no provider calls", func(t *testing.T) {
		providerCalled := false
		svc := newTestService(&mockLibraryRepo{}, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				providerCalled = true
				return nil, nil
			},
		}, nil)

		result, err := svc.Recommend(context.Background(), "user-1", 10)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.NotNil(t, result.Papers)
		assert.Empty(t, result.Papers)
		assert.Zero(t, result.SeedCount)
		assert.False(t, result.Degraded)
		assert.False(t, providerCalled)
	})

	t.Run("disliked papers never seed recommendations", func(t *testing.T) {
		var seeds []string
		library := &mockLibraryRepo{
			listRatingsFn: func(ctx context.Context, userID string) ([]*domain.Rating, error) {
				return []*domain.Rating{
					rating(userID, "liked-1", domain.RatingLike),
					rating(userID, "disliked-1", domain.RatingDislike),
				}, nil
			},
		}
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				seeds = append(seeds, id)
				return []*domain.Paper{paper("rec-" + id)}, nil
			},
		}, nil)

		result, err := svc.Recommend(context.Background(), "user-1", 10)

		require.NoError(t, err)
		assert.Equal(t, []string{"liked-1"}, seeds)
		assert.Equal(t, 1, result.SeedCount)
	})

	t.Run("caps seeds and splits the limit across them", func(t *testing.T) {
		var seeds []string
		var perSeedLimits []int
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{
					favorite(userID, "fav-1"),
					favorite(userID, "fav-2"),
					favorite(userID, "fav-3"),
					favorite(userID, "fav-4"),
				}, nil
			},
		}
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				seeds = append(seeds, id)
				perSeedLimits = append(perSeedLimits, limit)
				return nil, nil
			},
		}, nil)

		result, err := svc.Recommend(context.Background(), "user-1", 20)

		require.NoError(t, err)
		// Only the first three favorites seed the fan-out, each asked for
		// ceil(20/3) = 7 papers.
		assert.Equal(t, []string{"fav-1", "fav-2", "fav-3"}, seeds)
		assert.Equal(t, []int{7, 7, 7}, perSeedLimits)
		assert.Equal(t, 3, result.SeedCount)
	})

	t.Run("favorites seed before liked papers and overlap is deduplicated", func(t *testing.T) {
		var seeds []string
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{favorite(userID, "shared"), favorite(userID, "fav-only")}, nil
			},
			listRatingsFn: func(ctx context.Context, userID string) ([]*domain.Rating, error) {
				return []*domain.Rating{
					rating(userID, "shared", domain.RatingLike),
					rating(userID, "liked-only", domain.RatingLike),
				}, nil
			},
		}
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				seeds = append(seeds, id)
				return nil, nil
			},
		}, nil)

		_, err := svc.Recommend(context.Background(), "user-1", 10)

		require.NoError(t, err)
		assert.Equal(t, []string{"shared", "fav-only", "liked-only"}, seeds)
	})

	t.Run("deduplicates results first-wins and truncates to limit", func(t *testing.T) {
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{favorite(userID, "fav-1"), favorite(userID, "fav-2")}, nil
			},
		}
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				if id == "fav-1" {
					return []*domain.Paper{paper("dup"), paper("a"), paper("b")}, nil
				}
				return []*domain.Paper{paper("dup"), paper("c"), paper("d")}, nil
			},
		}, nil)

		result, err := svc.Recommend(context.Background(), "user-1", 4)

		require.NoError(t, err)
		require.Len(t, result.Papers, 4)
		assert.Equal(t, "dup", result.Papers[0].ID)
		assert.Equal(t, "a", result.Papers[1].ID)
		assert.Equal(t, "b", result.Papers[2].ID)
		assert.Equal(t, "c", result.Papers[3].ID)
	})

	t.Run("degraded when every seed fails", func(t *testing.T) {
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{favorite(userID, "fav-1"), favorite(userID, "fav-2")}, nil
			},
		}
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				return nil, domain.NewExternalAPIError("Semantic Scholar", 503, "unavailable", nil)
			},
		}, nil)

		result, err := svc.Recommend(context.Background(), "user-1", 10)

		require.NoError(t, err)
		assert.True(t, result.Degraded)
		assert.Empty(t, result.Papers)
		assert.Equal(t, 2, result.SeedCount)
	})

	t.Run("partial failure is not degraded", func(t *testing.T) {
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{favorite(userID, "fav-1"), favorite(userID, "fav-2")}, nil
			},
		}
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				if id == "fav-1" {
					return nil, domain.NewExternalAPIError("Semantic Scholar", 500, "boom", nil)
				}
				return []*domain.Paper{paper("rec-1")}, nil
			},
		}, nil)

		result, err := svc.Recommend(context.Background(), "user-1", 10)

		require.NoError(t, err)
		assert.False(t, result.Degraded)
		require.Len(t, result.Papers, 1)
		assert.Equal(t, "rec-1", result.Papers[0].ID)
	})

	t.Run("arxiv seeds are resolved before the provider call", func(t *testing.T) {
		var providerIDs []string
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{favorite(userID, "2301.01234v2"), favorite(userID, "s2-native")}, nil
			},
		}
		resolver := NewResolver(&mockArxivResolver{
			resolveFn: func(ctx context.Context, arxivID string) (string, error) {
				assert.Equal(t, "2301.01234", arxivID)
				return "s2-resolved", nil
			},
		})
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				providerIDs = append(providerIDs, id)
				return nil, nil
			},
		}, resolver)

		_, err := svc.Recommend(context.Background(), "user-1", 10)

		require.NoError(t, err)
		assert.Equal(t, []string{"s2-resolved", "s2-native"}, providerIDs)
	})

	t.Run("unresolvable seed contributes zero results", func(t *testing.T) {
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{favorite(userID, "2301.99999"), favorite(userID, "s2-native")}, nil
			},
		}
		resolver := NewResolver(&mockArxivResolver{}) // always not found
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				return []*domain.Paper{paper("rec-" + id)}, nil
			},
		}, resolver)

		result, err := svc.Recommend(context.Background(), "user-1", 10)

		require.NoError(t, err)
		assert.False(t, result.Degraded)
		require.Len(t, result.Papers, 1)
		assert.Equal(t, "rec-s2-native", result.Papers[0].ID)
	})

	t.Run("storage errors fail fast", func(t *testing.T) {
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return nil, errors.New("connection refused")
			},
		}
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{}, nil)

		result, err := svc.Recommend(context.Background(), "user-1", 10)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("caches returned papers best effort", func(t *testing.T) {
		var upserted []*domain.Paper
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{favorite(userID, "fav-1")}, nil
			},
		}
		papers := &mockPaperRepo{
			bulkUpsertFn: func(ctx context.Context, ps []*domain.Paper) ([]*domain.Paper, error) {
				upserted = ps
				return nil, errors.New("cache unavailable")
			},
		}
		svc := newTestService(library, papers, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				return []*domain.Paper{paper("rec-1")}, nil
			},
		}, nil)

		result, err := svc.Recommend(context.Background(), "user-1", 10)

		// The cache failure is logged, not surfaced.
		require.NoError(t, err)
		require.Len(t, result.Papers, 1)
		require.Len(t, upserted, 1)
		assert.Equal(t, "rec-1", upserted[0].ID)
	})

	t.Run("limit defaults and caps apply", func(t *testing.T) {
		var perSeedLimit int
		library := &mockLibraryRepo{
			listFavoritesFn: func(ctx context.Context, userID string, limit, offset int) ([]*domain.Favorite, error) {
				return []*domain.Favorite{favorite(userID, "fav-1")}, nil
			},
		}
		svc := newTestService(library, &mockPaperRepo{}, &mockProvider{
			recommendationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
				perSeedLimit = limit
				return nil, nil
			},
		}, nil)

		_, err := svc.Recommend(context.Background(), "user-1", 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultLimit, perSeedLimit)

		_, err = svc.Recommend(context.Background(), "user-1", 10_000)
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxLimit, perSeedLimit)
	})
}
