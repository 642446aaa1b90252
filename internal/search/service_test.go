package search

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/observability"
	"github.com/scholaris/paper-discovery-service/internal/providers"
)

var testMetrics = observability.NewMetrics("search_test")

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockProvider implements providers.Provider for search tests.
type mockProvider struct {
	source   domain.SourceType
	enabled  bool
	searchFn func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error)
	getFn    func(ctx context.Context, id string) (*domain.Paper, error)
}

func (m *mockProvider) Search(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, params)
	}
	return &providers.SearchResult{Papers: []*domain.Paper{}, Source: m.source}, nil
}

func (m *mockProvider) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("paper", id)
}

func (m *mockProvider) SourceType() domain.SourceType { return m.source }
func (m *mockProvider) Name() string                  { return string(m.source) }
func (m *mockProvider) IsEnabled() bool               { return m.enabled }

// mockCitationProvider implements CitationProvider for search tests.
type mockCitationProvider struct {
	citationsFn  func(ctx context.Context, id string, limit int) ([]*domain.Citation, error)
	referencesFn func(ctx context.Context, id string, limit int) ([]*domain.Citation, error)
}

func (m *mockCitationProvider) Citations(ctx context.Context, id string, limit int) ([]*domain.Citation, error) {
	if m.citationsFn != nil {
		return m.citationsFn(ctx, id, limit)
	}
	return nil, nil
}

func (m *mockCitationProvider) References(ctx context.Context, id string, limit int) ([]*domain.Citation, error) {
	if m.referencesFn != nil {
		return m.referencesFn(ctx, id, limit)
	}
	return nil, nil
}

// mockPaperRepo implements repository.PaperRepository for search tests.
type mockPaperRepo struct {
	upsertFn     func(ctx context.Context, paper *domain.Paper) (*domain.Paper, error)
	bulkUpsertFn func(ctx context.Context, papers []*domain.Paper) ([]*domain.Paper, error)
	getFn        func(ctx context.Context, id string) (*domain.Paper, error)
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
	return nil, nil
}

func paper(id string) *domain.Paper {
	return &domain.Paper{ID: id, Title: "Paper " + id}
}

func searchResult(source domain.SourceType, papers ...*domain.Paper) *providers.SearchResult {
	return &providers.SearchResult{Papers: papers, Source: source, TotalResults: len(papers)}
}

func newTestService(arxivP, s2P *mockProvider, citations *mockCitationProvider, papers *mockPaperRepo) *Service {
	if arxivP == nil {
		arxivP = &mockProvider{source: domain.SourceTypeArXiv, enabled: true}
	}
	if s2P == nil {
		s2P = &mockProvider{source: domain.SourceTypeSemanticScholar, enabled: true}
	}
	if citations == nil {
		citations = &mockCitationProvider{}
	}
	if papers == nil {
		papers = &mockPaperRepo{}
	}
	return NewService(arxivP, s2P, citations, papers, zerolog.Nop(), testMetrics)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestService_Search(t *testing.T) {
	t.Run("requires query or category", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil)

		result, err := svc.Search(context.Background(), Request{})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil)

		_, err := svc.Search(context.Background(), Request{Query: "q", Source: "pubmed"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("merges both providers arxiv first", func(t *testing.T) {
		arxivP := &mockProvider{
			source: domain.SourceTypeArXiv, enabled: true,
			searchFn: func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
				assert.Equal(t, "all:deep learning", params.Query)
				return searchResult(domain.SourceTypeArXiv, paper("2301.01234")), nil
			},
		}
		s2P := &mockProvider{
			source: domain.SourceTypeSemanticScholar, enabled: true,
			searchFn: func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
				assert.Equal(t, "deep learning", params.Query)
				return searchResult(domain.SourceTypeSemanticScholar, paper("s2-abc")), nil
			},
		}
		svc := newTestService(arxivP, s2P, nil, nil)

		result, err := svc.Search(context.Background(), Request{Query: "deep learning", Source: SourceBoth})

		require.NoError(t, err)
		require.Len(t, result.Papers, 2)
		assert.Equal(t, "2301.01234", result.Papers[0].ID)
		assert.Equal(t, "s2-abc", result.Papers[1].ID)
		assert.Equal(t, []string{SourceArxiv, SourceSemanticScholar}, result.Sources)
	})

	t.Run("category builds a fielded arxiv query", func(t *testing.T) {
		var gotQuery string
		arxivP := &mockProvider{
			source: domain.SourceTypeArXiv, enabled: true,
			searchFn: func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
				gotQuery = params.Query
				return searchResult(domain.SourceTypeArXiv), nil
			},
		}
		svc := newTestService(arxivP, nil, nil, nil)

		_, err := svc.Search(context.Background(), Request{Query: "diffusion", Category: "cs.LG", Source: SourceArxiv})

		require.NoError(t, err)
		assert.Equal(t, "cat:cs.LG AND all:diffusion", gotQuery)
	})

	t.Run("category-only search skips semantic scholar", func(t *testing.T) {
		s2Called := false
		s2P := &mockProvider{
			source: domain.SourceTypeSemanticScholar, enabled: true,
			searchFn: func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
				s2Called = true
				return searchResult(domain.SourceTypeSemanticScholar), nil
			},
		}
		svc := newTestService(nil, s2P, nil, nil)

		result, err := svc.Search(context.Background(), Request{Category: "cs.LG", Source: SourceBoth})

		require.NoError(t, err)
		assert.False(t, s2Called)
		assert.Equal(t, []string{SourceArxiv}, result.Sources)
	})

	t.Run("provider failure is absorbed and the other side survives", func(t *testing.T) {
		arxivP := &mockProvider{
			source: domain.SourceTypeArXiv, enabled: true,
			searchFn: func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
				return nil, domain.NewExternalAPIError("arXiv", 503, "unavailable", nil)
			},
		}
		s2P := &mockProvider{
			source: domain.SourceTypeSemanticScholar, enabled: true,
			searchFn: func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
				return searchResult(domain.SourceTypeSemanticScholar, paper("s2-abc")), nil
			},
		}
		svc := newTestService(arxivP, s2P, nil, nil)

		result, err := svc.Search(context.Background(), Request{Query: "q", Source: SourceBoth})

		require.NoError(t, err)
		require.Len(t, result.Papers, 1)
		assert.Equal(t, "s2-abc", result.Papers[0].ID)
		assert.Equal(t, []string{SourceSemanticScholar}, result.Sources)
	})

	t.Run("both providers failing yields an empty successful result", func(t *testing.T) {
		fail := func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
			return nil, errors.New("boom")
		}
		arxivP := &mockProvider{source: domain.SourceTypeArXiv, enabled: true, searchFn: fail}
		s2P := &mockProvider{source: domain.SourceTypeSemanticScholar, enabled: true, searchFn: fail}
		svc := newTestService(arxivP, s2P, nil, nil)

		result, err := svc.Search(context.Background(), Request{Query: "q"})

		require.NoError(t, err)
		assert.Empty(t, result.Papers)
		assert.Empty(t, result.Sources)
	})

	t.Run("results are cached best effort", func(t *testing.T) {
		var cached []*domain.Paper
		papers := &mockPaperRepo{
			bulkUpsertFn: func(ctx context.Context, ps []*domain.Paper) ([]*domain.Paper, error) {
				cached = ps
				return nil, errors.New("cache down")
			},
		}
		arxivP := &mockProvider{
			source: domain.SourceTypeArXiv, enabled: true,
			searchFn: func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
				return searchResult(domain.SourceTypeArXiv, paper("2301.01234")), nil
			},
		}
		svc := newTestService(arxivP, nil, nil, papers)

		result, err := svc.Search(context.Background(), Request{Query: "q", Source: SourceArxiv})

		require.NoError(t, err)
		require.Len(t, result.Papers, 1)
		require.Len(t, cached, 1)
		assert.Equal(t, "2301.01234", cached[0].ID)
	})

	t.Run("disabled provider is skipped", func(t *testing.T) {
		arxivP := &mockProvider{source: domain.SourceTypeArXiv, enabled: false}
		s2P := &mockProvider{
			source: domain.SourceTypeSemanticScholar, enabled: true,
			searchFn: func(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
				return searchResult(domain.SourceTypeSemanticScholar, paper("s2-abc")), nil
			},
		}
		svc := newTestService(arxivP, s2P, nil, nil)

		result, err := svc.Search(context.Background(), Request{Query: "q"})

		require.NoError(t, err)
		assert.Equal(t, []string{SourceSemanticScholar}, result.Sources)
	})
}

func TestService_GetPaper(t *testing.T) {
	t.Run("returns cached paper without provider calls", func(t *testing.T) {
		providerCalled := false
		papers := &mockPaperRepo{
			getFn: func(ctx context.Context, id string) (*domain.Paper, error) {
				return paper(id), nil
			},
		}
		s2P := &mockProvider{
			source: domain.SourceTypeSemanticScholar, enabled: true,
			getFn: func(ctx context.Context, id string) (*domain.Paper, error) {
				providerCalled = true
				return nil, nil
			},
		}
		svc := newTestService(nil, s2P, nil, papers)

		got, err := svc.GetPaper(context.Background(), "s2-abc")

		require.NoError(t, err)
		assert.Equal(t, "s2-abc", got.ID)
		assert.False(t, providerCalled)
	})

	t.Run("cache miss with arxiv-shaped ID hits the arxiv provider", func(t *testing.T) {
		var fetchedID string
		arxivP := &mockProvider{
			source: domain.SourceTypeArXiv, enabled: true,
			getFn: func(ctx context.Context, id string) (*domain.Paper, error) {
				fetchedID = id
				return paper(id), nil
			},
		}
		svc := newTestService(arxivP, nil, nil, &mockPaperRepo{})

		got, err := svc.GetPaper(context.Background(), "2301.01234")

		require.NoError(t, err)
		assert.Equal(t, "2301.01234", got.ID)
		assert.Equal(t, "2301.01234", fetchedID)
	})

	t.Run("cache miss with other IDs hits semantic scholar and caches the fetch", func(t *testing.T) {
		var upserted *domain.Paper
		papers := &mockPaperRepo{
			upsertFn: func(ctx context.Context, p *domain.Paper) (*domain.Paper, error) {
				upserted = p
				return p, nil
			},
		}
		s2P := &mockProvider{
			source: domain.SourceTypeSemanticScholar, enabled: true,
			getFn: func(ctx context.Context, id string) (*domain.Paper, error) {
				return paper(id), nil
			},
		}
		svc := newTestService(nil, s2P, nil, papers)

		got, err := svc.GetPaper(context.Background(), "s2-abc")

		require.NoError(t, err)
		assert.Equal(t, "s2-abc", got.ID)
		require.NotNil(t, upserted)
		assert.Equal(t, "s2-abc", upserted.ID)
	})

	t.Run("unknown everywhere returns not found", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil)

		got, err := svc.GetPaper(context.Background(), "s2-missing")

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("storage errors other than not found propagate", func(t *testing.T) {
		papers := &mockPaperRepo{
			getFn: func(ctx context.Context, id string) (*domain.Paper, error) {
				return nil, errors.New("connection refused")
			},
		}
		svc := newTestService(nil, nil, nil, papers)

		got, err := svc.GetPaper(context.Background(), "s2-abc")

		require.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestService_CitationsAndReferences(t *testing.T) {
	t.Run("returns both directions", func(t *testing.T) {
		citations := &mockCitationProvider{
			citationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Citation, error) {
				return []*domain.Citation{{PaperID: "c1", Title: "Citing"}}, nil
			},
			referencesFn: func(ctx context.Context, id string, limit int) ([]*domain.Citation, error) {
				return []*domain.Citation{{PaperID: "r1", Title: "Referenced"}}, nil
			},
		}
		svc := newTestService(nil, nil, citations, nil)

		result, err := svc.CitationsAndReferences(context.Background(), "s2-abc", 50)

		require.NoError(t, err)
		require.Len(t, result.Citations, 1)
		require.Len(t, result.References, 1)
		assert.Equal(t, "c1", result.Citations[0].PaperID)
		assert.Equal(t, "r1", result.References[0].PaperID)
	})

	t.Run("each direction fails soft independently", func(t *testing.T) {
		citations := &mockCitationProvider{
			citationsFn: func(ctx context.Context, id string, limit int) ([]*domain.Citation, error) {
				return nil, domain.NewExternalAPIError("Semantic Scholar", 500, "boom", nil)
			},
			referencesFn: func(ctx context.Context, id string, limit int) ([]*domain.Citation, error) {
				return []*domain.Citation{{PaperID: "r1"}}, nil
			},
		}
		svc := newTestService(nil, nil, citations, nil)

		result, err := svc.CitationsAndReferences(context.Background(), "s2-abc", 50)

		require.NoError(t, err)
		assert.Empty(t, result.Citations)
		require.Len(t, result.References, 1)
	})

	t.Run("requires a paper ID", func(t *testing.T) {
		svc := newTestService(nil, nil, nil, nil)

		result, err := svc.CitationsAndReferences(context.Background(), " ", 50)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
