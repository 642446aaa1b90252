// Package search fronts the bibliographic providers with a fail-soft search
// facade and keeps the local paper cache warm with everything it returns.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/observability"
	"github.com/scholaris/paper-discovery-service/internal/providers"
	"github.com/scholaris/paper-discovery-service/internal/providers/arxiv"
	"github.com/scholaris/paper-discovery-service/internal/recommend"
	"github.com/scholaris/paper-discovery-service/internal/repository"
)

// Source selection for search requests.
const (
	SourceArxiv           = "arxiv"
	SourceSemanticScholar = "semantic_scholar"
	SourceBoth            = "both"
)

// DefaultLimit is the search result size when the caller does not specify one.
const DefaultLimit = 20

// MaxLimit caps the caller-requested result size.
const MaxLimit = 100

// CitationProvider lists citation and reference edges for a paper.
// The Semantic Scholar client satisfies this interface.
type CitationProvider interface {
	Citations(ctx context.Context, id string, limit int) ([]*domain.Citation, error)
	References(ctx context.Context, id string, limit int) ([]*domain.Citation, error)
}

// Request describes one search invocation.
type Request struct {
	// Query is the free-text query. May be empty when Category alone is
	// meaningful (arXiv category browsing).
	Query string `json:"query"`

	// Category restricts arXiv results to a subject category (e.g. "cs.LG").
	// Ignored for Semantic Scholar, which has no category facet.
	Category string `json:"category,omitempty"`

	// Source selects the providers to query: "arxiv", "semantic_scholar",
	// or "both" (the default when empty).
	Source string `json:"source,omitempty"`

	// Limit bounds the per-provider result count.
	Limit int `json:"limit,omitempty"`

	// Offset supports pagination within each provider.
	Offset int `json:"offset,omitempty"`
}

// Result is a merged search result. Papers keep their native provider IDs;
// arXiv results come first, then Semantic Scholar.
type Result struct {
	Papers  []*domain.Paper `json:"papers"`
	Sources []string        `json:"sources"`
}

// CitationsResult bundles both citation directions for a paper.
type CitationsResult struct {
	Citations  []*domain.Citation `json:"citations"`
	References []*domain.Citation `json:"references"`
}

// Service coordinates provider searches and the local paper cache.
type Service struct {
	arxiv     providers.Provider
	s2        providers.Provider
	citations CitationProvider
	papers    repository.PaperRepository
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewService creates a search service over the given providers.
func NewService(
	arxivProvider providers.Provider,
	s2Provider providers.Provider,
	citations CitationProvider,
	papers repository.PaperRepository,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		arxiv:     arxivProvider,
		s2:        s2Provider,
		citations: citations,
		papers:    papers,
		logger:    logger,
		metrics:   metrics,
	}
}

// Search queries the selected providers and merges their results.
//
// Each provider is fail-soft: a transport or parse failure on one side is
// logged and counted, and the other side's results are still returned. Every
// returned paper is upserted into the local cache so library operations on it
// resolve without another provider roundtrip.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Query) == "" && strings.TrimSpace(req.Category) == "" {
		return nil, domain.NewValidationError("query", "query or category is required")
	}

	source := req.Source
	if source == "" {
		source = SourceBoth
	}
	if source != SourceArxiv && source != SourceSemanticScholar && source != SourceBoth {
		return nil, domain.NewValidationError("source", "source must be arxiv, semantic_scholar, or both")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	result := &Result{Papers: []*domain.Paper{}, Sources: []string{}}

	if source == SourceArxiv || source == SourceBoth {
		papers := s.searchProvider(ctx, s.arxiv, providers.SearchParams{
			Query:      arxiv.Query{Category: req.Category, All: req.Query}.String(),
			MaxResults: limit,
			Offset:     req.Offset,
		})
		if papers != nil {
			result.Papers = append(result.Papers, papers...)
			result.Sources = append(result.Sources, SourceArxiv)
		}
	}

	if source == SourceSemanticScholar || source == SourceBoth {
		// Semantic Scholar has no category facet; category-only requests
		// are an arXiv concern.
		if strings.TrimSpace(req.Query) != "" {
			papers := s.searchProvider(ctx, s.s2, providers.SearchParams{
				Query:      req.Query,
				MaxResults: limit,
				Offset:     req.Offset,
			})
			if papers != nil {
				result.Papers = append(result.Papers, papers...)
				result.Sources = append(result.Sources, SourceSemanticScholar)
			}
		}
	}

	s.cachePapers(ctx, result.Papers)

	return result, nil
}

// GetPaper retrieves one paper, preferring the local cache. A cache miss
// falls back to the provider matching the ID shape, and the fetched paper is
// cached before it is returned.
func (s *Service) GetPaper(ctx context.Context, id string) (*domain.Paper, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "paper ID is required")
	}

	paper, err := s.papers.Get(ctx, id)
	if err == nil {
		return paper, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	provider := s.s2
	if recommend.IsArxivID(id) {
		provider = s.arxiv
	}

	paper, err = provider.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.papers.Upsert(ctx, paper)
	if err != nil {
		s.logger.Warn().Err(err).Str("paper_id", paper.ID).Msg("failed to cache fetched paper")
		return paper, nil
	}
	s.metrics.RecordPapersUpserted(1)
	return stored, nil
}

// CitationsAndReferences returns both citation directions for a paper.
// Each direction is independently fail-soft: a failure yields an empty list
// for that direction only.
func (s *Service) CitationsAndReferences(ctx context.Context, paperID string, limit int) (*CitationsResult, error) {
	if strings.TrimSpace(paperID) == "" {
		return nil, domain.NewValidationError("paper_id", "paper ID is required")
	}

	result := &CitationsResult{
		Citations:  []*domain.Citation{},
		References: []*domain.Citation{},
	}

	if citations, err := s.citations.Citations(ctx, paperID, limit); err != nil {
		s.logger.Warn().Err(err).Str("paper_id", paperID).Msg("citations lookup failed")
	} else if citations != nil {
		result.Citations = citations
	}

	if references, err := s.citations.References(ctx, paperID, limit); err != nil {
		s.logger.Warn().Err(err).Str("paper_id", paperID).Msg("references lookup failed")
	} else if references != nil {
		result.References = references
	}

	return result, nil
}

// searchProvider runs one provider search fail-soft. It returns nil when the
// provider failed (as opposed to an empty, successful result).
func (s *Service) searchProvider(ctx context.Context, provider providers.Provider, params providers.SearchParams) []*domain.Paper {
	name := string(provider.SourceType())

	if !provider.IsEnabled() {
		return nil
	}

	start := time.Now()
	result, err := provider.Search(ctx, params)
	if err != nil {
		s.metrics.RecordSearchFailed(name, time.Since(start).Seconds())
		s.logger.Warn().Err(err).Str("provider", name).Str("query", params.Query).Msg("provider search failed")
		return nil
	}

	s.metrics.RecordSearch(name, len(result.Papers), time.Since(start).Seconds())
	if result.Papers == nil {
		return []*domain.Paper{}
	}
	return result.Papers
}

// cachePapers upserts search results best effort.
func (s *Service) cachePapers(ctx context.Context, papers []*domain.Paper) {
	if len(papers) == 0 {
		return
	}
	if _, err := s.papers.BulkUpsert(ctx, papers); err != nil {
		s.logger.Warn().Err(err).Int("papers", len(papers)).Msg("failed to cache search results")
		return
	}
	s.metrics.RecordPapersUpserted(len(papers))
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
