package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/observability"
	"github.com/scholaris/paper-discovery-service/internal/repository"
)

// Defaults for the recommendation fan-out.
const (
	// DefaultMaxSourcePapers caps how many interest-set papers seed a single
	// recommendation request.
	DefaultMaxSourcePapers = 3

	// DefaultLimit is the result size when the caller does not specify one.
	DefaultLimit = 20

	// DefaultMaxLimit caps the caller-requested result size.
	DefaultMaxLimit = 100

	// favoritesPageSize bounds how many favorites are loaded to build the
	// interest set. Favorites order the set, and only a short prefix is ever
	// used as seeds, so one page is plenty.
	favoritesPageSize = 100
)

// RecommendationProvider fetches related papers for a Semantic Scholar paper
// ID. The Semantic Scholar client satisfies this interface.
type RecommendationProvider interface {
	Recommendations(ctx context.Context, id string, limit int) ([]*domain.Paper, error)
}

// Config tunes the recommendation service.
type Config struct {
	// MaxSourcePapers caps the number of seed papers per request.
	MaxSourcePapers int

	// RequestDelay is the pause between consecutive provider calls.
	RequestDelay time.Duration

	// DefaultLimit is the result size when the request does not specify one.
	DefaultLimit int

	// MaxLimit caps the requested result size.
	MaxLimit int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.MaxSourcePapers <= 0 {
		c.MaxSourcePapers = DefaultMaxSourcePapers
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = DefaultRequestDelay
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = DefaultMaxLimit
	}
}

// Result is the outcome of a recommendation request.
type Result struct {
	// Papers are the recommended papers, deduplicated and capped to the
	// requested limit.
	Papers []*domain.Paper `json:"papers"`

	// SeedCount is the number of interest-set papers used as seeds.
	SeedCount int `json:"seed_count"`

	// Degraded is true when seeds existed but every seed fetch failed, so an
	// empty result reflects provider trouble rather than a genuinely empty
	// recommendation set.
	Degraded bool `json:"degraded"`
}

// Service produces personalized recommendations from a user's favorites and
// positive ratings.
type Service struct {
	papers    repository.PaperRepository
	library   repository.LibraryRepository
	provider  RecommendationProvider
	resolver  *Resolver
	scheduler *Scheduler
	config    Config
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewService creates a recommendation service.
func NewService(
	papers repository.PaperRepository,
	library repository.LibraryRepository,
	provider RecommendationProvider,
	resolver *Resolver,
	cfg Config,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	cfg.applyDefaults()

	return &Service{
		papers:    papers,
		library:   library,
		provider:  provider,
		resolver:  resolver,
		scheduler: NewScheduler(cfg.RequestDelay, logger, metrics),
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Recommend returns up to limit papers related to the user's interest set.
//
// Storage failures propagate to the caller; provider failures degrade the
// result instead. A user with no favorites and no liked papers gets an empty
// result without any provider traffic.
func (s *Service) Recommend(ctx context.Context, userID string, limit int) (*Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", "user ID is required")
	}
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	start := time.Now()

	favorites, err := s.library.ListFavorites(ctx, userID, favoritesPageSize, 0)
	if err != nil {
		return nil, err
	}
	ratings, err := s.library.ListRatings(ctx, userID)
	if err != nil {
		return nil, err
	}

	interest := domain.InterestSet(favorites, ratings)
	if len(interest) == 0 {
		s.metrics.RecordRecommendationEmpty()
		return &Result{Papers: []*domain.Paper{}}, nil
	}

	seeds := interest
	if len(seeds) > s.config.MaxSourcePapers {
		seeds = seeds[:s.config.MaxSourcePapers]
	}

	// Split the requested limit across seeds, rounding up so the seeds
	// together can always cover it.
	perSeed := (limit + len(seeds) - 1) / len(seeds)

	papers, failedSeeds, err := s.scheduler.Run(ctx, seeds, func(ctx context.Context, seed string) ([]*domain.Paper, error) {
		paperID, err := s.resolver.Resolve(ctx, seed)
		if err != nil {
			return nil, err
		}
		return s.provider.Recommendations(ctx, paperID, perSeed)
	})
	if err != nil {
		return nil, err
	}

	papers = domain.DedupePapers(papers)
	if len(papers) > limit {
		papers = papers[:limit]
	}

	// Cache what we are about to return so library operations on these
	// papers resolve locally. Best effort: a cache failure does not fail
	// the request.
	if len(papers) > 0 {
		if _, err := s.papers.BulkUpsert(ctx, papers); err != nil {
			s.logger.Warn().Err(err).Int("papers", len(papers)).Msg("failed to cache recommended papers")
		}
	}

	degraded := failedSeeds == len(seeds)
	s.metrics.RecordRecommendation(len(seeds), time.Since(start).Seconds(), degraded)

	s.logger.Debug().
		Str("user_id", userID).
		Int("seeds", len(seeds)).
		Int("failed_seeds", failedSeeds).
		Int("papers", len(papers)).
		Bool("degraded", degraded).
		Msg("recommendations computed")

	return &Result{
		Papers:    papers,
		SeedCount: len(seeds),
		Degraded:  degraded,
	}, nil
}
