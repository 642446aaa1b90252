package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/providers"
)

const (
	// DefaultBaseURL is the default Semantic Scholar API root. The client
	// derives both the Graph API and the Recommendations API paths from it.
	DefaultBaseURL = "https://api.semanticscholar.org"

	// DefaultRateLimit is the default rate limit for unauthenticated
	// requests (1 request per second). With an API key this can be raised.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum number of results per search.
	DefaultMaxResults = 20

	// DefaultCitationLimit is the default page size for citation and
	// reference listings.
	DefaultCitationLimit = 100

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the list of fields requested for full paper records.
	paperFields = "paperId,externalIds,title,abstract,year,publicationDate,venue,authors,citationCount,url"

	// citationFields is the list of fields requested on citation edges.
	citationFields = "paperId,title,authors,year"

	// sourceName is the human-readable name for this provider.
	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the API root URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	// Authenticated requests have higher rate limits.
	APIKey string

	// Timeout is the HTTP request timeout. Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// MaxResults is the maximum number of results to return per search.
	// Defaults to DefaultMaxResults if zero.
	MaxResults int

	// Enabled indicates whether this provider is enabled.
	Enabled bool
}

// Client implements the providers.Provider interface for Semantic Scholar.
type Client struct {
	httpClient *providers.HTTPClient
	config     Config
}

// Compile-time check that Client implements providers.Provider.
var _ providers.Provider = (*Client)(nil)

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *providers.HTTPClient) *Client {
	// Apply defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	if httpClient == nil {
		httpClient = providers.NewHTTPClient(providers.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
			Source:       sourceName,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Search queries Semantic Scholar for papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params providers.SearchParams) (*providers.SearchResult, error) {
	start := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	var searchResp SearchResponse
	if err := c.getJSON(ctx, searchURL, &searchResp); err != nil {
		return nil, err
	}

	papers := convertToPapers(searchResp.Data)

	return &providers.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Total,
		HasMore:        searchResp.Next > 0,
		NextOffset:     searchResp.Next,
		Source:         domain.SourceTypeSemanticScholar,
		SearchDuration: time.Since(start),
	}, nil
}

// GetByID retrieves a specific paper by its Semantic Scholar ID or another
// supported identifier (e.g. "ARXIV:2301.01234", "DOI:...").
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	paperURL, err := c.graphURL("paper/"+url.PathEscape(id), url.Values{"fields": {paperFields}})
	if err != nil {
		return nil, err
	}

	var result PaperResult
	if err := c.getJSONOr404(ctx, paperURL, &result, id); err != nil {
		return nil, err
	}

	return convertToPaper(result), nil
}

// Citations lists papers that cite the given paper.
func (c *Client) Citations(ctx context.Context, id string, limit int) ([]*domain.Citation, error) {
	return c.citationEdges(ctx, id, "citations", limit)
}

// References lists papers cited by the given paper.
func (c *Client) References(ctx context.Context, id string, limit int) ([]*domain.Citation, error) {
	return c.citationEdges(ctx, id, "references", limit)
}

// Recommendations fetches papers related to the given paper from the
// Recommendations API. The id must be a Semantic Scholar paper ID.
func (c *Client) Recommendations(ctx context.Context, id string, limit int) ([]*domain.Paper, error) {
	if limit <= 0 {
		limit = c.config.MaxResults
	}

	recURL, err := c.apiURL(
		"recommendations/v1/papers/forpaper/"+url.PathEscape(id),
		url.Values{"fields": {paperFields}, "limit": {strconv.Itoa(limit)}},
	)
	if err != nil {
		return nil, err
	}

	var recResp RecommendationsResponse
	if err := c.getJSONOr404(ctx, recURL, &recResp, id); err != nil {
		return nil, err
	}

	return convertToPapers(recResp.RecommendedPapers), nil
}

// ResolveArxivID resolves an arXiv identifier to a Semantic Scholar paper ID.
// Returns an error wrapping domain.ErrNotFound when Semantic Scholar does not
// know the paper.
func (c *Client) ResolveArxivID(ctx context.Context, arxivID string) (string, error) {
	resolveURL, err := c.graphURL("paper/ARXIV:"+url.PathEscape(arxivID), url.Values{"fields": {"paperId"}})
	if err != nil {
		return "", err
	}

	var resolved resolveResponse
	if err := c.getJSONOr404(ctx, resolveURL, &resolved, arxivID); err != nil {
		return "", err
	}

	if resolved.PaperID == "" {
		return "", domain.NewNotFoundError("paper", arxivID)
	}
	return resolved.PaperID, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// Name returns the human-readable name for this provider.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this provider is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// citationEdges fetches one page of citation or reference edges.
func (c *Client) citationEdges(ctx context.Context, id, edge string, limit int) ([]*domain.Citation, error) {
	if limit <= 0 {
		limit = DefaultCitationLimit
	}

	edgeURL, err := c.graphURL(
		"paper/"+url.PathEscape(id)+"/"+edge,
		url.Values{"fields": {citationFields}, "limit": {strconv.Itoa(limit)}},
	)
	if err != nil {
		return nil, err
	}

	var resp CitationsResponse
	if err := c.getJSONOr404(ctx, edgeURL, &resp, id); err != nil {
		return nil, err
	}

	citations := make([]*domain.Citation, 0, len(resp.Data))
	for _, entry := range resp.Data {
		related := entry.CitingPaper
		if related == nil {
			related = entry.CitedPaper
		}
		if related == nil || related.PaperID == "" {
			continue
		}
		citations = append(citations, &domain.Citation{
			PaperID: related.PaperID,
			Title:   related.Title,
			Authors: convertAuthorNames(related.Authors),
			Year:    related.Year,
		})
	}

	return citations, nil
}

// buildSearchURL constructs the search API URL with query parameters.
func (c *Client) buildSearchURL(params providers.SearchParams) (string, error) {
	limit := params.MaxResults
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("query", params.Query)
	q.Set("fields", paperFields)
	q.Set("limit", strconv.Itoa(limit))
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	return c.graphURL("paper/search", q)
}

// graphURL builds a Graph API URL for the given path and query parameters.
func (c *Client) graphURL(path string, query url.Values) (string, error) {
	return c.apiURL("graph/v1/"+path, query)
}

// apiURL builds a URL under the configured API root.
func (c *Client) apiURL(path string, query url.Values) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	// JoinPath would re-escape path segments that are already escaped.
	u := *baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// getJSON executes a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return err
	}

	// Limit body to 10MB to prevent resource exhaustion.
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// getJSONOr404 is getJSON with 404 mapped to a NotFoundError for id.
func (c *Client) getJSONOr404(ctx context.Context, requestURL string, out interface{}, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError("paper", id)
	}

	if err := c.handleErrorResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// handleErrorResponse checks for API errors and returns appropriate error types.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read the error body (limit to 1MB to prevent resource exhaustion)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	// Try to parse as JSON error
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message := errResp.Error
		if message == "" {
			message = errResp.Message
		}
		if message == "" {
			message = string(body)
		}
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, nil)
	}

	// Return raw body as error message
	return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
}

// convertToPapers converts a slice of API paper results to canonical papers.
func convertToPapers(results []PaperResult) []*domain.Paper {
	papers := make([]*domain.Paper, 0, len(results))
	for _, result := range results {
		if result.PaperID == "" {
			continue
		}
		papers = append(papers, convertToPaper(result))
	}
	return papers
}

// convertToPaper converts a single API paper result to the canonical shape.
func convertToPaper(result PaperResult) *domain.Paper {
	paper := &domain.Paper{
		ID:                result.PaperID,
		SemanticScholarID: result.PaperID,
		Title:             result.Title,
		Abstract:          result.Abstract,
		Authors:           convertAuthorNames(result.Authors),
		URL:               result.URL,
		CitationCount:     result.CitationCount,
	}

	if result.ExternalIDs != nil {
		paper.ArxivID = result.ExternalIDs.ArXiv
	}

	// Venue maps to a single-element category list.
	if result.Venue != "" {
		paper.Categories = []string{result.Venue}
	}

	// Prefer the full publication date; fall back to January 1 of the year.
	if result.PublicationDate != "" {
		if pubDate, err := time.Parse("2006-01-02", result.PublicationDate); err == nil {
			paper.PublishedDate = &pubDate
		}
	}
	if paper.PublishedDate == nil && result.Year > 0 {
		yearDate := time.Date(result.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		paper.PublishedDate = &yearDate
	}

	return paper
}

// convertAuthorNames flattens API authors into a list of names.
func convertAuthorNames(apiAuthors []Author) []string {
	names := make([]string, 0, len(apiAuthors))
	for _, a := range apiAuthors {
		if a.Name == "" {
			continue
		}
		names = append(names, a.Name)
	}
	return names
}
