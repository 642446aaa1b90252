// Package domain contains the core types shared across the paper discovery service.
package domain

import (
	"strings"
	"time"
)

// SourceType identifies the bibliographic data source that provided paper data.
type SourceType string

const (
	// SourceTypeArXiv is the arXiv preprint server.
	SourceTypeArXiv SourceType = "arxiv"

	// SourceTypeSemanticScholar is the Semantic Scholar Graph API.
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
)

// Paper is the canonical, provider-agnostic representation of an academic paper.
//
// ID is the primary identity within the system: either a native arXiv
// identifier (e.g. "2301.01234") or a Semantic Scholar paper ID. ArxivID and
// SemanticScholarID are optional cross-reference fields; at most one of them
// is the authoritative source of ID. Papers from either provider must be
// mapped into this shape before they are merged with papers from the other
// provider.
type Paper struct {
	ID                string     `json:"id"`
	ArxivID           string     `json:"arxiv_id,omitempty"`
	SemanticScholarID string     `json:"semantic_scholar_id,omitempty"`
	Title             string     `json:"title"`
	Authors           []string   `json:"authors"`
	Abstract          string     `json:"abstract,omitempty"`
	Categories        []string   `json:"categories,omitempty"`
	PublishedDate     *time.Time `json:"published_date,omitempty"`
	URL               string     `json:"url,omitempty"`
	CitationCount     int        `json:"citation_count"`
	CreatedAt         time.Time  `json:"created_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at,omitempty"`
}

// Validate checks that the paper satisfies the canonical-shape invariants.
func (p *Paper) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return NewValidationError("id", "paper ID is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return NewValidationError("title", "paper title is required")
	}
	if p.CitationCount < 0 {
		return NewValidationError("citation_count", "citation count must not be negative")
	}
	return nil
}

// PrimaryCategory returns the first category, or empty string when none exist.
func (p *Paper) PrimaryCategory() string {
	if len(p.Categories) == 0 {
		return ""
	}
	return p.Categories[0]
}

// Citation is a lightweight reference to a citing or cited paper, as returned
// by the citation/reference endpoints. It is never persisted.
type Citation struct {
	PaperID string   `json:"paper_id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
}

// DedupePapers returns papers deduplicated by ID, keeping the first occurrence
// of each ID and preserving input order. Papers with an empty ID are dropped.
func DedupePapers(papers []*Paper) []*Paper {
	seen := make(map[string]struct{}, len(papers))
	out := make([]*Paper, 0, len(papers))
	for _, p := range papers {
		if p == nil || p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
