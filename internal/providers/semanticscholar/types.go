// Package semanticscholar provides a client for the Semantic Scholar API.
//
// The client covers the Graph API (paper search, paper lookup, citations and
// references) as well as the Recommendations API, and implements the
// providers.Provider interface.
//
// API Documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

// SearchResponse represents the response from the paper search endpoint.
type SearchResponse struct {
	// Total is the total number of papers matching the query.
	Total int `json:"total"`

	// Offset is the current offset in the result set.
	Offset int `json:"offset"`

	// Next is the offset for the next page of results.
	// A value of 0 indicates no more results.
	Next int `json:"next"`

	// Data contains the list of papers returned by the search.
	Data []PaperResult `json:"data"`
}

// PaperResult represents a single paper in the Semantic Scholar API response.
type PaperResult struct {
	// PaperID is the Semantic Scholar unique identifier for the paper.
	PaperID string `json:"paperId"`

	// Title is the title of the paper.
	Title string `json:"title"`

	// Abstract is the paper's abstract text.
	Abstract string `json:"abstract"`

	// Year is the publication year.
	Year int `json:"year"`

	// PublicationDate is the full publication date in YYYY-MM-DD format.
	PublicationDate string `json:"publicationDate"`

	// Venue is the publication venue (conference, journal name, etc.).
	Venue string `json:"venue"`

	// Authors is the list of paper authors.
	Authors []Author `json:"authors"`

	// CitationCount is the number of citations this paper has received.
	CitationCount int `json:"citationCount"`

	// URL is the Semantic Scholar landing page for the paper.
	URL string `json:"url"`

	// ExternalIDs contains external identifiers for the paper (DOI, ArXiv, etc.).
	ExternalIDs *ExternalIDs `json:"externalIds,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	// DOI is the Digital Object Identifier.
	DOI string `json:"DOI,omitempty"`

	// ArXiv is the arXiv identifier.
	ArXiv string `json:"ArXiv,omitempty"`

	// PubMed is the PubMed identifier.
	PubMed string `json:"PubMed,omitempty"`
}

// Author represents a paper author in the Semantic Scholar API.
type Author struct {
	// AuthorID is the Semantic Scholar unique identifier for the author.
	AuthorID string `json:"authorId,omitempty"`

	// Name is the author's name.
	Name string `json:"name"`
}

// CitationsResponse represents the response from the citations and
// references endpoints. Each entry wraps the related paper under either
// "citingPaper" (citations) or "citedPaper" (references).
type CitationsResponse struct {
	Offset int             `json:"offset"`
	Next   int             `json:"next"`
	Data   []CitationEntry `json:"data"`
}

// CitationEntry is a single citation or reference edge.
type CitationEntry struct {
	CitingPaper *CitedPaper `json:"citingPaper,omitempty"`
	CitedPaper  *CitedPaper `json:"citedPaper,omitempty"`
}

// CitedPaper is the lightweight paper record carried on citation edges.
type CitedPaper struct {
	PaperID string   `json:"paperId"`
	Title   string   `json:"title"`
	Authors []Author `json:"authors"`
	Year    int      `json:"year"`
}

// RecommendationsResponse represents the response from the
// Recommendations API forpaper endpoint.
type RecommendationsResponse struct {
	RecommendedPapers []PaperResult `json:"recommendedPapers"`
}

// resolveResponse is the minimal response used when resolving an arXiv ID
// to a Semantic Scholar paper ID.
type resolveResponse struct {
	PaperID string `json:"paperId"`
}

// ErrorResponse represents an error response from the Semantic Scholar API.
type ErrorResponse struct {
	// Error is the error message from the API.
	Error string `json:"error,omitempty"`

	// Message is an alternative error message field.
	Message string `json:"message,omitempty"`
}
