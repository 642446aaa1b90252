package arxiv

import "strings"

// Query is a composable arXiv search query. Each non-empty field becomes a
// fielded clause (ti:, au:, abs:, cat:, all:); the clauses are joined with
// AND. An entirely empty Query renders as the empty string.
type Query struct {
	// Title searches within paper titles.
	Title string

	// Author searches within author names.
	Author string

	// Abstract searches within abstracts.
	Abstract string

	// Category restricts results to an arXiv subject category (e.g. "cs.LG").
	Category string

	// All searches across all fields.
	All string
}

// String renders the query in arXiv's search_query syntax.
func (q Query) String() string {
	parts := make([]string, 0, 5)

	if q.Title != "" {
		parts = append(parts, "ti:"+q.Title)
	}
	if q.Author != "" {
		parts = append(parts, "au:"+q.Author)
	}
	if q.Abstract != "" {
		parts = append(parts, "abs:"+q.Abstract)
	}
	if q.Category != "" {
		parts = append(parts, "cat:"+q.Category)
	}
	if q.All != "" {
		parts = append(parts, "all:"+q.All)
	}

	return strings.Join(parts, " AND ")
}

// IsEmpty reports whether no clause is set.
func (q Query) IsEmpty() bool {
	return q.Title == "" && q.Author == "" && q.Abstract == "" && q.Category == "" && q.All == ""
}
