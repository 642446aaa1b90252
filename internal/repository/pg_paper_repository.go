package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scholaris/paper-discovery-service/internal/domain"
)

// Compile-time interface verification.
var _ PaperRepository = (*PgPaperRepository)(nil)

// PgPaperRepository is a PostgreSQL implementation of PaperRepository.
type PgPaperRepository struct {
	db DBTX
}

// NewPgPaperRepository creates a new PostgreSQL paper repository.
func NewPgPaperRepository(db DBTX) *PgPaperRepository {
	return &PgPaperRepository{db: db}
}

const paperUpsertQuery = `
	INSERT INTO papers (
		id, arxiv_id, semantic_scholar_id, title, authors,
		abstract, categories, published_date, url, citation_count,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11
	)
	ON CONFLICT (id) DO UPDATE SET
		arxiv_id = COALESCE(NULLIF(EXCLUDED.arxiv_id, ''), papers.arxiv_id),
		semantic_scholar_id = COALESCE(NULLIF(EXCLUDED.semantic_scholar_id, ''), papers.semantic_scholar_id),
		title = EXCLUDED.title,
		authors = EXCLUDED.authors,
		abstract = COALESCE(NULLIF(EXCLUDED.abstract, ''), papers.abstract),
		categories = CASE WHEN cardinality(EXCLUDED.categories) > 0 THEN EXCLUDED.categories ELSE papers.categories END,
		published_date = COALESCE(EXCLUDED.published_date, papers.published_date),
		url = COALESCE(NULLIF(EXCLUDED.url, ''), papers.url),
		citation_count = GREATEST(EXCLUDED.citation_count, papers.citation_count),
		updated_at = NOW()
	RETURNING created_at, updated_at`

const paperSelectColumns = `
	id, arxiv_id, semantic_scholar_id, title, authors,
	abstract, categories, published_date, url, citation_count,
	created_at, updated_at`

// Upsert inserts a paper or updates the existing row with the same ID.
func (r *PgPaperRepository) Upsert(ctx context.Context, paper *domain.Paper) (*domain.Paper, error) {
	if paper == nil {
		return nil, domain.NewValidationError("paper", "paper cannot be nil")
	}
	if err := paper.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, paperUpsertQuery,
		paper.ID,
		nullableString(paper.ArxivID),
		nullableString(paper.SemanticScholarID),
		paper.Title,
		paper.Authors,
		nullableString(paper.Abstract),
		paper.Categories,
		paper.PublishedDate,
		nullableString(paper.URL),
		paper.CitationCount,
		now,
	).Scan(&paper.CreatedAt, &paper.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert paper: %w", err)
	}

	return paper, nil
}

// BulkUpsert upserts multiple papers using a single pgx.Batch roundtrip.
func (r *PgPaperRepository) BulkUpsert(ctx context.Context, papers []*domain.Paper) ([]*domain.Paper, error) {
	if len(papers) == 0 {
		return []*domain.Paper{}, nil
	}

	for i, paper := range papers {
		if paper == nil {
			return nil, domain.NewValidationError("paper", fmt.Sprintf("paper at index %d is nil", i))
		}
		if err := paper.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, paper := range papers {
		batch.Queue(paperUpsertQuery,
			paper.ID,
			nullableString(paper.ArxivID),
			nullableString(paper.SemanticScholarID),
			paper.Title,
			paper.Authors,
			nullableString(paper.Abstract),
			paper.Categories,
			paper.PublishedDate,
			nullableString(paper.URL),
			paper.CitationCount,
			now,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	results := make([]*domain.Paper, len(papers))
	for i, paper := range papers {
		if err := br.QueryRow().Scan(&paper.CreatedAt, &paper.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to upsert paper at index %d: %w", i, err)
		}
		results[i] = paper
	}

	return results, nil
}

// Get retrieves a paper by identifier, falling back to the provider
// cross-reference columns when the primary ID does not match.
func (r *PgPaperRepository) Get(ctx context.Context, id string) (*domain.Paper, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "paper ID is required")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM papers
		WHERE id = $1 OR arxiv_id = $1 OR semantic_scholar_id = $1
		ORDER BY (id = $1) DESC
		LIMIT 1`, paperSelectColumns)

	row := r.db.QueryRow(ctx, query, id)
	paper, err := scanPaper(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", id)
		}
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}

	return paper, nil
}

// GetByIDs retrieves multiple papers by their primary IDs, preserving input order.
func (r *PgPaperRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM papers
		WHERE id = ANY($1)`, paperSelectColumns)

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get papers by IDs: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.Paper, len(ids))
	for rows.Next() {
		paper, err := scanPaperFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		byID[paper.ID] = paper
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating papers: %w", err)
	}

	// Preserve input order, skipping missing IDs.
	papers := make([]*domain.Paper, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// paperScanDest holds the destination pointers for scanning a Paper row.
type paperScanDest struct {
	paper             domain.Paper
	arxivID           *string
	semanticScholarID *string
	abstract          *string
	url               *string
}

// destinations returns the slice of pointers for Scan operations.
func (d *paperScanDest) destinations() []interface{} {
	return []interface{}{
		&d.paper.ID, &d.arxivID, &d.semanticScholarID, &d.paper.Title, &d.paper.Authors,
		&d.abstract, &d.paper.Categories, &d.paper.PublishedDate, &d.url, &d.paper.CitationCount,
		&d.paper.CreatedAt, &d.paper.UpdatedAt,
	}
}

// finalize maps nullable columns onto the paper's string fields.
func (d *paperScanDest) finalize() *domain.Paper {
	if d.arxivID != nil {
		d.paper.ArxivID = *d.arxivID
	}
	if d.semanticScholarID != nil {
		d.paper.SemanticScholarID = *d.semanticScholarID
	}
	if d.abstract != nil {
		d.paper.Abstract = *d.abstract
	}
	if d.url != nil {
		d.paper.URL = *d.url
	}
	return &d.paper
}

// scanPaper scans a single row into a Paper.
func scanPaper(row pgx.Row) (*domain.Paper, error) {
	var dest paperScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// scanPaperFromRows scans the current row from pgx.Rows into a Paper.
func scanPaperFromRows(rows pgx.Rows) (*domain.Paper, error) {
	var dest paperScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize(), nil
}

// nullableString maps an empty string to NULL so upserts never overwrite
// stored values with empties.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
