package domain

import (
	"time"

	"github.com/google/uuid"
)

// Proposal is an AI-generated research-theme proposal derived from a user's
// favorited papers.
type Proposal struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	SourcePaperIDs []string  `json:"source_paper_ids"`
	OpenProblems   []string  `json:"open_problems,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks the proposal's required fields.
func (p *Proposal) Validate() error {
	if p.Title == "" {
		return NewValidationError("title", "proposal title is required")
	}
	if p.Description == "" {
		return NewValidationError("description", "proposal description is required")
	}
	if len(p.SourcePaperIDs) == 0 {
		return NewValidationError("source_paper_ids", "at least one source paper is required")
	}
	return nil
}
