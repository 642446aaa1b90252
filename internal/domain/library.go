package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating values. Anything else is rejected at the API boundary.
const (
	RatingLike    = 1
	RatingDislike = -1
)

// Favorite marks a paper as saved by a user, with an optional tag list.
// The (UserID, PaperID) pair is unique; tags are replaced as a whole set and
// never affect paper identity.
type Favorite struct {
	UserID    string    `json:"user_id"`
	PaperID   string    `json:"paper_id"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasTag reports whether the favorite carries the given tag.
func (f *Favorite) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Rating is a user's like/dislike judgement on a paper. One rating per
// (UserID, PaperID); a repeated rating replaces the previous value.
type Rating struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	PaperID   string    `json:"paper_id"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that the rating value is one of the allowed values.
func (r *Rating) Validate() error {
	if r.Value != RatingLike && r.Value != RatingDislike {
		return NewValidationError("value", "rating must be 1 or -1")
	}
	if r.PaperID == "" {
		return NewValidationError("paper_id", "paper ID is required")
	}
	return nil
}

// HistoryEntry records that a user viewed a paper, with an optional primary
// category tag for later filtering.
type HistoryEntry struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"user_id"`
	PaperID  string    `json:"paper_id"`
	Category string    `json:"category,omitempty"`
	ViewedAt time.Time `json:"viewed_at"`
}

// InterestSet computes the ordered, deduplicated union of favorited paper IDs
// and positively rated paper IDs. Favorites come first, then liked papers, so
// iteration order is stable for seeding recommendations (only a capped prefix
// of the set is ever consulted).
func InterestSet(favorites []*Favorite, ratings []*Rating) []string {
	seen := make(map[string]struct{}, len(favorites)+len(ratings))
	ids := make([]string, 0, len(favorites)+len(ratings))

	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, f := range favorites {
		add(f.PaperID)
	}
	for _, r := range ratings {
		if r.Value > 0 {
			add(r.PaperID)
		}
	}
	return ids
}
