// Package events publishes user-activity events to Kafka so downstream
// consumers (analytics, notification services) can react to library changes.
// Publishing is fire-and-forget: a broker outage never fails the request
// that produced the event.
package events

import (
	"context"
	"time"
)

// Event types emitted by the library service.
const (
	TypeFavoriteAdded   = "favorite.added"
	TypeFavoriteRemoved = "favorite.removed"
	TypePaperViewed     = "paper.viewed"
)

// Event is a single user-activity record.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	PaperID    string    `json:"paper_id"`
	Category   string    `json:"category,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits user-activity events. Implementations must not block the
// caller on broker availability and must never return delivery errors to it.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// NopPublisher discards all events. Used when Kafka is disabled.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(context.Context, Event) {}

// Close is a no-op.
func (NopPublisher) Close() error { return nil }
