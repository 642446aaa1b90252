package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_JSON(t *testing.T) {
	t.Run("category omitted when empty", func(t *testing.T) {
		event := Event{
			Type:       TypeFavoriteAdded,
			UserID:     "user-1",
			PaperID:    "2301.01234",
			OccurredAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}

		payload, err := json.Marshal(event)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type": "favorite.added",
			"user_id": "user-1",
			"paper_id": "2301.01234",
			"occurred_at": "2026-08-01T12:00:00Z"
		}`, string(payload))
	})

	t.Run("category included when set", func(t *testing.T) {
		event := Event{
			Type:     TypePaperViewed,
			UserID:   "user-1",
			PaperID:  "abc123",
			Category: "cs.LG",
		}

		payload, err := json.Marshal(event)
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"category":"cs.LG"`)
	})
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	p.Publish(context.Background(), Event{Type: TypeFavoriteAdded, UserID: "u", PaperID: "p"})
	assert.NoError(t, p.Close())
}
