// Package queue defines message payloads exchanged over the message
// broker and the publisher that emits them.
package queue

// ActivityEvent is published after a successful write to a user's
// movie state (history add, watchlist toggle, rating write). It
// carries enough for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type ActivityEvent struct {
	EventID    string `json:"event_id"`
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id"`
	MovieID    int64  `json:"movie_id"`
	MovieTitle string `json:"movie_title,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// Event types carried by ActivityEvent.
const (
	EventHistoryAdded     = "watch_history.added"
	EventWatchlistAdded   = "watchlist.added"
	EventWatchlistRemoved = "watchlist.removed"
	EventRatingSet        = "rating.set"
)
