package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/GIRISHRV/moviereco/internal/queue"
)

// Event types re-exported so callers of the service do not import
// the queue package just to compare.
const (
	EventHistoryAdded     = queue.EventHistoryAdded
	EventWatchlistAdded   = queue.EventWatchlistAdded
	EventWatchlistRemoved = queue.EventWatchlistRemoved
	EventRatingSet        = queue.EventRatingSet
)

// EventPublisher emits activity events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, event queue.ActivityEvent) error
}

// publish emits one activity event. Publishing happens inside the
// request but can never affect its outcome: failures are logged and
// dropped.
func (l *Library) publish(ctx context.Context, eventType string, userID uint64, movieID int64, title string) {
	if l.events == nil {
		return
	}
	ev := queue.ActivityEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		MovieID:    movieID,
		MovieTitle: title,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := l.events.Publish(ctx, ev); err != nil {
		log.Printf("activity event %s dropped: %v", eventType, err)
	}
}
