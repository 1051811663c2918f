package booking

import (
	"context"
	"time"
)

type EventType string

const (
	EventCreated       EventType = "booking.created"
	EventStatusChanged EventType = "booking.status_changed"
	EventUpdated       EventType = "booking.updated"
	EventDeleted       EventType = "booking.deleted"
)

// Event tells schedule views that a booking changed.
type Event struct {
	Type       EventType `json:"type"`
	BookingID  string    `json:"booking_id"`
	Title      string    `json:"title"`
	DJID       string    `json:"dj_id"`
	DJName     string    `json:"dj_name"`
	Status     Status    `json:"status"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier delivers booking events. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

func newEvent(t EventType, b *Booking, actorID string, at time.Time) Event {
	return Event{
		Type:       t,
		BookingID:  b.ID,
		Title:      b.Title,
		DJID:       b.DJID,
		DJName:     b.DJName,
		Status:     b.Status,
		Start:      b.Start,
		End:        b.End,
		ActorID:    actorID,
		OccurredAt: at,
	}
}
