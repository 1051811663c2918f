package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefm/station-backend/internal/booking"
)

type fakePublisher struct {
	channel string
	message any
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message any) error {
	f.channel = channel
	f.message = message
	return f.err
}

func TestPubNubNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := &PubNubNotifier{publisher: pub, channel: "station-schedule"}

	ev := booking.Event{
		Type:       booking.EventCreated,
		BookingID:  "b-1",
		Status:     booking.StatusPending,
		OccurredAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.Notify(context.Background(), ev))
	assert.Equal(t, "station-schedule", pub.channel)
	assert.Equal(t, ev, pub.message)
}

func TestPubNubNotifier_PublishError(t *testing.T) {
	cause := errors.New("403 forbidden")
	n := &PubNubNotifier{publisher: &fakePublisher{err: cause}, channel: "station-schedule"}

	err := n.Notify(context.Background(), booking.Event{Type: booking.EventDeleted})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "booking.deleted")
}

func TestNew(t *testing.T) {
	assert.IsType(t, Nop{}, New(Config{}))

	n := New(Config{PublishKey: "pub-c-test", SubscribeKey: "sub-c-test", UserID: "station-backend", Channel: "station-schedule"})
	pn, ok := n.(*PubNubNotifier)
	require.True(t, ok)
	assert.Equal(t, "station-schedule", pn.channel)

	assert.NoError(t, Nop{}.Notify(context.Background(), booking.Event{}))
}
