// Package notify fans booking changes out to schedule views over PubNub.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"

	"github.com/wavefm/station-backend/internal/booking"
)

type Config struct {
	PublishKey   string
	SubscribeKey string
	UserID       string
	Channel      string
}

// New returns a PubNub backed notifier, or Nop when no publish key is configured.
func New(cfg Config) booking.Notifier {
	if cfg.PublishKey == "" {
		slog.Info("schedule notifications disabled", "reason", "no pubnub publish key")
		return Nop{}
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UserID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey

	return &PubNubNotifier{
		publisher: pubnubPublisher{pn: pubnub.NewPubNub(pnCfg)},
		channel:   cfg.Channel,
	}
}

type publisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

type pubnubPublisher struct {
	pn *pubnub.PubNub
}

func (p pubnubPublisher) Publish(ctx context.Context, channel string, message any) error {
	_, status, err := p.pn.PublishWithContext(ctx).
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return err
	}
	if status.StatusCode >= 300 {
		return fmt.Errorf("pubnub publish returned status %d", status.StatusCode)
	}
	return nil
}

// PubNubNotifier publishes every booking event on a single schedule channel.
type PubNubNotifier struct {
	publisher publisher
	channel   string
}

func (n *PubNubNotifier) Notify(ctx context.Context, ev booking.Event) error {
	if err := n.publisher.Publish(ctx, n.channel, ev); err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.Type, n.channel, err)
	}
	return nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, booking.Event) error { return nil }
