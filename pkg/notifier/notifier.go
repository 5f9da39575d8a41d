// Package notifier delivers alert messages over independent channels.
// A channel that is not configured, or that fails, reports false and logs
// why; it never returns an error to the caller.
package notifier

import (
	"context"

	"github.com/dtnitsch/vacancy-watch/pkg/logger"
)

// Message is a fully formatted alert. Channels without a subject line
// (Telegram) send only the body.
type Message struct {
	Subject string
	Body    string
}

// Channel is one notification transport.
type Channel interface {
	Name() string
	Notify(ctx context.Context, msg Message) bool
}

// Delivery records the outcome of one channel for one message.
type Delivery struct {
	Channel string
	OK      bool
}

// Broadcast sends msg on every channel in order. A failing channel does not
// stop the ones after it.
func Broadcast(ctx context.Context, log logger.Logger, channels []Channel, msg Message) []Delivery {
	out := make([]Delivery, 0, len(channels))
	for _, ch := range channels {
		ok := ch.Notify(ctx, msg)
		if !ok {
			log.Debug("channel did not deliver", logger.String("channel", ch.Name()))
		}
		out = append(out, Delivery{Channel: ch.Name(), OK: ok})
	}
	return out
}

// Delivered counts successful deliveries.
func Delivered(ds []Delivery) int {
	n := 0
	for _, d := range ds {
		if d.OK {
			n++
		}
	}
	return n
}
