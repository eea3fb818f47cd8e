package apiproxy

import (
	"context"
	"log/slog"

	"github.com/kazz187/shopguild/internal/eventbus"
)

const invalidatorBuffer = 256

// Invalidator drops cached reads when the bus reports a changed resource.
type Invalidator struct {
	bus    *eventbus.Bus
	client *Client
	subID  string
	events <-chan *eventbus.Event
}

// NewInvalidator subscribes immediately so no event published before Run
// starts is missed.
func NewInvalidator(bus *eventbus.Bus, client *Client) *Invalidator {
	id, ch := bus.Subscribe(invalidatorBuffer)
	return &Invalidator{bus: bus, client: client, subID: id, events: ch}
}

// Run consumes events until ctx is done.
func (i *Invalidator) Run(ctx context.Context) error {
	defer i.bus.Unsubscribe(i.subID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-i.events:
			if !ok {
				return nil
			}
			if ev.Type != eventbus.EventResourceChanged {
				continue
			}
			i.client.Invalidate(ev.Resource)
			slog.DebugContext(ctx, "invalidated cached reads", "resource", ev.Resource, "path", ev.Path, "event_id", ev.ID)
		}
	}
}
