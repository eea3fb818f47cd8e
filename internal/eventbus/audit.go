package eventbus

import (
	"context"
	"log/slog"
)

// AuditLog writes every published event to the log.
type AuditLog struct {
	bus    *Bus
	subID  string
	events <-chan *Event
}

// NewAuditLog subscribes right away so events published before Run are kept.
func NewAuditLog(bus *Bus) *AuditLog {
	id, ch := bus.Subscribe(256)
	return &AuditLog{bus: bus, subID: id, events: ch}
}

func (a *AuditLog) Run(ctx context.Context) error {
	defer a.bus.Unsubscribe(a.subID)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-a.events:
			if !ok {
				return nil
			}
			slog.InfoContext(ctx, "change recorded",
				"event_id", ev.ID,
				"event_type", string(ev.Type),
				"resource", ev.Resource,
				"path", ev.Path,
				"at", ev.CreatedAt,
			)
		}
	}
}
