package events

import (
	"context"

	"go.uber.org/zap"
)

// Dispatcher delivers committed events. Delivery failures are logged and
// never affect the operation that produced the event; the outbox remains the record.
type Dispatcher struct {
	hub   *Hub
	sinks []Sink
	log   *zap.Logger
}

func NewDispatcher(hub *Hub, log *zap.Logger, sinks ...Sink) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{hub: hub, sinks: sinks, log: log.Named("events.dispatcher")}
}

func (d *Dispatcher) Dispatch(ctx context.Context, committed []Event) {
	if d == nil {
		return
	}
	for _, event := range committed {
		d.hub.Publish(event)
		for _, sink := range d.sinks {
			if err := sink.Publish(ctx, event); err != nil {
				d.log.Warn("event sink publish failed",
					zap.String("event", string(event.Name)),
					zap.Uint64("seq", event.Seq),
					zap.Error(err),
				)
			}
		}
	}
}
