package observability

import (
	"log/slog"
	"strconv"

	"staychain/core/events"
	"staychain/core/types"
	"staychain/native/rental"
)

type payloadCarrier interface {
	Event() *types.Event
}

// EventSink bridges engine events into structured logs and the metrics
// registry. It satisfies events.Emitter.
type EventSink struct {
	log *slog.Logger
}

// NewEventSink wraps a logger; nil disables logging but keeps metrics.
func NewEventSink(log *slog.Logger) *EventSink {
	return &EventSink{log: log}
}

// Emit implements events.Emitter.
func (s *EventSink) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	Engine().RecordEvent(evt.EventType())
	var payload *types.Event
	if carrier, ok := evt.(payloadCarrier); ok {
		payload = carrier.Event()
	}
	if payload != nil {
		recordRevenue(payload)
	}
	if s == nil || s.log == nil {
		return
	}
	attrs := []any{slog.String("event", evt.EventType())}
	if payload != nil {
		for key, value := range payload.Attributes {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	s.log.Info("engine event", attrs...)
}

// recordRevenue keeps the platform revenue gauge in step with fee-bearing
// events: fee credits carry the platform-fee attribute, withdrawals reverse
// the gauge by the amount paid out.
func recordRevenue(payload *types.Event) {
	denom := payload.Attributes["denom"]
	if denom == "" {
		return
	}
	if raw := payload.Attributes[types.AttrPlatformFee]; raw != "" {
		if fee, err := strconv.ParseFloat(raw, 64); err == nil {
			Engine().RecordRevenue(denom, fee)
		}
	}
	if payload.Type != rental.EventTypePlatformWithdrawn {
		return
	}
	if raw := payload.Attributes["amount"]; raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			Engine().RecordRevenue(denom, -amount)
		}
	}
}
