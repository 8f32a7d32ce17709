package metrics

import (
	"strconv"

	"dsclend/core/events"
	"dsclend/core/types"
)

// Emitter decorates another event emitter and records a counter sample for
// every event passing through it.
type Emitter struct {
	next    events.Emitter
	metrics *LendingMetrics
}

// NewEmitter wraps next with operation counting. A nil next is replaced by the
// no-op emitter so callers can wire metrics without a downstream sink.
func NewEmitter(next events.Emitter) *Emitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &Emitter{next: next, metrics: Lending()}
}

// payloadCarrier is satisfied by event adapters that expose the broadcast
// payload alongside the type tag.
type payloadCarrier interface {
	Event() *types.Event
}

// Emit counts the event by type, accumulates its amount attribute when one is
// present and forwards it downstream.
func (e *Emitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	eventType := evt.EventType()
	e.metrics.ObserveOperation(eventType)
	if carrier, ok := evt.(payloadCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			if raw, ok := payload.Attributes["amount"]; ok {
				if amount, err := strconv.ParseUint(raw, 10, 64); err == nil {
					e.metrics.ObserveAmount(eventType, amount)
				}
			}
		}
	}
	e.next.Emit(evt)
}
