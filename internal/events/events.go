package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/payledger/apiserver/types"
)

// Type identifies a payment lifecycle event.
type Type string

const (
	PaymentCreated Type = "payment.created"
	PaymentUpdated Type = "payment.updated"
	PaymentDeleted Type = "payment.deleted"
)

// Event is the JSON payload published to downstream consumers.
type Event struct {
	Type       Type          `json:"type"`
	Payment    types.Payment `json:"payment"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// Backend defines the broker-agnostic publish operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher publishes payment events to a single named channel. A nil
// Publisher is valid and publishes nothing, so callers need no configuration
// checks.
type Publisher struct {
	backend Backend
	channel string
}

// NewPublisher constructs a Publisher for the provided backend and channel.
func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// Publish sends a payment event. The returned error is the broker's; callers
// treat publishing as best-effort.
func (p *Publisher) Publish(ctx context.Context, eventType Type, payment types.Payment) error {
	if p == nil || p.backend == nil {
		return nil
	}

	event := Event{
		Type:       eventType,
		Payment:    payment,
		OccurredAt: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	attrs := map[string]string{"event": string(eventType)}
	_, err = p.backend.Publish(ctx, p.channel, data, attrs)
	return err
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
