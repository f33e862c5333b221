// Package events publishes QR bill lifecycle events for other shop services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Stream configuration
const (
	StreamName    = "SWITZBILLZ"
	subjectPrefix = "switzbillz."
)

// Event types
const (
	OrderValidated  = "order.validated"
	InvoiceCreated  = "invoice.created"
	QRBillGenerated = "qrbill.generated"
	QRBillEmailed   = "qrbill.emailed"
)

// Event is a single lifecycle event.
type Event struct {
	ID        string            `json:"event_id"`
	Type      string            `json:"event_type"`
	OrderID   int64             `json:"order_id"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

// New creates an event with a fresh id.
func New(eventType string, orderID int64, data map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Subject returns the subject the event is published on.
func (e Event) Subject() string {
	return subjectPrefix + e.Type
}

// Publisher publishes events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NATS publishes events to a JetStream stream.
type NATS struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewNATS connects to NATS and makes sure the stream exists.
func NewNATS(ctx context.Context, url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("switzbillz"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "QR bill lifecycle events",
		Subjects:    []string{subjectPrefix + ">"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Discard:     jetstream.DiscardOld,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &NATS{nc: nc, js: js}, nil
}

func (n *NATS) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := n.js.Publish(ctx, event.Subject(), data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains the connection
func (n *NATS) Close() {
	if n.nc != nil {
		n.nc.Drain()
	}
}

// Nop discards all events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Memory keeps published events in memory.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of the published events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Types returns the types of the published events in order.
func (m *Memory) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}
