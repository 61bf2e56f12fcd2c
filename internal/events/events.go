// Package events publishes domain events for downstream consumers
// (analytics, CRM sync). Publishing is best-effort: callers log failures and
// carry on, since the state change has already committed.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type Type string

const (
	TypeEnrollmentCreated   Type = "enrollment.created"
	TypeEnrollmentCancelled Type = "enrollment.cancelled"
	TypeEnrollmentCompleted Type = "enrollment.completed"
	TypeCertificateIssued   Type = "certificate.issued"
	TypeContactReceived     Type = "contact.received"
)

// Event is transport-agnostic. Key orders events for one aggregate.
type Event struct {
	Type       Type            `json:"type"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
	RequestID  string          `json:"request_id,omitempty"`
}

// New marshals payload into an event.
func New(t Type, key string, payload any, at time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Key: key, Payload: raw, OccurredAt: at}, nil
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Memory records published events for dev and tests.
type Memory struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Event{}, m.events...)
}

// OfType filters published events by type.
func (m *Memory) OfType(t Type) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
