package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMarshalsPayload(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event, err := New(TypeEnrollmentCreated, "enr-1", map[string]string{"cohort_id": "c-1"}, at)
	require.NoError(t, err)

	assert.Equal(t, TypeEnrollmentCreated, event.Type)
	assert.Equal(t, "enr-1", event.Key)
	assert.Equal(t, at, event.OccurredAt)
	assert.JSONEq(t, `{"cohort_id":"c-1"}`, string(event.Payload))

	_, err = New(TypeEnrollmentCreated, "enr-1", make(chan int), at)
	assert.Error(t, err)
}

func TestMemoryPublisher(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Publish(ctx, Event{Type: TypeEnrollmentCreated, Key: "a", Payload: json.RawMessage(`{}`)}))
	require.NoError(t, m.Publish(ctx, Event{Type: TypeCertificateIssued, Key: "b", Payload: json.RawMessage(`{}`)}))
	require.NoError(t, m.Publish(ctx, Event{Type: TypeEnrollmentCreated, Key: "c", Payload: json.RawMessage(`{}`)}))

	assert.Len(t, m.Events(), 3)
	created := m.OfType(TypeEnrollmentCreated)
	require.Len(t, created, 2)
	assert.Equal(t, "a", created[0].Key)
	assert.Equal(t, "c", created[1].Key)

	snapshot := m.Events()
	m.Clear()
	assert.Empty(t, m.Events())
	assert.Len(t, snapshot, 3)
}
