package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names the mutation a LedgerEventMessage reports.
type EventType string

const (
	EventCreated EventType = "created"
	EventDeleted EventType = "deleted"
)

// LedgerEventMessage is a lightweight notification that the ledger
// changed. It carries only the affected id and the store version; consumers
// reload the slot for the actual data.
type LedgerEventMessage struct {
	MessageID string    `json:"message_id"`
	Event     EventType `json:"event"`
	ID        int64     `json:"id"`
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage stamps a new event with a fresh message id.
func NewLedgerEventMessage(event EventType, id int64, version uint64) *LedgerEventMessage {
	return &LedgerEventMessage{
		MessageID: uuid.NewString(),
		Event:     event,
		ID:        id,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes a message and checks the event type.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Event {
	case EventCreated, EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event %q", msg.Event)
	}
	return &msg, nil
}
