package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntryCreatedMessage announces a newly stored ledger entry to the
// mirror worker. It carries only the entry ID; the worker fetches the
// full entry from the database. EventID deduplicates redeliveries.
type EntryCreatedMessage struct {
	EventID   string    `json:"event_id"`
	EntryID   int64     `json:"entry_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntryCreatedMessage creates a new entry-created message with a fresh event ID
func NewEntryCreatedMessage(entryID int64) *EntryCreatedMessage {
	return &EntryCreatedMessage{
		EventID:   uuid.NewString(),
		EntryID:   entryID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryCreatedMessageFromJSON creates a message from JSON bytes
func EntryCreatedMessageFromJSON(data []byte) (*EntryCreatedMessage, error) {
	var msg EntryCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
