package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fundtrack/internal/core"
)

const (
	ActionSync   = "sync"
	ActionDelete = "delete"
)

// RecordEvent is the lightweight message published for every record
// mutation. It carries only the entity kind and identifier; the export
// worker fetches the full row from the store.
type RecordEvent struct {
	Action    string               `json:"action"`
	Entity    core.TransactionType `json:"entity"`
	ID        string               `json:"id"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewSyncEvent builds an event announcing a newly created record.
func NewSyncEvent(entity core.TransactionType, id string) *RecordEvent {
	return &RecordEvent{Action: ActionSync, Entity: entity, ID: id, Timestamp: time.Now()}
}

// NewDeleteEvent builds an event announcing a removed record.
func NewDeleteEvent(entity core.TransactionType, id string) *RecordEvent {
	return &RecordEvent{Action: ActionDelete, Entity: entity, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes.
func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON parses and validates an event from JSON bytes.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Action != ActionSync && e.Action != ActionDelete {
		return nil, fmt.Errorf("unknown action %q", e.Action)
	}
	if e.Entity != core.TypeExpense && e.Entity != core.TypeFund {
		return nil, fmt.Errorf("unknown entity %q", e.Entity)
	}
	if e.ID == "" {
		return nil, fmt.Errorf("missing record id")
	}
	return &e, nil
}
