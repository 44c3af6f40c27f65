package amqp

import (
	"encoding/json"
	"time"
)

const (
	EventExpenseCreated = "expense.created"
	EventExpenseDeleted = "expense.deleted"
)

// Event is the message published for every ledger write. Created events
// carry only the expense ID; consumers fetch the full record from the store.
// Deleted events additionally carry a snapshot so consumers can act after
// the row is gone.
type Event struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`

	// Snapshot fields, set on deletion only.
	Phone        string `json:"phone,omitempty"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`
	AmountMicros int64  `json:"amountMicros,omitempty"`
	DateMS       int64  `json:"dateMs,omitempty"`
}

func NewExpenseCreatedEvent(id int64, owner string) *Event {
	return &Event{
		Type:      EventExpenseCreated,
		ID:        id,
		Owner:     owner,
		Timestamp: time.Now(),
	}
}

func NewExpenseDeletedEvent(id int64, owner, phone, description, category string, amountMicros, dateMS int64) *Event {
	return &Event{
		Type:         EventExpenseDeleted,
		ID:           id,
		Owner:        owner,
		Timestamp:    time.Now(),
		Phone:        phone,
		Description:  description,
		Category:     category,
		AmountMicros: amountMicros,
		DateMS:       dateMS,
	}
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
