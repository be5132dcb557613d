package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Change operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ChangeMessage says a ledger document changed. It carries no document body;
// consumers read the current version from the store.
type ChangeMessage struct {
	MessageID  string    `json:"messageId"`
	Collection string    `json:"collection"`
	DocumentID string    `json:"id"`
	Op         string    `json:"op"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection, documentID, op string) *ChangeMessage {
	return &ChangeMessage{
		MessageID:  uuid.NewString(),
		Collection: collection,
		DocumentID: documentID,
		Op:         op,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *ChangeMessage) Validate() error {
	if m.MessageID == "" {
		return fmt.Errorf("missing message id")
	}
	if m.Collection == "" || m.DocumentID == "" {
		return fmt.Errorf("message %s: missing collection or document id", m.MessageID)
	}
	switch m.Op {
	case OpCreate, OpUpdate, OpDelete:
		return nil
	default:
		return fmt.Errorf("message %s: unknown op %q", m.MessageID, m.Op)
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
