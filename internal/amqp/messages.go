package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trainerworkload/internal/core"
	"trainerworkload/internal/ingest"
)

// TrainingMessage carries one training payload on the queue. The payload
// fields are flattened into the message body, so producers that only send
// the bare event are accepted too.
type TrainingMessage struct {
	ingest.RawEvent
	MessageID string    `json:"messageId,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

func NewTrainingMessage(raw ingest.RawEvent) *TrainingMessage {
	return &TrainingMessage{
		RawEvent:  raw,
		MessageID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

func (m *TrainingMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TrainingMessageFromJSON decodes a delivery body. Failures wrap
// core.ErrMalformedEvent.
func TrainingMessageFromJSON(data []byte) (*TrainingMessage, error) {
	raw, err := ingest.Decode(data)
	if err != nil {
		return nil, err
	}
	var meta struct {
		MessageID string    `json:"messageId"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
	}
	return &TrainingMessage{RawEvent: raw, MessageID: meta.MessageID, Timestamp: meta.Timestamp}, nil
}
