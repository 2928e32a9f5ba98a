// Package messaging moves factory events over a broker. The backend is
// pluggable: Kafka for plant-wide streams, MQTT for edge devices, RabbitMQ
// where the site already runs one. All backends speak the same JSON envelope.
package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire format for every published message.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

func NewEnvelope(msgType, source string, payload []byte) *Envelope {
	return &Envelope{
		ID:        uuid.New().String(),
		Type:      msgType,
		Source:    source,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func ParseEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
