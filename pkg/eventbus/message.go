package eventbus

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the kind of envelope on the wire.
type MessageType string

const (
	// TypeEvent carries a published event on a URI path.
	TypeEvent MessageType = "event"
	// TypeRequest carries a request to a service path.
	TypeRequest MessageType = "request"
	// TypeReply carries the reply to a request, correlated by ID.
	TypeReply MessageType = "reply"
)

// Envelope is the wire wrapper for all event service messages. Payloads
// are JSON; binary payloads (CAN frames, images) travel base64-encoded
// inside their payload structs.
type Envelope struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id,omitempty"` // request/reply correlation
	Path      string          `json:"path"`
	Timestamp int64           `json:"ts,omitempty"` // unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`

	// Error is set on replies when the service rejected the request.
	Error string `json:"error,omitempty"`
}

// NewEnvelope creates an envelope with the current timestamp and the
// payload marshaled to JSON.
func NewEnvelope(msgType MessageType, path string, payload any) (Envelope, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("failed to marshal payload: %w", err)
		}
	}
	return Envelope{
		Type:      msgType,
		Path:      path,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}, nil
}

// Event is one message delivered to a subscriber.
type Event struct {
	// Path is the URI path the event was published on.
	Path string

	// Stamp is the sender's publish time.
	Stamp time.Time

	// Payload is the raw JSON payload.
	Payload json.RawMessage
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode event on %s: %w", e.Path, err)
	}
	return nil
}
