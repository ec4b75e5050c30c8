package protocol

import (
	"encoding/json"
	"fmt"
)

// Marshal serializes a message to JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes data into the concrete message type named by its "type"
// field.
func Unmarshal(data []byte) (any, error) {
	var envelope struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var msg any
	switch envelope.Type {
	case TypeReset:
		msg = &Reset{}
	case TypeStep:
		msg = &Step{}
	case TypeWelcome:
		msg = &Welcome{}
	case TypeState:
		msg = &StateUpdate{}
	case TypeError:
		msg = &Error{}
	default:
		return nil, fmt.Errorf("unknown message type %q", envelope.Type)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
	}
	return msg, nil
}
