package ws

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire format for every event in both directions: an event
// name plus an event-specific JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an envelope for the given event and payload.
func Encode(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
		}
		data = raw
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// decodeString accepts either a bare JSON string or an object with a single
// well-known key, so both `"abc"` and `{"clientId": "abc"}` work.
func decodeString(data json.RawMessage, key string) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("expected string or object payload: %w", err)
	}
	return obj[key], nil
}

// UploadResponse is returned by the blob upload endpoints.
type UploadResponse struct {
	URL string `json:"url"`
}
