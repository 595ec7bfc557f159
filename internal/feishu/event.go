// Package feishu implements the Feishu open-platform surface: the inbound
// event envelope and the outbound auth and message-reply calls.
package feishu

import (
	"encoding/json"
	"errors"
)

// EventTypeURLVerification is the platform handshake event; the service
// answers it by echoing the challenge.
const EventTypeURLVerification = "url_verification"

// Event is the inbound webhook envelope.
type Event struct {
	Challenge string         `json:"challenge,omitempty"`
	Type      string         `json:"type,omitempty"`
	Token     string         `json:"token,omitempty"`
	Header    map[string]any `json:"header,omitempty"`
	Event     map[string]any `json:"event,omitempty"`
}

// messageContent is the JSON-encoded content field of a text message.
type messageContent struct {
	Text string `json:"text"`
}

// MessageID extracts the originating message id from the event payload.
func (e *Event) MessageID() (string, error) {
	message, ok := e.Event["message"].(map[string]any)
	if !ok {
		return "", errors.New("event has no message payload")
	}
	id, ok := message["message_id"].(string)
	if !ok || id == "" {
		return "", errors.New("event message has no message_id")
	}
	return id, nil
}

// MessageText extracts the question text from the event payload.
func (e *Event) MessageText() (string, error) {
	message, ok := e.Event["message"].(map[string]any)
	if !ok {
		return "", errors.New("event has no message payload")
	}
	raw, ok := message["content"].(string)
	if !ok {
		return "", errors.New("event message has no content")
	}
	var content messageContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return "", err
	}
	return content.Text, nil
}
