// Package protocol defines the WebSocket message types streamed to the
// reading screen.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	TypeGaze    MessageType = "gaze"    // Live gaze position and resolved word
	TypeState   MessageType = "state"   // Session lifecycle change
	TypeSummary MessageType = "summary" // Completed session summary
	TypeLayout  MessageType = "layout"  // New word layout published
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: marshal %s data: %w", msgType, err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("protocol: parse message: missing type")
	}
	return &msg, nil
}

// GazeData is one live gaze update. Coordinates are normalized with (0,0)
// at screen center; Word is empty when the gaze is not on any word.
type GazeData struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Word     string  `json:"word,omitempty"`
	HasFrame bool    `json:"has_frame"`
}

// StateData is a session lifecycle change.
type StateData struct {
	State     string `json:"state"`
	SessionID string `json:"session_id,omitempty"`
}

// LayoutData announces a newly published layout.
type LayoutData struct {
	Version uint64 `json:"version"`
	Words   int    `json:"words"`
}
