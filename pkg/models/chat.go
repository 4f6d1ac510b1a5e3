// Package models defines the core data structures shared across TickerDesk.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a chat message. It is a closed set;
// anything other than SenderUser or SenderAssistant is invalid.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the known sender values.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// ChatMessage is a single message in a conversation. Messages are immutable
// once created; a session only ever appends them. Timestamp is informational
// (unix seconds), insertion order is the authoritative ordering.
type ChatMessage struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Sender    Sender `json:"sender"`
}

// NewChatMessage creates a message stamped with the current time.
func NewChatMessage(sender Sender, text string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Timestamp: time.Now().Unix(),
		Sender:    sender,
	}
}
