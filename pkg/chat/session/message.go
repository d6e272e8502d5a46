package session

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// MessageState is the lifecycle of an assistant message:
// pending -> streaming (any number of content replacements) -> complete | failed.
// Complete and failed are terminal; the message is never touched again.
// User messages are created complete and never mutated.
type MessageState string

const (
	MessageStatePending   MessageState = "pending"
	MessageStateStreaming MessageState = "streaming"
	MessageStateComplete  MessageState = "complete"
	MessageStateFailed    MessageState = "failed"
)

const (
	// FallbackAnswer replaces the pending content when a dispatch fails.
	FallbackAnswer = "Sorry, AI is not responding right now."

	// EmptyAnswer replaces an answer that completed with no content.
	EmptyAnswer = "No response."
)

type Message struct {
	Id        uuid.UUID    `json:"id"`
	Role      MessageRole  `json:"role"`
	Content   string       `json:"content"`
	State     MessageState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
}

func (m *Message) Terminal() bool {
	return m.State == MessageStateComplete || m.State == MessageStateFailed
}

func newUserMessage(content string, now time.Time) *Message {
	return &Message{
		Id:        uuid.New(),
		Role:      MessageRoleUser,
		Content:   content,
		State:     MessageStateComplete,
		CreatedAt: now,
	}
}

func newPendingAssistantMessage(now time.Time) *Message {
	return &Message{
		Id:        uuid.New(),
		Role:      MessageRoleAssistant,
		State:     MessageStatePending,
		CreatedAt: now,
	}
}
