// FILE: internal/dto/chat_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendChatRequest struct {
	Question string `json:"question" validate:"required,min=1"`
}

type SendChatResponse struct {
	Accepted bool `json:"accepted"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

type ThreadResponse struct {
	Messages []ChatMessageResponse `json:"messages"`
	InFlight bool                  `json:"in_flight"`
}
