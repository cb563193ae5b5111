package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/nutrihub/server/internal/storage"
)

type ChatMessageDTO struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type SendMessageResponse struct {
	Reply  string `json:"reply"`
	Intent string `json:"intent"`
}

type ListMessagesResponse struct {
	Messages   []ChatMessageDTO `json:"messages"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func messageToDTO(msg storage.ChatMessage) ChatMessageDTO {
	return ChatMessageDTO{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}
