package notification

import (
	"time"
)

// MessageResponse represents a message in the SSE stream
type MessageResponse struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Message   string      `json:"message"`
	Detail    interface{} `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func ToResponse(m Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Event:     m.Event,
		Message:   m.Message,
		Detail:    m.Detail,
		CreatedAt: m.CreatedAt,
	}
}

// SSETokenResponse represents the SSE token response
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
