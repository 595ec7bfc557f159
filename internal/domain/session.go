package domain

import "time"

// Session kinds recorded in the transcript store.
const (
	SessionKindStream  = "stream"
	SessionKindWebhook = "webhook"
)

// Session is a recorded conversation, either a streaming connection or a
// webhook exchange. The transcript is an audit record only; answering
// history never crosses session boundaries.
type Session struct {
	ID              string    `json:"id"`
	KnowledgeBaseID string    `json:"knowledge_base_id"`
	Kind            string    `json:"kind"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Message is one transcript entry within a session.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
