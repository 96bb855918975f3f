package models

import "time"

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a session's assistant chat
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChatMessage stamps a message with the current time
func NewChatMessage(role, content string) ChatMessage {
	return ChatMessage{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// QuestionPrompt is what an answer suggester gets to see about one question
type QuestionPrompt struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Sector     string `json:"sector"`
	ModuleName string `json:"module_name"`
	// Draft is the answer currently stored for the question, if any.
	Draft string `json:"draft,omitempty"`
	// Sectors are the sector names the reviewer filtered on.
	Sectors []string `json:"sectors,omitempty"`
}
