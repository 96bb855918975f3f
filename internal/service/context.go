package service

import (
	"rpgpt/internal/models"
)

// DefaultContextLimit is how many chat messages are sent to the model
const DefaultContextLimit = 10

// ChatContext bounds the chat history a session keeps and sends
type ChatContext struct {
	limit int
}

func NewChatContext(limit int) *ChatContext {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	return &ChatContext{limit: limit}
}

// Limit returns the number of messages sent per request
func (c *ChatContext) Limit() int {
	return c.limit
}

// Window returns the trailing messages that go to the model
func (c *ChatContext) Window(history []models.ChatMessage) []models.ChatMessage {
	return tail(history, c.limit)
}

// Truncate keeps at most twice the window so stored history stays bounded
func (c *ChatContext) Truncate(history []models.ChatMessage) []models.ChatMessage {
	return tail(history, 2*c.limit)
}

// Interactions groups history into (user, reply) pairs in order. A reply
// belongs to the user message directly before it; a user message whose
// call failed, or the trailing one, gets an empty reply. Assistant messages
// with no user message before them are skipped.
func (c *ChatContext) Interactions(history []models.ChatMessage) [][2]models.ChatMessage {
	pairs := [][2]models.ChatMessage{}
	for i, m := range history {
		switch m.Role {
		case models.RoleUser:
			pairs = append(pairs, [2]models.ChatMessage{m, {}})
		case models.RoleAssistant:
			if i > 0 && history[i-1].Role == models.RoleUser {
				pairs[len(pairs)-1][1] = m
			}
		}
	}
	return pairs
}

func tail(history []models.ChatMessage, n int) []models.ChatMessage {
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	out := make([]models.ChatMessage, len(history)-start)
	copy(out, history[start:])
	return out
}
