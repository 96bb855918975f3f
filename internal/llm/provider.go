package llm

import (
	"context"
	"fmt"
	"strings"

	"rpgpt/internal/models"
)

// Provider names
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// AnswerSuggester drafts an answer for a question
type AnswerSuggester interface {
	Suggest(ctx context.Context, p models.QuestionPrompt) (string, error)
}

// Chatter continues a conversation; the last message is the user's
type Chatter interface {
	Chat(ctx context.Context, history []models.ChatMessage) (string, error)
}

// Assistant is a configured provider that can do both
type Assistant interface {
	AnswerSuggester
	Chatter
	Provider() string
	Model() string
}

// ProviderConfig selects and configures an assistant
type ProviderConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
}

// ParseModelID splits a provider-prefixed model id such as
// "gemini/gemini-2.0-flash". Ids without a known provider prefix are
// returned whole with an empty provider.
func ParseModelID(id string) (provider, model string) {
	if i := strings.Index(id, "/"); i > 0 {
		p := strings.ToLower(id[:i])
		if p == ProviderOllama || p == ProviderGemini {
			return p, id[i+1:]
		}
	}
	return "", id
}

// New builds the assistant named by cfg. A provider prefix on the model id
// wins over cfg.Provider; with neither, Ollama is used.
func New(ctx context.Context, cfg ProviderConfig) (Assistant, error) {
	provider, model := ParseModelID(cfg.Model)
	if provider == "" {
		provider = strings.ToLower(cfg.Provider)
	}
	if provider == "" {
		provider = ProviderOllama
	}

	switch provider {
	case ProviderOllama:
		return NewService(Config{BaseURL: cfg.BaseURL, Model: model, Temperature: cfg.Temperature}), nil
	case ProviderGemini:
		return NewGeminiService(ctx, cfg.APIKey, model, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
