package service

import (
	"context"
	"sync"

	"rpgpt/internal/llm"
	"rpgpt/internal/models"
)

// AssistantFactory builds an assistant from provider settings
type AssistantFactory func(ctx context.Context, cfg llm.ProviderConfig) (llm.Assistant, error)

// AssistantService holds the currently configured LLM assistant. The
// provider can be swapped at runtime; calls in flight keep the old one.
type AssistantService struct {
	mu      sync.RWMutex
	cfg     llm.ProviderConfig
	current llm.Assistant
	factory AssistantFactory
}

// NewAssistantService builds the initial assistant. A failing provider
// leaves the service without an assistant; calls then report
// SuggesterUnavailable and the error is returned for logging.
func NewAssistantService(ctx context.Context, cfg llm.ProviderConfig, factory AssistantFactory) (*AssistantService, error) {
	if factory == nil {
		factory = llm.New
	}
	s := &AssistantService{factory: factory}
	err := s.Configure(ctx, cfg)
	return s, err
}

// NewStaticAssistantService wraps a ready assistant.
func NewStaticAssistantService(a llm.Assistant) *AssistantService {
	s := &AssistantService{current: a, factory: llm.New}
	if a != nil {
		s.cfg = llm.ProviderConfig{Provider: a.Provider(), Model: a.Model()}
	}
	return s
}

// Configure replaces the assistant. Empty fields keep their previous value.
func (s *AssistantService) Configure(ctx context.Context, cfg llm.ProviderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.cfg
	if cfg.Provider != "" {
		merged.Provider = cfg.Provider
	}
	if cfg.Model != "" {
		merged.Model = cfg.Model
	}
	if cfg.BaseURL != "" {
		merged.BaseURL = cfg.BaseURL
	}
	if cfg.APIKey != "" {
		merged.APIKey = cfg.APIKey
	}
	if cfg.Temperature != 0 {
		merged.Temperature = cfg.Temperature
	}

	a, err := s.factory(ctx, merged)
	if err != nil {
		return NewError(SuggesterUnavailable, "failed to configure llm provider", err)
	}
	s.cfg = merged
	s.current = a
	return nil
}

// Info describes the active provider without secrets
func (s *AssistantService) Info() models.LLMConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := models.LLMConfig{
		Provider:    s.cfg.Provider,
		Model:       s.cfg.Model,
		BaseURL:     s.cfg.BaseURL,
		Temperature: s.cfg.Temperature,
		HasAPIKey:   s.cfg.APIKey != "",
		Available:   s.current != nil,
	}
	if s.current != nil {
		info.Provider = s.current.Provider()
		info.Model = s.current.Model()
	}
	return info
}

func (s *AssistantService) assistant() (llm.Assistant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, NewError(SuggesterUnavailable, "no llm provider is configured", nil)
	}
	return s.current, nil
}

// Suggest drafts an answer
func (s *AssistantService) Suggest(ctx context.Context, p models.QuestionPrompt) (string, error) {
	a, err := s.assistant()
	if err != nil {
		return "", err
	}
	answer, err := a.Suggest(ctx, p)
	if err != nil {
		return "", NewError(SuggesterUnavailable, "answer suggestion failed", err)
	}
	return answer, nil
}

// Chat continues a conversation
func (s *AssistantService) Chat(ctx context.Context, history []models.ChatMessage) (string, error) {
	a, err := s.assistant()
	if err != nil {
		return "", err
	}
	reply, err := a.Chat(ctx, history)
	if err != nil {
		return "", NewError(SuggesterUnavailable, "chat request failed", err)
	}
	return reply, nil
}
