package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rpgpt/internal/models"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "qwen3-vl:2b"
)

type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
}

// Service talks to an Ollama server
type Service struct {
	config Config
	client *http.Client
}

func NewService(cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	return &Service{
		config: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (s *Service) Provider() string { return ProviderOllama }

func (s *Service) Model() string { return s.config.Model }

// BaseURL returns the Ollama endpoint in use
func (s *Service) BaseURL() string { return s.config.BaseURL }

type requestOptions struct {
	Temperature float64 `json:"temperature"`
}

type GenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options requestOptions `json:"options"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  requestOptions `json:"options"`
}

type ChatResponse struct {
	Message chatMessage `json:"message"`
}

// CallOllama calls the Ollama generate API
func (s *Service) CallOllama(ctx context.Context, system, prompt string) (string, error) {
	reqBody := GenerateRequest{
		Model:   s.config.Model,
		Prompt:  prompt,
		System:  system,
		Stream:  false,
		Options: requestOptions{Temperature: s.config.Temperature},
	}

	var genResp GenerateResponse
	if err := s.post(ctx, "/api/generate", reqBody, &genResp); err != nil {
		return "", err
	}
	return genResp.Response, nil
}

// ChatOllama calls the Ollama chat API with the given history
func (s *Service) ChatOllama(ctx context.Context, history []models.ChatMessage) (string, error) {
	reqBody := ChatRequest{
		Model:    s.config.Model,
		Messages: make([]chatMessage, 0, len(history)+1),
		Stream:   false,
		Options:  requestOptions{Temperature: s.config.Temperature},
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: chatInstruction})
	for _, m := range history {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	var chatResp ChatResponse
	if err := s.post(ctx, "/api/chat", reqBody, &chatResp); err != nil {
		return "", err
	}
	return chatResp.Message.Content, nil
}

// Suggest drafts an answer for one question
func (s *Service) Suggest(ctx context.Context, p models.QuestionPrompt) (string, error) {
	response, err := s.CallOllama(ctx, answerInstruction, BuildAnswerPrompt(p))
	if err != nil {
		return "", err
	}
	return CleanResponse(response), nil
}

// Chat answers the last user message of history
func (s *Service) Chat(ctx context.Context, history []models.ChatMessage) (string, error) {
	response, err := s.ChatOllama(ctx, history)
	if err != nil {
		return "", err
	}
	return CleanResponse(response), nil
}

func (s *Service) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama API returned status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
