package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"rpgpt/internal/models"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiService drafts answers and chats through the Gemini API
type GeminiService struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiService creates a Gemini-backed assistant
func NewGeminiService(ctx context.Context, apiKey, model string, temperature float64) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{
		client:      client,
		model:       model,
		temperature: float32(temperature),
	}, nil
}

func (g *GeminiService) Provider() string { return ProviderGemini }

func (g *GeminiService) Model() string { return g.model }

// Suggest drafts an answer for one question
func (g *GeminiService) Suggest(ctx context.Context, p models.QuestionPrompt) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(BuildAnswerPrompt(p), genai.RoleUser),
	}
	return g.generate(ctx, answerInstruction, contents)
}

// Chat answers the last user message of history
func (g *GeminiService) Chat(ctx context.Context, history []models.ChatMessage) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return g.generate(ctx, chatInstruction, contents)
}

func (g *GeminiService) generate(ctx context.Context, system string, contents []*genai.Content) (string, error) {
	temperature := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return CleanResponse(resp.Text()), nil
}
