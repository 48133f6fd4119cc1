package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// GroqBaseURL and GroqModel match ai_service.py's GROQ_API_URL/GROQ_MODEL;
// Groq's chat-completions endpoint is OpenAI wire-compatible, so the
// genkit stack's existing openai-go dependency is reused directly instead
// of introducing a Groq-specific client.
const (
	GroqBaseURL = "https://api.groq.com/openai/v1"
	GroqModel   = "llama-3.3-70b-versatile"
	GroqMaxTokens = 2048
)

// GroqProvider calls Groq's OpenAI-compatible chat-completions API.
type GroqProvider struct {
	client openai.Client
	model  string
}

func NewGroqProvider(apiKey string) (*GroqProvider, error) {
	if apiKey == "" {
		return nil, &UnavailableError{Reason: "GROQ_API_KEY not set"}
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(GroqBaseURL),
	)

	return &GroqProvider{client: client, model: GroqModel}, nil
}

func (p *GroqProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(GroqMaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("groq generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq generate: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
