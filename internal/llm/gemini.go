package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// GeminiModel is the model used for posture narrative enhancement, per the
// external interface contract.
const GeminiModel = "googleai/gemini-2.5-flash"

// GeminiProvider wraps a genkit app configured with the Google AI plugin.
type GeminiProvider struct {
	g     *genkit.Genkit
	model string
}

// NewGeminiProvider initializes genkit with the Google AI plugin, the same
// way the teacher's cmd/main.go wires its analysis app.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, &UnavailableError{Reason: "GEMINI_API_KEY not set"}
	}

	g := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: apiKey}),
		genkit.WithDefaultModel(GeminiModel),
	)

	return &GeminiProvider{g: g, model: GeminiModel}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	resp, err := genkit.Generate(ctx, p.g,
		ai.WithModelName(p.model),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(userPrompt),
		ai.WithConfig(&ai.GenerationCommonConfig{Temperature: temperature}),
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
