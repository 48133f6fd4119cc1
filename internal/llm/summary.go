package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/attacksurface/sentinel/internal/models"
)

const SummaryTimeout = 45 * time.Second

const summarySystemPrompt = "You are a senior cybersecurity analyst. Analyze the attack surface scan results " +
	"and provide a structured security assessment. " +
	"Do NOT hallucinate or fabricate CVE numbers. Only reference real, well-known vulnerabilities if applicable. " +
	"Respond ONLY with valid JSON in the following format:\n" +
	`{"summary": "Executive overview text", ` +
	`"top_risks": ["risk1", "risk2", "risk3"], ` +
	`"recommendations": ["rec1", "rec2", "rec3"]}`

const simulationSystemPrompt = "You are a red team penetration testing expert. Based on the attack surface scan results, " +
	"simulate a realistic step-by-step attack chain that an adversary might follow. " +
	"Do NOT hallucinate or fabricate CVE numbers. " +
	"Be specific about which discovered assets and ports would be targeted. " +
	"Format the response as a clear, numbered step-by-step attack narrative."

// Summary is the schema enforced on the summary LLM's response:
// {summary: non-empty string, top_risks: []string, recommendations: []string}.
type Summary struct {
	Summary         string   `json:"summary"`
	TopRisks        []string `json:"top_risks"`
	Recommendations []string `json:"recommendations"`
}

func (s Summary) valid() bool {
	return strings.TrimSpace(s.Summary) != ""
}

// GenerateSummary asks the summary provider for an executive summary, top
// risks, and recommendations, mirroring ai_service.py's generate_summary.
// JSON parse failure falls back to the header-delimited parser instead of
// ai_service.py's raw-text passthrough.
func GenerateSummary(ctx context.Context, provider Provider, domain string, assets []models.Asset) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, SummaryTimeout)
	defer cancel()

	assetJSON, err := json.MarshalIndent(assets, "", "  ")
	if err != nil {
		return Summary{}, fmt.Errorf("marshal assets: %w", err)
	}

	userPrompt := fmt.Sprintf(
		"Domain: %s\nTotal assets discovered: %d\n\nAssets:\n%s\n\nProvide an executive summary, top 3 risks, and top 3 actionable recommendations.",
		domain, len(assets), string(assetJSON),
	)

	raw, err := provider.Generate(ctx, summarySystemPrompt, userPrompt, 0.3)
	if err != nil {
		return Summary{}, fmt.Errorf("generate summary: %w", err)
	}

	cleaned := StripCodeFence(raw)

	var result Summary
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil && result.valid() {
		if result.TopRisks == nil {
			result.TopRisks = []string{}
		}
		if result.Recommendations == nil {
			result.Recommendations = []string{}
		}
		return result, nil
	}

	fallback := ParseHeaderDelimited(cleaned)
	return Summary{
		Summary:         fallback.Summary,
		TopRisks:        fallback.TopRisks,
		Recommendations: fallback.Recommendations,
	}, nil
}

// GenerateSimulationNarrative produces the free-text attack narrative used
// to enhance a deterministic attack graph, mirroring
// ai_service.py's generate_attack_simulation.
func GenerateSimulationNarrative(ctx context.Context, provider Provider, domain string, assets []models.Asset) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, SummaryTimeout)
	defer cancel()

	assetJSON, err := json.MarshalIndent(assets, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal assets: %w", err)
	}

	userPrompt := fmt.Sprintf(
		"Domain: %s\nTotal assets discovered: %d\n\nAssets:\n%s\n\nCreate a realistic attack simulation showing how an attacker would exploit these findings.",
		domain, len(assets), string(assetJSON),
	)

	raw, err := provider.Generate(ctx, simulationSystemPrompt, userPrompt, 0.3)
	if err != nil {
		return "", fmt.Errorf("generate simulation narrative: %w", err)
	}
	return StripCodeFence(raw), nil
}
