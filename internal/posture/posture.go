package posture

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/attacksurface/sentinel/internal/llm"
	"github.com/attacksurface/sentinel/internal/models"
)

const (
	maxRetries  = 2
	backoffBase = 1500 * time.Millisecond
)

const systemPrompt = "You are a strategic cybersecurity intelligence analyst. " +
	"Evaluate ORGANIZATIONAL PATTERNS, not individual exploits. " +
	"Output ONLY valid JSON, no markdown, no code fences. Total output must be under 250 words. " +
	"Do NOT reference external benchmarks or industry statistics. Do NOT fabricate vulnerabilities or CVEs. " +
	"Do NOT contradict the deterministic scores. Be concise, analytical, board-ready. Avoid clichés."

// Generate produces organizational posture intelligence for a scan,
// following posture_service.py's generate_posture_intelligence pipeline:
// preprocess, compute the deterministic anchor, ask the narrative model to
// enhance it within a fixed band, validate and enforce, and fall back to a
// fully deterministic report on any failure.
func Generate(ctx context.Context, provider llm.Provider, domain string, assets []models.Asset) models.PostureReport {
	data := Preprocess(domain, assets)
	detScore := CalculateDeterministicScore(data)

	if data.TotalAssets == 0 {
		return BuildFallback(domain, data)
	}

	raw, err := callWithRetry(ctx, provider, buildUserPrompt(domain, data, detScore))
	if err != nil {
		log.Printf("posture: narrative generation failed for %s: %v", domain, err)
		return BuildFallback(domain, data)
	}

	cleaned := llm.StripCodeFence(raw)
	var parsed rawReport
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		log.Printf("posture: narrative output for %s failed to parse: %v", domain, err)
		return BuildFallback(domain, data)
	}

	if !validateSchema(&parsed) {
		log.Printf("posture: narrative output for %s failed schema validation", domain)
		return BuildFallback(domain, data)
	}

	result := enforceScoringRules(&parsed, data)
	log.Printf("posture: generated for %s score=%d maturity=%s (anchor=%d)", domain, result.PostureScore, result.MaturityLevel, detScore)
	return result
}

// callWithRetry calls the provider up to maxRetries+1 times with exponential
// backoff starting at backoffBase, mirroring posture_service.py's
// _call_gemini retry loop.
func callWithRetry(ctx context.Context, provider llm.Provider, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		text, err := provider.Generate(ctx, systemPrompt, userPrompt, 0.4)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt < maxRetries {
			wait := backoffBase * time.Duration(1<<uint(attempt))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("posture narrative failed after %d attempts: %w", maxRetries+1, lastErr)
}

func buildUserPrompt(domain string, data Data, detScore int) string {
	dataJSON, _ := json.MarshalIndent(data, "", "  ")
	return fmt.Sprintf(`TASK: Organizational security posture assessment for %s.

The deterministic posture score anchor is %d/100.
Your posture_score must be within +/-10 of this anchor.

OUTPUT FORMAT (pure JSON):
{
  "posture_score": <int 0-100, within +/-10 of %d>,
  "maturity_level": "<Basic|Developing|Intermediate|Advanced>",
  "dominant_risk_theme": "<primary systemic weakness>",
  "likely_attacker_profile": "<Opportunistic|Targeted|Advanced Persistent|Automated Scanners>",
  "strategic_risk_outlook": "<1-2 sentence forward-looking assessment>",
  "priority_improvements": ["Action 1", "Action 2", "Action 3"],
  "assessment_basis": ["Factor 1", "Factor 2", "Factor 3"],
  "confidence_score": <float 0.0-1.0>
}

DATA:
%s`, domain, detScore, detScore, string(dataJSON))
}
