package llm

import (
	"context"
	"log"

	"github.com/attacksurface/sentinel/internal/models"
)

// Gateway fronts the two external models behind the single Provider
// interface: Groq answers summary and simulation requests, Gemini answers
// posture requests. Either may be a NoopProvider when its API key is
// absent, in which case callers fall back to their deterministic paths.
type Gateway struct {
	Summary Provider
	Posture Provider
}

func NewGateway(summary, posture Provider) *Gateway {
	if summary == nil {
		summary = NoopProvider{Reason: "summary provider not configured"}
	}
	if posture == nil {
		posture = NoopProvider{Reason: "posture provider not configured"}
	}
	return &Gateway{Summary: summary, Posture: posture}
}

// Summarize produces the executive summary artifact for a scan, logging
// and degrading to a placeholder summary with empty risk and
// recommendation lists on provider failure rather than failing the whole
// request.
func (g *Gateway) Summarize(ctx context.Context, domain string, assets []models.Asset) Summary {
	summary, err := GenerateSummary(ctx, g.Summary, domain, assets)
	if err != nil {
		log.Printf("llm: summary generation failed for %s: %v", domain, err)
		return Summary{Summary: "Executive summary unavailable.", TopRisks: []string{}, Recommendations: []string{}}
	}
	return summary
}

// Simulate returns the attack graph enhanced with narrative detail, or the
// deterministic graph unchanged if the provider is unavailable or its
// response cannot be safely merged.
func (g *Gateway) Simulate(ctx context.Context, graph models.AttackGraph) models.AttackGraph {
	enhanced, err := EnhanceAttackGraph(ctx, g.Summary, graph)
	if err != nil {
		log.Printf("llm: attack simulation enhancement failed: %v", err)
		return graph
	}
	return enhanced
}
