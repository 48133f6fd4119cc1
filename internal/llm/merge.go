package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/attacksurface/sentinel/internal/models"
)

const attackSimulationTimeout = SummaryTimeout

const attackSimulationSystemPrompt = "You are a red team penetration testing expert reviewing a deterministic attack graph. " +
	"You may enrich the narrative only. Respond ONLY with valid JSON containing at most these keys: " +
	`{"impact_summary": "...", "overall_risk": "Low|Medium|High|Critical", ` +
	`"mitigation_notes": ["..."], "attack_path": [{"step": 1, "impact_detail": "..."}]}. ` +
	"Do not invent new steps, renumber steps, or change any field other than impact_detail on existing steps. " +
	"Do NOT hallucinate or fabricate CVE numbers."

// stepOverlay is the only shape the LLM is allowed to contribute per step:
// a step number to anchor to, and a narrative detail.
type stepOverlay struct {
	Step         int    `json:"step"`
	ImpactDetail string `json:"impact_detail"`
}

// graphOverlay is the full set of fields an enhancement response may
// contain. Anything else present in the raw JSON is ignored by virtue of
// not being unmarshaled into this struct.
type graphOverlay struct {
	ImpactSummary   string        `json:"impact_summary"`
	OverallRisk     string        `json:"overall_risk"`
	MitigationNotes []string      `json:"mitigation_notes"`
	AttackPath      []stepOverlay `json:"attack_path"`
}

// EnhanceAttackGraph asks the simulation provider to add narrative color to
// an already-built deterministic graph, then merges only the permitted
// fields back in. Any provider error, JSON failure, or post-merge schema
// violation returns the original graph unchanged.
func EnhanceAttackGraph(ctx context.Context, provider Provider, graph models.AttackGraph) (models.AttackGraph, error) {
	ctx, cancel := context.WithTimeout(ctx, attackSimulationTimeout)
	defer cancel()

	graphJSON, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return graph, nil
	}

	userPrompt := fmt.Sprintf(
		"Deterministic attack graph:\n%s\n\nAdd an executive impact summary, overall risk label, mitigation notes, "+
			"and optional per-step impact detail. Respond with JSON only.",
		string(graphJSON),
	)

	raw, err := provider.Generate(ctx, attackSimulationSystemPrompt, userPrompt, 0.3)
	if err != nil {
		return graph, nil
	}

	var overlay graphOverlay
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &overlay); err != nil {
		return graph, nil
	}

	merged := mergeGraph(graph, overlay)
	if !validAttackGraph(merged) {
		return graph, nil
	}
	return merged, nil
}

// mergeGraph deep-copies the base graph and applies only impact_summary,
// overall_risk, mitigation_notes, and per-step impact_detail. step, stage,
// subdomain, ip, technique, mitre_id, confidence_score, evidence, the
// entry point, and the number of steps are always taken from the base
// graph, never the overlay.
func mergeGraph(base models.AttackGraph, overlay graphOverlay) models.AttackGraph {
	merged := base
	merged.AttackPath = make([]models.AttackStep, len(base.AttackPath))
	copy(merged.AttackPath, base.AttackPath)

	if strings.TrimSpace(overlay.ImpactSummary) != "" {
		merged.ImpactSummary = overlay.ImpactSummary
	}
	if risk := models.OverallRisk(overlay.OverallRisk); isValidOverallRisk(risk) {
		merged.OverallRisk = risk
	}
	if len(overlay.MitigationNotes) > 0 {
		notes := make([]string, len(overlay.MitigationNotes))
		copy(notes, overlay.MitigationNotes)
		merged.MitigationNotes = notes
	}

	detailByStep := make(map[int]string, len(overlay.AttackPath))
	for _, o := range overlay.AttackPath {
		if strings.TrimSpace(o.ImpactDetail) != "" {
			detailByStep[o.Step] = o.ImpactDetail
		}
	}
	for i := range merged.AttackPath {
		if detail, ok := detailByStep[merged.AttackPath[i].Step]; ok {
			d := detail
			merged.AttackPath[i].ImpactDetail = &d
		}
	}

	return merged
}

func isValidOverallRisk(r models.OverallRisk) bool {
	switch r {
	case models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical:
		return true
	default:
		return false
	}
}

// validAttackGraph enforces the attack-simulation schema invariants:
// impact_summary non-empty, overall_risk in the enum, and every step
// carrying a well-formed confidence score and non-nil evidence.
func validAttackGraph(g models.AttackGraph) bool {
	if strings.TrimSpace(g.ImpactSummary) == "" {
		return false
	}
	if !isValidOverallRisk(g.OverallRisk) {
		return false
	}
	for _, step := range g.AttackPath {
		if step.ConfidenceScore < 0 || step.ConfidenceScore > 1 {
			return false
		}
		if step.Evidence == nil {
			return false
		}
	}
	return true
}
