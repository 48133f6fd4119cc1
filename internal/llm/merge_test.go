package llm

import (
	"context"
	"testing"

	"github.com/attacksurface/sentinel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseGraph() models.AttackGraph {
	entry := "app.example.com"
	return models.AttackGraph{
		EntryPoint: &entry,
		AttackPath: []models.AttackStep{
			{
				Step:            1,
				Stage:           models.StageInitialAccess,
				Subdomain:       "app.example.com",
				Technique:       "Public web service exposed",
				MitreID:         "T1190",
				Evidence:        []string{"ports: [80, 443]"},
				ConfidenceScore: 0.8,
			},
		},
		ImpactSummary: "Initial deterministic summary",
		OverallRisk:   models.RiskMedium,
	}
}

func TestEnhanceAttackGraph_MergesPermittedFieldsOnly(t *testing.T) {
	base := baseGraph()
	overlay := `{"impact_summary":"Refined summary","overall_risk":"High",` +
		`"mitigation_notes":["Patch the web server"],` +
		`"attack_path":[{"step":1,"impact_detail":"Attacker pivots from here"}]}`
	provider := stubProvider{response: overlay}

	merged, err := EnhanceAttackGraph(context.Background(), provider, base)

	require.NoError(t, err)
	assert.Equal(t, "Refined summary", merged.ImpactSummary)
	assert.Equal(t, models.RiskHigh, merged.OverallRisk)
	assert.Equal(t, []string{"Patch the web server"}, merged.MitigationNotes)
	require.Len(t, merged.AttackPath, 1)
	require.NotNil(t, merged.AttackPath[0].ImpactDetail)
	assert.Equal(t, "Attacker pivots from here", *merged.AttackPath[0].ImpactDetail)
	assert.Equal(t, "T1190", merged.AttackPath[0].MitreID)
}

func TestEnhanceAttackGraph_RejectsTamperedStructuralFields(t *testing.T) {
	base := baseGraph()
	overlay := `{"impact_summary":"hijacked",` +
		`"attack_path":[` +
		`{"step":1,"mitre_id":"T1499","impact_detail":"fine"},` +
		`{"step":99,"impact_detail":"injected step"}` +
		`]}`
	provider := stubProvider{response: overlay}

	merged, err := EnhanceAttackGraph(context.Background(), provider, base)

	require.NoError(t, err)
	require.Len(t, merged.AttackPath, 1)
	assert.Equal(t, "T1190", merged.AttackPath[0].MitreID)
	assert.Equal(t, 1, merged.AttackPath[0].Step)
}

func TestEnhanceAttackGraph_FallsBackOnProviderError(t *testing.T) {
	base := baseGraph()
	provider := NoopProvider{Reason: "no key"}

	result, err := EnhanceAttackGraph(context.Background(), provider, base)

	require.NoError(t, err)
	assert.Equal(t, base, result)
}

func TestEnhanceAttackGraph_FallsBackOnMalformedJSON(t *testing.T) {
	base := baseGraph()
	provider := stubProvider{response: "not json at all"}

	result, err := EnhanceAttackGraph(context.Background(), provider, base)

	require.NoError(t, err)
	assert.Equal(t, base, result)
}

func TestEnhanceAttackGraph_FallsBackOnInvalidOverallRisk(t *testing.T) {
	base := baseGraph()
	overlay := `{"impact_summary":"ok","overall_risk":"Severe"}`
	provider := stubProvider{response: overlay}

	merged, err := EnhanceAttackGraph(context.Background(), provider, base)

	require.NoError(t, err)
	assert.Equal(t, models.RiskMedium, merged.OverallRisk)
	assert.Equal(t, "ok", merged.ImpactSummary)
}

func TestEnhanceAttackGraph_EmptyImpactSummaryFailsValidationAndFallsBack(t *testing.T) {
	base := baseGraph()
	overlay := `{"impact_summary":"","overall_risk":"Critical"}`
	provider := stubProvider{response: overlay}

	result, err := EnhanceAttackGraph(context.Background(), provider, base)

	require.NoError(t, err)
	assert.Equal(t, base, result)
}
