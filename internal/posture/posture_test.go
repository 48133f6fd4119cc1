package posture

import (
	"context"
	"testing"

	"github.com/attacksurface/sentinel/internal/llm"
	"github.com/attacksurface/sentinel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asset(subdomain, ip string, score int, ports []int) models.Asset {
	return models.Asset{
		Subdomain: subdomain,
		IP:        ip,
		OpenPorts: ports,
		RiskScore: score,
		Severity:  models.ClassifySeverity(score),
	}
}

func TestPreprocess_EmptyAssetsReturnsMinimalData(t *testing.T) {
	data := Preprocess("example.com", nil)
	assert.Equal(t, 0, data.TotalAssets)
	assert.Equal(t, "minimal", data.DataCompleteness)
}

func TestCalculateDeterministicScore_NoAssetsReturns85(t *testing.T) {
	data := Preprocess("example.com", nil)
	assert.Equal(t, 85, CalculateDeterministicScore(data))
}

func TestCalculateDeterministicScore_AllLowSeverityScoresHigh(t *testing.T) {
	assets := []models.Asset{
		asset("a.example.com", "1.1.1.1", 5, []int{80}),
		asset("b.example.com", "2.2.2.2", 8, []int{443}),
	}
	data := Preprocess("example.com", assets)

	score := CalculateDeterministicScore(data)

	assert.GreaterOrEqual(t, score, 90)
}

func TestCalculateDeterministicScore_CriticalAssetsLowerScore(t *testing.T) {
	assets := []models.Asset{
		asset("a.example.com", "1.1.1.1", 95, []int{3306}),
		asset("b.example.com", "2.2.2.2", 90, []int{27017}),
	}
	data := Preprocess("example.com", assets)

	score := CalculateDeterministicScore(data)

	assert.Less(t, score, 50)
}

func TestDetermineMaturity_CriticalAssetCapsAtDeveloping(t *testing.T) {
	assets := []models.Asset{asset("a.example.com", "1.1.1.1", 95, []int{3306})}
	data := Preprocess("example.com", assets)

	maturity := DetermineMaturity(80, data)

	assert.Equal(t, models.MaturityDeveloping, maturity)
}

func TestDetermineMaturity_NoCriticalHighScoreIsAdvanced(t *testing.T) {
	assets := []models.Asset{asset("a.example.com", "1.1.1.1", 5, []int{80})}
	data := Preprocess("example.com", assets)

	assert.Equal(t, models.MaturityAdvanced, DetermineMaturity(85, data))
}

func TestEnforceScoringRules_NoSignificantRiskFloorsScoreAndMaturity(t *testing.T) {
	assets := []models.Asset{
		asset("a.example.com", "1.1.1.1", 5, []int{80}),
		asset("b.example.com", "2.2.2.2", 8, []int{443}),
	}
	data := Preprocess("example.com", assets)

	low := 50.0
	maturity := "Basic"
	report := rawReport{PostureScore: &low, MaturityLevel: &maturity}
	result := enforceScoringRules(&report, data)

	assert.GreaterOrEqual(t, result.PostureScore, 75)
	assert.Equal(t, models.MaturityAdvanced, result.MaturityLevel)
}

func TestEnforceScoringRules_CriticalAssetCeilsScoreAt45(t *testing.T) {
	assets := []models.Asset{asset("a.example.com", "1.1.1.1", 95, []int{3306})}
	data := Preprocess("example.com", assets)

	high := 95.0
	maturity := "Advanced"
	report := rawReport{PostureScore: &high, MaturityLevel: &maturity}
	result := enforceScoringRules(&report, data)

	assert.LessOrEqual(t, result.PostureScore, 45)
	assert.NotEqual(t, models.MaturityAdvanced, result.MaturityLevel)
}

func TestEnforceScoringRules_ClampsWithinTenOfAnchor(t *testing.T) {
	assets := []models.Asset{
		asset("a.example.com", "1.1.1.1", 40, []int{80}),
		asset("b.example.com", "2.2.2.2", 45, []int{443}),
	}
	data := Preprocess("example.com", assets)
	anchor := CalculateDeterministicScore(data)

	wild := 0.0
	maturity := "Basic"
	report := rawReport{PostureScore: &wild, MaturityLevel: &maturity}
	result := enforceScoringRules(&report, data)

	assert.GreaterOrEqual(t, result.PostureScore, anchor-10)
}

func TestBuildFallback_AdminExposureDrivesTheme(t *testing.T) {
	assets := []models.Asset{
		asset("admin.example.com", "1.1.1.1", 60, []int{80, 3306}),
	}
	data := Preprocess("example.com", assets)

	report := BuildFallback("example.com", data)

	assert.Equal(t, "Administrative surface compounded by exposed services", report.DominantRiskTheme)
	assert.Contains(t, report.PriorityImprovements, "Restrict administrative interfaces from public access")
}

func TestBuildFallback_NoFindingsSuggestsMaintain(t *testing.T) {
	assets := []models.Asset{asset("a.example.com", "1.1.1.1", 5, []int{80})}
	data := Preprocess("example.com", assets)

	report := BuildFallback("example.com", data)

	assert.Equal(t, []string{"Maintain current posture with periodic reassessment"}, report.PriorityImprovements)
}

type postureStubProvider struct {
	response string
	err      error
}

func (p postureStubProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	return p.response, p.err
}

func TestGenerate_EmptyAssetsReturnsFallback(t *testing.T) {
	result := Generate(context.Background(), postureStubProvider{}, "example.com", nil)
	assert.Equal(t, 85, result.PostureScore)
}

func TestGenerate_ValidNarrativeIsEnforced(t *testing.T) {
	assets := []models.Asset{
		asset("a.example.com", "1.1.1.1", 5, []int{80}),
		asset("b.example.com", "2.2.2.2", 8, []int{443}),
	}
	provider := postureStubProvider{response: `{
		"posture_score": 80,
		"maturity_level": "Advanced",
		"dominant_risk_theme": "Standard web footprint",
		"likely_attacker_profile": "Automated Scanners",
		"strategic_risk_outlook": "Low risk outlook.",
		"priority_improvements": ["Maintain current posture"],
		"assessment_basis": ["2 assets analyzed"],
		"confidence_score": 0.6
	}`}

	result := Generate(context.Background(), provider, "example.com", assets)

	require.NotEmpty(t, result.DominantRiskTheme)
	assert.Equal(t, models.MaturityAdvanced, result.MaturityLevel)
}

func TestGenerate_MalformedJSONFallsBack(t *testing.T) {
	assets := []models.Asset{asset("a.example.com", "1.1.1.1", 90, []int{3306})}
	provider := postureStubProvider{response: "not json"}

	result := Generate(context.Background(), provider, "example.com", assets)

	assert.Equal(t, BuildFallback("example.com", Preprocess("example.com", assets)), result)
}

func TestGenerate_ProviderErrorFallsBack(t *testing.T) {
	assets := []models.Asset{asset("a.example.com", "1.1.1.1", 90, []int{3306})}
	provider := postureStubProvider{err: &llm.UnavailableError{Reason: "no key"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Generate(ctx, provider, "example.com", assets)

	assert.Equal(t, BuildFallback("example.com", Preprocess("example.com", assets)), result)
}
