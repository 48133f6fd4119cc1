package attackgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attacksurface/sentinel/internal/models"
	"github.com/attacksurface/sentinel/internal/risk"
)

func buildAsset(subdomain, ip string, ports []int, freq int) models.Asset {
	score, sev, factors := risk.Calculate(subdomain, ports, freq)
	return models.Asset{
		Subdomain:   subdomain,
		IP:          ip,
		OpenPorts:   ports,
		RiskScore:   score,
		Severity:    sev,
		RiskFactors: factors,
	}
}

func TestBuild_EmptyPathWhenNoCandidates(t *testing.T) {
	assets := []models.Asset{
		buildAsset("www.example.com", "1.1.1.1", []int{80, 443}, 1),
	}

	graph := Build("example.com", assets, DefaultRiskThreshold)

	assert.Nil(t, graph.EntryPoint)
	assert.Empty(t, graph.AttackPath)
	assert.Equal(t, models.RiskLow, graph.OverallRisk)
}

func TestBuild_StageOrderAndMonotonicSteps(t *testing.T) {
	assets := []models.Asset{
		buildAsset("admin-dev.example.com", "2.2.2.2", []int{22, 3306}, 1),
		buildAsset("api.example.com", "3.3.3.3", []int{80, 3306}, 1),
	}

	graph := Build("example.com", assets, DefaultRiskThreshold)

	require.NotEmpty(t, graph.AttackPath)
	require.NotNil(t, graph.EntryPoint)

	lastStep := 0
	lastStageIdx := -1
	order := map[models.Stage]int{
		models.StageInitialAccess:       0,
		models.StagePrivilegeEscalation: 1,
		models.StageLateralMovement:     2,
		models.StageDataExfiltration:    3,
	}
	for _, step := range graph.AttackPath {
		assert.Greater(t, step.Step, lastStep)
		lastStep = step.Step
		idx := order[step.Stage]
		assert.GreaterOrEqual(t, idx, lastStageIdx)
		lastStageIdx = idx
	}
}

func TestBuild_InitialAccessStepHasMitreID(t *testing.T) {
	assets := []models.Asset{
		buildAsset("admin-dev.example.com", "2.2.2.2", []int{22, 3306}, 1),
	}
	graph := Build("example.com", assets, DefaultRiskThreshold)
	require.NotEmpty(t, graph.AttackPath)

	original := graph.AttackPath[0]
	assert.Equal(t, "T1190", mitreTechniques["initial_access_web"].mitreID)
	assert.NotEmpty(t, original.MitreID)
}

func TestBuild_IdempotentOnSameInput(t *testing.T) {
	assets := []models.Asset{
		buildAsset("admin-dev.example.com", "2.2.2.2", []int{22, 3306}, 1),
		buildAsset("api.example.com", "3.3.3.3", []int{80, 3306}, 1),
	}

	a := Build("example.com", assets, DefaultRiskThreshold)
	b := Build("example.com", assets, DefaultRiskThreshold)

	assert.Equal(t, a, b)
}

func TestBuild_ConfidenceWithinBounds(t *testing.T) {
	assets := []models.Asset{
		buildAsset("admin-dev.example.com", "2.2.2.2", []int{22, 3306}, 1),
	}
	graph := Build("example.com", assets, DefaultRiskThreshold)
	for _, step := range graph.AttackPath {
		assert.GreaterOrEqual(t, step.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, step.ConfidenceScore, 0.95)
	}
}

func TestBuild_SharedInfraStage(t *testing.T) {
	var assets []models.Asset
	for i := 0; i < 3; i++ {
		assets = append(assets, buildAsset("host.example.com", "9.9.9.9", []int{22}, 3))
	}

	graph := Build("example.com", assets, DefaultRiskThreshold)

	found := false
	for _, step := range graph.AttackPath {
		if step.Stage == models.StageLateralMovement && step.Technique == mitreTechniques["lateral_shared_infra"].name {
			found = true
			assert.Contains(t, step.Evidence[len(step.Evidence)-1], "3 subdomains share IP")
		}
	}
	assert.True(t, found)
}
