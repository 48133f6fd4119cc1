package posture

import (
	"math"

	"github.com/attacksurface/sentinel/internal/models"
)

// CalculateDeterministicScore derives the 0-100 posture score anchor:
// base 100 minus a weighted-severity penalty, minus an infrastructure
// concentration penalty, minus a service-density penalty. Mirrors
// posture_service.py's _calculate_deterministic_posture_score.
func CalculateDeterministicScore(data Data) int {
	if data.TotalAssets == 0 {
		return 85
	}

	var weightedSum float64
	for sev, weight := range severityWeights {
		weightedSum += float64(data.SeverityBreakdown[sev]) * weight
	}
	severityPenalty := (weightedSum / float64(data.TotalAssets)) * 60

	c := data.InfrastructureConcentration
	concentrationPenalty := math.Min(float64(c.SharedIPCount)*2+float64(c.MaxAssetsPerIP-1)*1.5, 15)
	if concentrationPenalty < 0 {
		concentrationPenalty = 0
	}

	avgPorts := data.ServiceDensity.AveragePortsPerAsset
	var densityPenalty float64
	if avgPorts > 1.5 {
		densityPenalty = math.Min(avgPorts*1.5, 10)
	}

	score := 100 - severityPenalty - concentrationPenalty - densityPenalty
	return clampScore(int(math.Round(score)))
}

// DetermineMaturity applies the hard ceiling (any critical asset caps
// maturity at Developing) before falling through the score bands, mirroring
// posture_service.py's _determine_maturity.
func DetermineMaturity(postureScore int, data Data) models.MaturityLevel {
	critical := data.RiskDistribution.CriticalRiskCount

	if critical > 0 {
		if postureScore >= 30 {
			return models.MaturityDeveloping
		}
		return models.MaturityBasic
	}

	switch {
	case postureScore >= 75:
		return models.MaturityAdvanced
	case postureScore >= 55:
		return models.MaturityIntermediate
	case postureScore >= 30:
		return models.MaturityDeveloping
	default:
		return models.MaturityBasic
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
