package posture

import (
	"fmt"

	"github.com/attacksurface/sentinel/internal/models"
)

// BuildFallback produces a fully deterministic posture report for when the
// narrative model is unavailable, unconfigured, or fails validation,
// mirroring posture_service.py's _build_deterministic_fallback.
func BuildFallback(domain string, data Data) models.PostureReport {
	dist := data.RiskDistribution
	score := CalculateDeterministicScore(data)
	maturity := DetermineMaturity(score, data)

	var attacker models.AttackerProfile
	switch {
	case dist.CriticalRiskCount > 0:
		attacker = models.AttackerTargeted
	case dist.HighRiskCount >= 2:
		attacker = models.AttackerOpportunistic
	default:
		attacker = models.AttackerAutomatedScanners
	}

	envCount := len(data.EnvironmentExposure)
	adminCount := len(data.AdminSurfaceExposure)
	elevated := dist.HighRiskCount + dist.CriticalRiskCount

	var theme string
	switch {
	case adminCount > 0 && elevated > 0:
		theme = "Administrative surface compounded by exposed services"
	case adminCount > 0:
		theme = "Administrative interface exposure"
	case envCount > 0:
		theme = "Non-production environment exposure"
	case elevated > 0:
		theme = "Elevated service exposure"
	default:
		theme = "Standard web service footprint"
	}

	var improvements []string
	if adminCount > 0 {
		improvements = append(improvements, "Restrict administrative interfaces from public access")
	}
	if envCount > 0 {
		improvements = append(improvements, "Isolate non-production environments behind VPN or allowlists")
	}
	if elevated > 0 {
		improvements = append(improvements, "Remediate high-severity assets through port restriction and access controls")
	}
	if len(improvements) == 0 {
		improvements = append(improvements, "Maintain current posture with periodic reassessment")
	}
	if len(improvements) > 3 {
		improvements = improvements[:3]
	}

	outlookBand := "low"
	switch {
	case score < 50:
		outlookBand = "elevated"
	case score < 75:
		outlookBand = "moderate"
	}

	confidence := 0.4
	switch {
	case data.TotalAssets >= 5 && data.DataCompleteness == "comprehensive":
		confidence = 0.75
	case data.TotalAssets >= 3:
		confidence = 0.55
	}

	return models.PostureReport{
		PostureScore:          score,
		MaturityLevel:         maturity,
		DominantRiskTheme:     theme,
		LikelyAttackerProfile: attacker,
		StrategicRiskOutlook: fmt.Sprintf(
			"%s presents %s organizational risk across %d discovered assets.",
			domain, outlookBand, data.TotalAssets,
		),
		PriorityImprovements: improvements,
		AssessmentBasis: []string{
			fmt.Sprintf("%d assets analyzed, avg risk %.1f", data.TotalAssets, dist.AverageRiskScore),
			fmt.Sprintf("Severity: %v", data.SeverityBreakdown),
			fmt.Sprintf("Data completeness: %s", data.DataCompleteness),
		},
		ConfidenceScore: roundTo2(confidence),
	}
}
