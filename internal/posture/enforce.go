package posture

import (
	"math"

	"github.com/attacksurface/sentinel/internal/models"
)

// enforceScoringRules overrides the narrative model's output wherever it
// violates the deterministic constraints, mirroring
// posture_service.py's _enforce_scoring_rules:
//
//  1. critical > 0 -> posture_score <= 45, maturity capped below Advanced
//  2. (high+critical)/total > 0.4 -> posture_score <= 55
//  3. every asset scores below 30 -> posture_score >= 75, maturity Advanced
//  4. posture_score must land within +/-10 of the deterministic anchor
//
// Rule 3 here is `low_risk_count == total_assets`: every asset fell in the
// low-risk bucket, which is exactly "no asset has risk_score >= 30" since
// the risk distribution buckets partition the asset set.
func enforceScoringRules(r *rawReport, data Data) models.PostureReport {
	detScore := CalculateDeterministicScore(data)

	score := detScore
	if r.PostureScore != nil {
		score = int(math.Round(*r.PostureScore))
	}
	score = clampToAnchor(score, detScore)

	maturity := models.MaturityLevel("")
	if r.MaturityLevel != nil {
		maturity = models.MaturityLevel(*r.MaturityLevel)
	}

	dist := data.RiskDistribution
	critical := dist.CriticalRiskCount
	high := dist.HighRiskCount
	lowRisk := dist.LowRiskCount
	total := data.TotalAssets

	if critical > 0 {
		score = min(score, 45)
		if maturity == models.MaturityIntermediate || maturity == models.MaturityAdvanced {
			maturity = models.MaturityDeveloping
		}
	}

	if total > 0 && float64(high+critical)/float64(total) > 0.4 {
		score = min(score, 55)
	}

	if total > 0 && lowRisk == total {
		score = max(score, 75)
		maturity = models.MaturityAdvanced
	}

	score = clampScore(score)
	maturity = DetermineMaturity(score, data)

	confidence := 0.5
	if r.ConfidenceScore != nil {
		confidence = *r.ConfidenceScore
	}
	switch {
	case data.DataCompleteness == "comprehensive" && total >= 5:
		confidence = math.Max(confidence, 0.75)
	case data.DataCompleteness == "minimal" || total < 3:
		confidence = math.Min(confidence, 0.55)
	}
	confidence = roundTo2(confidence)

	report := models.PostureReport{
		PostureScore:          score,
		MaturityLevel:         maturity,
		DominantRiskTheme:     stringOr(r.DominantRiskTheme, ""),
		LikelyAttackerProfile: models.AttackerProfile(stringOr(r.LikelyAttackerProfile, "")),
		StrategicRiskOutlook:  stringOr(r.StrategicRiskOutlook, ""),
		PriorityImprovements:  r.PriorityImprovements,
		AssessmentBasis:       r.AssessmentBasis,
		ConfidenceScore:       confidence,
	}
	return report
}

func clampToAnchor(score, anchor int) int {
	lower := anchor - 10
	upper := anchor + 10
	if score < lower {
		return lower
	}
	if score > upper {
		return upper
	}
	return score
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
