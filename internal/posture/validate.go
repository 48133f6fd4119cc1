package posture

// rawReport is the shape parsed directly from the narrative model's JSON
// response, before scoring-rule enforcement. Unlike models.PostureReport,
// every numeric field is float64 so validation can distinguish "absent"
// from "present but wrong type" the way the untyped Python dict does.
type rawReport struct {
	PostureScore          *float64 `json:"posture_score"`
	MaturityLevel         *string  `json:"maturity_level"`
	DominantRiskTheme     *string  `json:"dominant_risk_theme"`
	LikelyAttackerProfile *string  `json:"likely_attacker_profile"`
	StrategicRiskOutlook  *string  `json:"strategic_risk_outlook"`
	PriorityImprovements  []string `json:"priority_improvements"`
	AssessmentBasis       []string `json:"assessment_basis"`
	ConfidenceScore       *float64 `json:"confidence_score"`
}

var validMaturity = map[string]bool{
	"Basic": true, "Developing": true, "Intermediate": true, "Advanced": true,
}

var validAttackerProfile = map[string]bool{
	"Opportunistic": true, "Targeted": true, "Advanced Persistent": true, "Automated Scanners": true,
}

// validateSchema enforces the same checks as posture_service.py's
// _validate_posture_schema: required keys present, posture_score in
// [0,100], maturity_level and likely_attacker_profile in their enums,
// priority_improvements/assessment_basis non-empty, confidence_score in
// [0,1].
func validateSchema(r *rawReport) bool {
	if r == nil {
		return false
	}
	if r.PostureScore == nil || *r.PostureScore < 0 || *r.PostureScore > 100 {
		return false
	}
	if r.MaturityLevel == nil || !validMaturity[*r.MaturityLevel] {
		return false
	}
	if r.LikelyAttackerProfile == nil || !validAttackerProfile[*r.LikelyAttackerProfile] {
		return false
	}
	if r.DominantRiskTheme == nil || r.StrategicRiskOutlook == nil {
		return false
	}
	if len(r.PriorityImprovements) < 1 {
		return false
	}
	if len(r.AssessmentBasis) < 1 {
		return false
	}
	if r.ConfidenceScore == nil || *r.ConfidenceScore < 0 || *r.ConfidenceScore > 1 {
		return false
	}
	return true
}
