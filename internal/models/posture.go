package models

// MaturityLevel is the organizational security-maturity classification.
type MaturityLevel string

const (
	MaturityBasic        MaturityLevel = "Basic"
	MaturityDeveloping   MaturityLevel = "Developing"
	MaturityIntermediate MaturityLevel = "Intermediate"
	MaturityAdvanced     MaturityLevel = "Advanced"
)

// AttackerProfile is the likely-adversary classification in a posture report.
type AttackerProfile string

const (
	AttackerOpportunistic      AttackerProfile = "Opportunistic"
	AttackerTargeted           AttackerProfile = "Targeted"
	AttackerAdvancedPersistent AttackerProfile = "Advanced Persistent"
	AttackerAutomatedScanners  AttackerProfile = "Automated Scanners"
)

// PostureReport is the organization-level aggregate risk assessment.
type PostureReport struct {
	PostureScore          int             `json:"posture_score" jsonschema:"minimum=0,maximum=100"`
	MaturityLevel         MaturityLevel   `json:"maturity_level"`
	DominantRiskTheme     string          `json:"dominant_risk_theme"`
	LikelyAttackerProfile AttackerProfile `json:"likely_attacker_profile"`
	StrategicRiskOutlook  string          `json:"strategic_risk_outlook"`
	PriorityImprovements  []string        `json:"priority_improvements"`
	AssessmentBasis       []string        `json:"assessment_basis"`
	ConfidenceScore       float64         `json:"confidence_score" jsonschema:"minimum=0,maximum=1"`
}
