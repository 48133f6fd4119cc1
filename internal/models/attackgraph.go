package models

// Stage is one of the four ordered attack-chain phases.
type Stage string

const (
	StageInitialAccess      Stage = "Initial Access"
	StagePrivilegeEscalation Stage = "Privilege Escalation"
	StageLateralMovement    Stage = "Lateral Movement"
	StageDataExfiltration   Stage = "Data Exfiltration"
)

// OverallRisk is the graph-level risk classification.
type OverallRisk string

const (
	RiskLow      OverallRisk = "Low"
	RiskMedium   OverallRisk = "Medium"
	RiskHigh     OverallRisk = "High"
	RiskCritical OverallRisk = "Critical"
)

// AttackStep is one entry in an attack path.
type AttackStep struct {
	Step            int      `json:"step" jsonschema:"description=1-based position in the attack path"`
	Stage           Stage    `json:"stage"`
	Subdomain       string   `json:"subdomain"`
	IP              string   `json:"ip,omitempty"`
	Technique       string   `json:"technique"`
	MitreID         string   `json:"mitre_id"`
	Evidence        []string `json:"evidence"`
	ConfidenceScore float64  `json:"confidence_score" jsonschema:"minimum=0,maximum=0.95"`
	ImpactDetail    *string  `json:"impact_detail,omitempty" jsonschema:"description=Optional LLM-authored narrative addition; never alters structural fields"`
}

// AttackGraph is the full, stage-ordered attack chain for one domain.
type AttackGraph struct {
	EntryPoint       *string     `json:"entry_point"`
	AttackPath       []AttackStep `json:"attack_path"`
	ImpactSummary    string      `json:"impact_summary"`
	OverallRisk      OverallRisk `json:"overall_risk"`
	MitigationNotes  []string    `json:"mitigation_notes,omitempty"`
}
