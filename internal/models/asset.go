package models

// Severity is the deterministic classification of a risk score.
type Severity string

const (
	SeverityInformational Severity = "Informational"
	SeverityLow           Severity = "Low"
	SeverityMedium        Severity = "Medium"
	SeverityHigh          Severity = "High"
	SeverityCritical      Severity = "Critical"
)

// ClassifySeverity derives the severity bucket for a clamped risk score.
func ClassifySeverity(score int) Severity {
	switch {
	case score >= 70:
		return SeverityCritical
	case score >= 50:
		return SeverityHigh
	case score >= 30:
		return SeverityMedium
	case score >= 10:
		return SeverityLow
	default:
		return SeverityInformational
	}
}

// NoRiskFactorsSentinel is the single factor string used when no risk
// factor fired for an asset.
const NoRiskFactorsSentinel = "No notable risk factors identified"

// Service describes one observed port/service on a host.
type Service struct {
	Port      int     `json:"port"`
	Product   *string `json:"product,omitempty" jsonschema:"description=Detected software product name"`
	Version   *string `json:"version,omitempty" jsonschema:"description=Detected software version"`
	Transport *string `json:"transport,omitempty" jsonschema:"description=tcp or udp"`
}

// Asset is one hostname resolved and scored during a scan.
type Asset struct {
	Subdomain    string    `json:"subdomain" jsonschema:"description=Lowercase fully qualified hostname"`
	IP           string    `json:"ip,omitempty" jsonschema:"description=Primary IPv4 address"`
	OpenPorts    []int     `json:"open_ports"`
	Services     []Service `json:"services,omitempty"`
	OS           string    `json:"os,omitempty"`
	Org          string    `json:"org,omitempty"`
	ISP          string    `json:"isp,omitempty"`
	RiskScore    int       `json:"risk_score" jsonschema:"minimum=0,maximum=100"`
	Severity     Severity  `json:"severity"`
	RiskFactors  []string  `json:"risk_factors" jsonschema:"description=Ordered evidence strings supporting the score"`
}

// HasPort reports whether the asset exposes the given port.
func (a *Asset) HasPort(port int) bool {
	for _, p := range a.OpenPorts {
		if p == port {
			return true
		}
	}
	return false
}

// SeverityHistogram counts assets by severity bucket.
type SeverityHistogram struct {
	Critical      int `json:"critical"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	Informational int `json:"informational"`
}

// BuildSeverityHistogram aggregates a severity histogram over an asset set.
func BuildSeverityHistogram(assets []Asset) SeverityHistogram {
	var h SeverityHistogram
	for _, a := range assets {
		switch a.Severity {
		case SeverityCritical:
			h.Critical++
		case SeverityHigh:
			h.High++
		case SeverityMedium:
			h.Medium++
		case SeverityLow:
			h.Low++
		default:
			h.Informational++
		}
	}
	return h
}
