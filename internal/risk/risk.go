// Package risk implements the four-layer deterministic risk scorer: base
// port exposure, contextual subdomain keywords, compound interactions
// between the two, and a global posture adjustment applied once per scan
// across the whole asset set.
package risk

import (
	"fmt"
	"strings"

	"github.com/attacksurface/sentinel/internal/models"
)

// HighRiskThreshold is the port-weight floor above which a port is
// considered "high-risk" for compound-interaction purposes.
const HighRiskThreshold = 25

// portWeight describes the score contribution and evidence label of one
// sensitive port.
type portWeight struct {
	weight int
	label  string
}

// sensitivePorts mirrors risk_service.py's SENSITIVE_PORTS table exactly.
var sensitivePorts = map[int]portWeight{
	3389:  {35, "remote desktop"},
	3306:  {35, "database"},
	27017: {35, "database"},
	22:    {30, "remote access"},
	5432:  {30, "database"},
	6379:  {30, "in-memory store"},
	21:    {25, "file transfer"},
	25:    {15, "mail"},
	8080:  {10, "alt web"},
	8443:  {8, "alt secure web"},
}

var webPorts = map[int]bool{80: true, 443: true}

// databasePorts identifies ports whose exposure counts as a database
// surface for compound checks and the attack graph builder.
var databasePorts = map[int]bool{3306: true, 5432: true, 27017: true, 6379: true}

// envKeywords are the risk engine's environment-surface keyword set
// (risk_service.py ENV_KEYWORDS). Unlike the set attackgraph/posture use,
// it includes "admin".
var envKeywords = []string{"dev", "staging", "test", "old", "beta", "internal", "admin", "backup", "uat", "demo"}

// adminKeywords are the risk engine's admin-surface keyword set
// (risk_service.py ADMIN_KEYWORDS — narrower than attackgraph/posture's).
var adminKeywords = []string{"admin", "portal", "dashboard", "manage"}

func isHighRisk(w portWeight) bool {
	return w.weight >= HighRiskThreshold
}

func firstMatch(subdomain string, keywords []string) (string, bool) {
	lower := strings.ToLower(subdomain)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Calculate runs Layers 1-3 for one asset and returns its clamped score,
// derived severity, and ordered evidence. ipFrequency is the number of
// resolved subdomains sharing this asset's IP within the current scan.
func Calculate(subdomain string, openPorts []int, ipFrequency int) (int, models.Severity, []string) {
	score := 0
	var factors []string

	// Layer 1 — base exposure.
	if len(openPorts) > 0 {
		score += 2
	}

	webBonus := 0
	for _, port := range openPorts {
		if w, ok := sensitivePorts[port]; ok {
			score += w.weight
			factors = append(factors, fmt.Sprintf("Port %d open (%s)", port, w.label))
		}
		if webPorts[port] {
			webBonus += 3
		}
	}
	if webBonus > 6 {
		webBonus = 6
	}
	score += webBonus

	// Layer 2 — contextual modifiers.
	envMatch, hasEnv := firstMatch(subdomain, envKeywords)
	if hasEnv {
		score += 20
		factors = append(factors, fmt.Sprintf("Environment-indicative subdomain keyword detected: %q", envMatch))
	}

	adminMatch, hasAdmin := firstMatch(subdomain, adminKeywords)
	if hasAdmin {
		if hasEnv && adminMatch == envMatch {
			score += 5
			factors = append(factors, fmt.Sprintf("Administrative keyword %q overlaps environment keyword, reduced bonus applied", adminMatch))
		} else {
			score += 25
			factors = append(factors, fmt.Sprintf("Administrative surface keyword detected: %q", adminMatch))
		}
	}

	// Density counts only non-web ports: two ordinary web ports alone do not
	// constitute a dense service footprint the way two non-web services do.
	nonWebCount := 0
	for _, port := range openPorts {
		if !webPorts[port] {
			nonWebCount++
		}
	}
	switch {
	case nonWebCount >= 4:
		score += 15
		factors = append(factors, fmt.Sprintf("High service density: %d open ports", len(openPorts)))
	case nonWebCount >= 2:
		score += 8
		factors = append(factors, fmt.Sprintf("Service density: %d open ports", len(openPorts)))
	}

	if ipFrequency > 2 {
		score += 8
		factors = append(factors, fmt.Sprintf("Shared infrastructure: IP hosts %d subdomains", ipFrequency))
	}

	// Layer 3 — compound interactions.
	hasHighRisk := false
	for _, port := range openPorts {
		if w, ok := sensitivePorts[port]; ok && isHighRisk(w) {
			hasHighRisk = true
			break
		}
	}
	if hasEnv && hasHighRisk {
		score += 25
		factors = append(factors, "High-risk service exposed within sensitive environment")
	}

	hasNonWeb := false
	for _, port := range openPorts {
		if !webPorts[port] {
			hasNonWeb = true
			break
		}
	}
	if hasAdmin && hasNonWeb {
		score += 20
		factors = append(factors, "Administrative surface combined with service exposure")
	}

	score = clamp(score, 0, 100)

	if len(factors) == 0 {
		factors = []string{models.NoRiskFactorsSentinel}
	}

	return score, models.ClassifySeverity(score), factors
}

// BroadExposureMessage is the evidence line appended by the Layer-4 global
// posture adjustment.
const BroadExposureMessage = "Broad public service exposure footprint"

// ApplyGlobalPostureAdjustment is Layer 4. It mutates assets in place: if
// more than 8 assets exist and more than half expose at least one port,
// every asset's score gains +5 (clamped) and severity is re-derived.
func ApplyGlobalPostureAdjustment(assets []models.Asset) {
	total := len(assets)
	if total <= 8 {
		return
	}

	withPorts := 0
	for _, a := range assets {
		if len(a.OpenPorts) > 0 {
			withPorts++
		}
	}
	if float64(withPorts) <= float64(total)*0.5 {
		return
	}

	for i := range assets {
		assets[i].RiskScore = clamp(assets[i].RiskScore+5, 0, 100)
		assets[i].Severity = models.ClassifySeverity(assets[i].RiskScore)
		assets[i].RiskFactors = append(assets[i].RiskFactors, BroadExposureMessage)
	}
}

// IsWebPort reports whether a port is one of the two public web ports.
func IsWebPort(port int) bool { return webPorts[port] }

// IsDatabasePort reports whether a port is one of the database ports used
// by both the risk engine's compound checks and the attack graph builder.
func IsDatabasePort(port int) bool { return databasePorts[port] }

// SensitivePortWeight returns the configured weight/label for a sensitive
// port and whether it is defined.
func SensitivePortWeight(port int) (weight int, label string, ok bool) {
	w, found := sensitivePorts[port]
	if !found {
		return 0, "", false
	}
	return w.weight, w.label, true
}
