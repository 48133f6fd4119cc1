// Package attackgraph builds a deterministic, four-stage, MITRE-tagged
// attack chain from a scored asset vector. No AI involvement; the LLM
// gateway enhances the output it returns here under a strict merge that
// cannot touch any structural field (see internal/llm).
package attackgraph

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/attacksurface/sentinel/internal/models"
)

const DefaultRiskThreshold = 30

type technique struct {
	name    string
	mitreID string
}

var mitreTechniques = map[string]technique{
	"initial_access_web":    {"Exploit Public-Facing Application", "T1190"},
	"initial_access_remote": {"External Remote Services", "T1133"},
	"initial_access_admin":  {"Valid Accounts – Admin Panel Exposure", "T1078"},

	"privesc_db_mysql":    {"Exploitation of Database Service (MySQL)", "T1068"},
	"privesc_db_mongo":    {"Exploitation of Database Service (MongoDB)", "T1068"},
	"privesc_db_postgres": {"Exploitation of Database Service (PostgreSQL)", "T1068"},
	"privesc_redis":       {"Exploitation of In-Memory Data Store (Redis)", "T1068"},
	"privesc_ssh":         {"Brute Force – SSH Credential Access", "T1110.001"},
	"privesc_rdp":         {"Remote Desktop Protocol Exploitation", "T1021.001"},
	"privesc_ftp":         {"Exploitation via FTP Service", "T1071.002"},

	"lateral_shared_infra": {"Lateral Movement via Shared Infrastructure", "T1021"},
	"lateral_admin":        {"Internal Administrative Interface Discovery", "T1087.002"},
	"lateral_env":          {"Exploitation of Non-Production Environment", "T1199"},

	"exfil_db":       {"Data from Information Repositories", "T1213"},
	"exfil_admin_db": {"Exfiltration via Administrative Channel", "T1041"},
}

var sensitivePortMap = map[int]string{
	22:    "privesc_ssh",
	3389:  "privesc_rdp",
	3306:  "privesc_db_mysql",
	27017: "privesc_db_mongo",
	5432:  "privesc_db_postgres",
	6379:  "privesc_redis",
	21:    "privesc_ftp",
}

var publicWebPorts = map[int]bool{80: true, 443: true}
var databasePorts = map[int]bool{3306: true, 5432: true, 27017: true, 6379: true}

// adminKeywords/envKeywords here are the sets attack_model_service.py and
// posture_service.py share. adminKeywords extends the risk engine's list
// with "panel" and "console"; envKeywords is the risk engine's list without
// "admin".
var adminKeywords = []string{"admin", "portal", "dashboard", "manage", "panel", "console"}
var envKeywords = []string{"dev", "staging", "test", "old", "beta", "internal", "backup", "uat", "demo"}

func isAdminSurface(subdomain string) bool {
	lower := strings.ToLower(subdomain)
	for _, kw := range adminKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isEnvSurface(subdomain string) bool {
	lower := strings.ToLower(subdomain)
	for _, kw := range envKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func databasePortsOf(a models.Asset) []int {
	var ports []int
	for _, p := range a.OpenPorts {
		if databasePorts[p] {
			ports = append(ports, p)
		}
	}
	return ports
}

func sensitiveTechniqueKeys(a models.Asset) []string {
	var keys []string
	for _, p := range a.OpenPorts {
		if k, ok := sensitivePortMap[p]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func hasNonWebPort(a models.Asset) bool {
	for _, p := range a.OpenPorts {
		if !publicWebPorts[p] {
			return true
		}
	}
	return false
}

func isPubliclyExposed(a models.Asset) bool {
	for _, p := range a.OpenPorts {
		if publicWebPorts[p] {
			return true
		}
	}
	return false
}

var compoundKeywords = []string{
	"high-risk service exposed within",
	"administrative surface combined",
	"broad public service exposure",
}

func computeConfidence(a models.Asset) float64 {
	base := float64(a.RiskScore) / 100.0
	compoundCount := 0
	for _, f := range a.RiskFactors {
		lower := strings.ToLower(f)
		for _, kw := range compoundKeywords {
			if strings.Contains(lower, kw) {
				compoundCount++
				break
			}
		}
	}
	conf := base + 0.05*float64(compoundCount)
	if conf > 0.95 {
		conf = 0.95
	}
	return math.Round(conf*100) / 100
}

func classifyOverallRisk(path []models.AttackStep) models.OverallRisk {
	if len(path) == 0 {
		return models.RiskLow
	}
	maxConfidence := 0.0
	for _, s := range path {
		if s.ConfidenceScore > maxConfidence {
			maxConfidence = s.ConfidenceScore
		}
	}
	steps := len(path)
	switch {
	case maxConfidence >= 0.85 || steps >= 5:
		return models.RiskCritical
	case maxConfidence >= 0.7 || steps >= 3:
		return models.RiskHigh
	case maxConfidence >= 0.5 || steps >= 2:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func makeStep(stepNum int, stage models.Stage, techniqueKey string, a models.Asset, extra []string) models.AttackStep {
	tech := mitreTechniques[techniqueKey]
	evidence := make([]string, 0, len(a.RiskFactors)+len(extra))
	evidence = append(evidence, a.RiskFactors...)
	evidence = append(evidence, extra...)

	return models.AttackStep{
		Step:            stepNum,
		Stage:           stage,
		Subdomain:       a.Subdomain,
		IP:              a.IP,
		Technique:       tech.name,
		MitreID:         tech.mitreID,
		Evidence:        evidence,
		ConfidenceScore: computeConfidence(a),
	}
}

// Build constructs the deterministic attack graph for domain from assets,
// filtering candidates at or above riskThreshold (spec default 30).
func Build(domain string, assets []models.Asset, riskThreshold int) models.AttackGraph {
	candidates := make([]models.Asset, 0, len(assets))
	for _, a := range assets {
		if a.RiskScore >= riskThreshold {
			candidates = append(candidates, a)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RiskScore > candidates[j].RiskScore
	})

	if len(candidates) == 0 {
		return models.AttackGraph{
			EntryPoint:    nil,
			AttackPath:    []models.AttackStep{},
			ImpactSummary: "No viable attack path identified based on current exposure.",
			OverallRisk:   models.RiskLow,
		}
	}

	ipFreq := make(map[string]int)
	for _, a := range assets {
		if a.IP != "" {
			ipFreq[a.IP]++
		}
	}

	var path []models.AttackStep
	stepNum := 0
	var entryPoint *string
	usedAssets := make(map[string]bool)

	// Stage 1 — Initial Access: priority admin+sensitive > sensitive+non-web > web-only.
	for _, a := range candidates {
		ports := make(map[int]bool, len(a.OpenPorts))
		for _, p := range a.OpenPorts {
			ports[p] = true
		}
		isWeb := isPubliclyExposed(a)
		isAdmin := isAdminSurface(a.Subdomain)
		hasSensitive := hasNonWebPort(a)
		hasDensity := len(a.OpenPorts) >= 4

		if !(isWeb || hasSensitive || isAdmin || hasDensity) {
			continue
		}

		var techKey string
		switch {
		case isAdmin && hasSensitive:
			techKey = "initial_access_admin"
		case hasSensitive && !isWeb:
			techKey = "initial_access_remote"
		default:
			techKey = "initial_access_web"
		}

		var extra []string
		if hasDensity {
			extra = append(extra, fmt.Sprintf("High service density (%d ports exposed)", len(a.OpenPorts)))
		}

		stepNum++
		path = append(path, makeStep(stepNum, models.StageInitialAccess, techKey, a, extra))
		sub := a.Subdomain
		entryPoint = &sub
		usedAssets[a.Subdomain] = true
		break
	}

	// Stage 2 — Privilege Escalation: one step per distinct technique key.
	seenPrivesc := make(map[string]bool)
	for _, a := range candidates {
		for _, key := range sensitiveTechniqueKeys(a) {
			if seenPrivesc[key] {
				continue
			}
			seenPrivesc[key] = true

			port := 0
			for p, k := range sensitivePortMap {
				if k == key {
					port = p
					break
				}
			}
			extra := []string{fmt.Sprintf("Port %d directly accessible from external network", port)}

			stepNum++
			path = append(path, makeStep(stepNum, models.StagePrivilegeEscalation, key, a, extra))
			usedAssets[a.Subdomain] = true
		}
	}

	// Stage 3a — shared infrastructure.
	sharedIPsProcessed := make(map[string]bool)
	for _, a := range candidates {
		if a.IP == "" || sharedIPsProcessed[a.IP] {
			continue
		}
		freq := ipFreq[a.IP]
		if freq > 2 {
			sharedIPsProcessed[a.IP] = true
			extra := []string{fmt.Sprintf("%d subdomains share IP %s — blast radius amplified", freq, a.IP)}
			stepNum++
			path = append(path, makeStep(stepNum, models.StageLateralMovement, "lateral_shared_infra", a, extra))
			usedAssets[a.Subdomain] = true
			break
		}
	}

	// Stage 3b — admin pivot.
	for _, a := range candidates {
		if usedAssets[a.Subdomain] {
			continue
		}
		if isAdminSurface(a.Subdomain) {
			stepNum++
			path = append(path, makeStep(stepNum, models.StageLateralMovement, "lateral_admin", a, nil))
			usedAssets[a.Subdomain] = true
			break
		}
	}

	// Stage 3c — non-production pivot.
	for _, a := range candidates {
		if usedAssets[a.Subdomain] {
			continue
		}
		if isEnvSurface(a.Subdomain) && !isAdminSurface(a.Subdomain) {
			stepNum++
			path = append(path, makeStep(stepNum, models.StageLateralMovement, "lateral_env", a, nil))
			usedAssets[a.Subdomain] = true
			break
		}
	}

	// Stage 4 — Data Exfiltration.
	for _, a := range candidates {
		dbPorts := databasePortsOf(a)
		if len(dbPorts) == 0 {
			continue
		}

		var techKey string
		var extra []string
		if isAdminSurface(a.Subdomain) && hasNonWebPort(a) {
			techKey = "exfil_admin_db"
			extra = []string{
				fmt.Sprintf("Database port(s) %v exposed alongside admin interface", dbPorts),
				"Admin + database combination enables direct data exfiltration",
			}
		} else {
			techKey = "exfil_db"
			extra = []string{fmt.Sprintf("Database port(s) %v externally accessible", dbPorts)}
		}

		stepNum++
		path = append(path, makeStep(stepNum, models.StageDataExfiltration, techKey, a, extra))
		break
	}

	if entryPoint == nil {
		sub := candidates[0].Subdomain
		entryPoint = &sub
	}

	overallRisk := classifyOverallRisk(path)
	maxRisk := candidates[0].RiskScore

	var stagesHit []string
	seenStage := make(map[models.Stage]bool)
	for _, s := range path {
		if !seenStage[s.Stage] {
			seenStage[s.Stage] = true
			stagesHit = append(stagesHit, string(s.Stage))
		}
	}
	stagesText := "no"
	if len(stagesHit) > 0 {
		stagesText = strings.Join(stagesHit, ", ")
	}

	impactSummary := fmt.Sprintf(
		"Analysis of %s identified %d asset(s) with elevated risk (score >= %d). Peak risk score: %d. A %d-step attack chain spanning %s stage(s) was constructed.",
		domain, len(candidates), riskThreshold, maxRisk, len(path), stagesText,
	)

	if path == nil {
		path = []models.AttackStep{}
	}

	return models.AttackGraph{
		EntryPoint:    entryPoint,
		AttackPath:    path,
		ImpactSummary: impactSummary,
		OverallRisk:   overallRisk,
	}
}
