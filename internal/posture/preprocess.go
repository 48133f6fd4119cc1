// Package posture derives organizational-level security maturity and risk
// outlook from a scan's assets, anchored by a deterministic score that an
// LLM narrative may only nudge within a fixed band.
package posture

import (
	"strings"

	"github.com/attacksurface/sentinel/internal/models"
)

var adminKeywords = []string{"admin", "portal", "dashboard", "manage", "panel", "console"}
var envKeywords = []string{"dev", "staging", "test", "old", "beta", "internal", "backup", "uat", "demo"}

var severityWeights = map[models.Severity]float64{
	models.SeverityCritical:      1.0,
	models.SeverityHigh:          0.7,
	models.SeverityMedium:        0.4,
	models.SeverityLow:           0.15,
	models.SeverityInformational: 0.0,
}

// RiskDistribution buckets assets by risk-score band.
type RiskDistribution struct {
	LowRiskCount      int     `json:"low_risk_count"`
	MediumRiskCount   int     `json:"medium_risk_count"`
	HighRiskCount     int     `json:"high_risk_count"`
	CriticalRiskCount int     `json:"critical_risk_count"`
	AverageRiskScore  float64 `json:"average_risk_score"`
	PeakRiskScore     int     `json:"peak_risk_score"`
}

// InfrastructureConcentration summarizes IP reuse across assets.
type InfrastructureConcentration struct {
	UniqueIPs      int `json:"unique_ips"`
	SharedIPCount  int `json:"shared_ip_count"`
	MaxAssetsPerIP int `json:"max_assets_per_ip"`
}

// ServiceDensity summarizes open-port counts across assets.
type ServiceDensity struct {
	AveragePortsPerAsset float64 `json:"average_ports_per_asset"`
	MaxPortsOnSingleAsset int    `json:"max_ports_on_single_asset"`
	AssetsWithNoPorts    int     `json:"assets_with_no_ports"`
}

// KeywordExposure is one subdomain flagged by a keyword-based surface check.
type KeywordExposure struct {
	Subdomain string `json:"subdomain"`
	Keyword   string `json:"keyword"`
}

// Data is the structured, pre-aggregated organizational pattern view handed
// to the posture narrative model. It never contains raw per-asset dumps.
type Data struct {
	Domain                   string                      `json:"domain"`
	TotalAssets              int                         `json:"total_assets"`
	RiskDistribution         RiskDistribution             `json:"risk_distribution"`
	SeverityBreakdown        map[models.Severity]int      `json:"severity_breakdown"`
	InfrastructureConcentration InfrastructureConcentration `json:"infrastructure_concentration"`
	EnvironmentExposure      []KeywordExposure            `json:"environment_exposure"`
	AdminSurfaceExposure     []KeywordExposure            `json:"admin_surface_exposure"`
	ServiceDensity           ServiceDensity               `json:"service_density"`
	TopRiskFactors           []string                     `json:"top_risk_factors"`
	DataCompleteness         string                       `json:"data_completeness"`
}

// Preprocess builds the organizational pattern metrics fed to the posture
// narrative model, mirroring posture_service.py's _preprocess_posture_data.
func Preprocess(domain string, assets []models.Asset) Data {
	total := len(assets)
	if total == 0 {
		return Data{
			Domain:               domain,
			TotalAssets:          0,
			SeverityBreakdown:    map[models.Severity]int{},
			EnvironmentExposure:  []KeywordExposure{},
			AdminSurfaceExposure: []KeywordExposure{},
			TopRiskFactors:       []string{},
			DataCompleteness:     "minimal",
		}
	}

	var riskSum int
	peak := assets[0].RiskScore
	dist := RiskDistribution{}
	for _, a := range assets {
		riskSum += a.RiskScore
		if a.RiskScore > peak {
			peak = a.RiskScore
		}
		switch {
		case a.RiskScore < 30:
			dist.LowRiskCount++
		case a.RiskScore < 60:
			dist.MediumRiskCount++
		case a.RiskScore < 80:
			dist.HighRiskCount++
		default:
			dist.CriticalRiskCount++
		}
	}
	dist.AverageRiskScore = roundTo1(float64(riskSum) / float64(total))
	dist.PeakRiskScore = peak

	severityCounts := map[models.Severity]int{}
	for _, a := range assets {
		sev := a.Severity
		if sev == "" {
			sev = models.SeverityLow
		}
		severityCounts[sev]++
	}

	ipFreq := map[string]int{}
	var ipOrder []string
	for _, a := range assets {
		if a.IP == "" {
			continue
		}
		if _, ok := ipFreq[a.IP]; !ok {
			ipOrder = append(ipOrder, a.IP)
		}
		ipFreq[a.IP]++
	}
	sharedCount := 0
	maxPerIP := 0
	for _, ip := range ipOrder {
		count := ipFreq[ip]
		if count > 1 {
			sharedCount++
		}
		if count > maxPerIP {
			maxPerIP = count
		}
	}
	concentration := InfrastructureConcentration{
		UniqueIPs:      len(ipFreq),
		SharedIPCount:  sharedCount,
		MaxAssetsPerIP: maxPerIP,
	}

	var envExposed, adminExposed []KeywordExposure
	for _, a := range assets {
		sub := strings.ToLower(a.Subdomain)
		for _, kw := range envKeywords {
			if strings.Contains(sub, kw) {
				envExposed = append(envExposed, KeywordExposure{Subdomain: a.Subdomain, Keyword: kw})
				break
			}
		}
		for _, kw := range adminKeywords {
			if strings.Contains(sub, kw) {
				adminExposed = append(adminExposed, KeywordExposure{Subdomain: a.Subdomain, Keyword: kw})
				break
			}
		}
	}
	envExposed = capExposure(envExposed, 5)
	adminExposed = capExposure(adminExposed, 5)

	var portCounts []int
	var portSum, noPortAssets, maxPorts int
	for _, a := range assets {
		n := len(a.OpenPorts)
		portCounts = append(portCounts, n)
		portSum += n
		if n == 0 {
			noPortAssets++
		}
		if n > maxPorts {
			maxPorts = n
		}
	}
	density := ServiceDensity{
		AveragePortsPerAsset:  roundTo1(float64(portSum) / float64(total)),
		MaxPortsOnSingleAsset: maxPorts,
		AssetsWithNoPorts:     noPortAssets,
	}

	var allFactors []string
	seenFactor := map[string]bool{}
	for _, a := range assets {
		for _, f := range a.RiskFactors {
			if f == models.NoRiskFactorsSentinel || seenFactor[f] {
				continue
			}
			seenFactor[f] = true
			allFactors = append(allFactors, f)
		}
	}
	if len(allFactors) > 10 {
		allFactors = allFactors[:10]
	}

	hasPorts := 0
	for _, a := range assets {
		if len(a.OpenPorts) > 0 {
			hasPorts++
		}
	}
	completeness := "minimal"
	switch {
	case float64(hasPorts) > float64(total)*0.5:
		completeness = "comprehensive"
	case hasPorts > 0:
		completeness = "moderate"
	}

	return Data{
		Domain:                       domain,
		TotalAssets:                  total,
		RiskDistribution:             dist,
		SeverityBreakdown:            severityCounts,
		InfrastructureConcentration:  concentration,
		EnvironmentExposure:          envExposed,
		AdminSurfaceExposure:         adminExposed,
		ServiceDensity:               density,
		TopRiskFactors:               allFactors,
		DataCompleteness:             completeness,
	}
}

func capExposure(items []KeywordExposure, max int) []KeywordExposure {
	if items == nil {
		return []KeywordExposure{}
	}
	if len(items) > max {
		return items[:max]
	}
	return items
}

func roundTo1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
