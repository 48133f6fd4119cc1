package models

import "time"

// ScanRecord is the persisted artifact of one completed recon run.
type ScanRecord struct {
	ScanID       string            `json:"scan_id"`
	Domain       string            `json:"domain"`
	Timestamp    time.Time         `json:"timestamp"`
	Assets       []Asset           `json:"assets"`
	TotalAssets  int               `json:"total_assets"`
	RiskSummary  SeverityHistogram `json:"risk_summary"`
}

// NewScanRecord builds the immutable record stored for one scan.
func NewScanRecord(domain string, assets []Asset, now time.Time) ScanRecord {
	return ScanRecord{
		Domain:      domain,
		Timestamp:   now.UTC(),
		Assets:      assets,
		TotalAssets: len(assets),
		RiskSummary: BuildSeverityHistogram(assets),
	}
}
