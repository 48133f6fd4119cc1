// Package limits centralizes the bounds enforced during a single
// reconnaissance run: how many subdomain candidates survive enumeration,
// and how long per-run caches keep resolver and exposure lookups.
package limits

import (
	"fmt"
	"time"
)

// RunLimits bounds one scan's resource usage.
type RunLimits struct {
	MaxSubdomains      int           `json:"max_subdomains"`
	ResolverCacheTTL   time.Duration `json:"resolver_cache_ttl"`
	ExposureCacheTTL   time.Duration `json:"exposure_cache_ttl"`
	ResolverWorkers    int           `json:"resolver_workers"`
	ExposureWorkers    int           `json:"exposure_workers"`
}

// DefaultRunLimits matches the enumerator cap and worker pool sizes used
// across the reconnaissance pipeline.
func DefaultRunLimits() *RunLimits {
	return &RunLimits{
		MaxSubdomains:    15,
		ResolverCacheTTL: 10 * time.Minute,
		ExposureCacheTTL: 10 * time.Minute,
		ResolverWorkers:  10,
		ExposureWorkers:  5,
	}
}

// RunLimiter exposes validated, updatable run limits to the orchestrator.
type RunLimiter struct {
	limits *RunLimits
}

func NewRunLimiter(limits *RunLimits) *RunLimiter {
	if limits == nil {
		limits = DefaultRunLimits()
	}
	return &RunLimiter{limits: limits}
}

func (rl *RunLimiter) GetLimits() *RunLimits {
	return rl.limits
}

func (rl *RunLimiter) UpdateLimits(limits *RunLimits) error {
	if limits.MaxSubdomains <= 0 {
		return fmt.Errorf("MaxSubdomains must be positive")
	}
	if limits.ResolverCacheTTL <= 0 {
		return fmt.Errorf("ResolverCacheTTL must be positive")
	}
	if limits.ExposureCacheTTL <= 0 {
		return fmt.Errorf("ExposureCacheTTL must be positive")
	}
	if limits.ResolverWorkers <= 0 {
		return fmt.Errorf("ResolverWorkers must be positive")
	}
	if limits.ExposureWorkers <= 0 {
		return fmt.Errorf("ExposureWorkers must be positive")
	}

	rl.limits = limits
	return nil
}

// TruncateCandidates applies MaxSubdomains to an already-ordered candidate
// list, keeping the earliest (highest-priority) entries.
func (rl *RunLimiter) TruncateCandidates(candidates []string) []string {
	if len(candidates) <= rl.limits.MaxSubdomains {
		return candidates
	}
	return candidates[:rl.limits.MaxSubdomains]
}

// ValidateLimits enforces sane upper bounds so a misconfigured deployment
// cannot turn one scan into an unbounded resource hog.
func (rl *RunLimiter) ValidateLimits() error {
	if rl.limits.MaxSubdomains > 500 {
		return fmt.Errorf("MaxSubdomains too large (> 500)")
	}
	if rl.limits.ResolverWorkers > 100 {
		return fmt.Errorf("ResolverWorkers too large (> 100)")
	}
	if rl.limits.ExposureWorkers > 100 {
		return fmt.Errorf("ExposureWorkers too large (> 100)")
	}
	return nil
}
