// Package orchestrator sequences enumeration, resolution, exposure
// enrichment, and scoring into the single asset vector a scan produces.
package orchestrator

import (
	"context"
	"strconv"
	"sync"

	"github.com/attacksurface/sentinel/internal/exposure"
	"github.com/attacksurface/sentinel/internal/limits"
	"github.com/attacksurface/sentinel/internal/models"
	"github.com/attacksurface/sentinel/internal/resolver"
	"github.com/attacksurface/sentinel/internal/risk"
	"golang.org/x/sync/errgroup"
)

// ProgressReporter receives stage/detail notifications as a scan
// progresses. Implementations must not block the pipeline.
type ProgressReporter interface {
	Publish(scanID, stage, detail string)
}

type noopProgress struct{}

func (noopProgress) Publish(scanID, stage, detail string) {}

// Enumerating is the candidate-discovery dependency (satisfied by
// *enumerator.Enumerator).
type Enumerating interface {
	Enumerate(ctx context.Context, domain string) ([]string, error)
}

// Exposing is the host-intelligence dependency (satisfied by
// *exposure.Client).
type Exposing interface {
	Lookup(ctx context.Context, ip string) exposure.Result
}

// Orchestrator sequences the full reconnaissance pipeline: enumerate,
// resolve, enrich, score, and apply the global posture adjustment.
type Orchestrator struct {
	Enumerator Enumerating
	Exposure   Exposing
	DNS        resolver.Resolver
	Limits     *limits.RunLimiter
	Progress   ProgressReporter
}

func New(enum Enumerating, exp Exposing, dns resolver.Resolver, runLimits *limits.RunLimiter) *Orchestrator {
	return &Orchestrator{Enumerator: enum, Exposure: exp, DNS: dns, Limits: runLimits, Progress: noopProgress{}}
}

type resolvedHost struct {
	subdomain string
	ip        string
}

// RunScan executes the full pipeline for one domain: C1 enumeration, C2
// resolution (parallel, bounded), C3 enrichment (parallel, bounded), C4
// scoring, and the Layer-4 global posture adjustment. A fresh resolver
// cache is created per call so resolver results never leak across scans;
// the exposure dependency's own cache is not reset here.
func (o *Orchestrator) RunScan(ctx context.Context, scanID, domain string) ([]models.Asset, error) {
	progress := o.Progress
	if progress == nil {
		progress = noopProgress{}
	}

	dnsCache := resolver.New(o.DNS, o.Limits.GetLimits().ResolverCacheTTL)

	candidates, err := o.Enumerator.Enumerate(ctx, domain)
	if err != nil {
		return nil, err
	}
	candidates = o.Limits.TruncateCandidates(candidates)
	progress.Publish(scanID, "enumerate", formatCount(len(candidates), "candidate"))

	resolved := o.resolveAll(ctx, dnsCache, candidates)
	progress.Publish(scanID, "resolve", formatCount(len(resolved), "resolved host"))

	ipFreq := make(map[string]int, len(resolved))
	for _, r := range resolved {
		ipFreq[r.ip]++
	}

	assets := o.enrichAndScore(ctx, resolved, ipFreq)
	progress.Publish(scanID, "score", formatCount(len(assets), "asset"))

	risk.ApplyGlobalPostureAdjustment(assets)
	progress.Publish(scanID, "complete", formatCount(len(assets), "asset"))

	return assets, nil
}

// resolveAll resolves every candidate in parallel, preserving input order
// in the returned slice and dropping any that fail to resolve.
func (o *Orchestrator) resolveAll(ctx context.Context, dnsCache *resolver.Cache, candidates []string) []resolvedHost {
	results := make([]string, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Limits.GetLimits().ResolverWorkers)

	for i, sub := range candidates {
		i, sub := i, sub
		g.Go(func() error {
			results[i] = dnsCache.ResolvePrimaryIP(gctx, sub)
			return nil
		})
	}
	_ = g.Wait()

	resolved := make([]resolvedHost, 0, len(candidates))
	for i, sub := range candidates {
		if results[i] == "" {
			continue
		}
		resolved = append(resolved, resolvedHost{subdomain: sub, ip: results[i]})
	}
	return resolved
}

// enrichAndScore fetches exposure data and computes the risk score for
// every resolved host in parallel, then returns assets in the same order
// as resolveAll produced them.
func (o *Orchestrator) enrichAndScore(ctx context.Context, resolved []resolvedHost, ipFreq map[string]int) []models.Asset {
	assets := make([]models.Asset, len(resolved))

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.Limits.GetLimits().ExposureWorkers)

	for i, r := range resolved {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, r resolvedHost) {
			defer wg.Done()
			defer func() { <-sem }()

			exp := o.Exposure.Lookup(ctx, r.ip)
			score, severity, factors := risk.Calculate(r.subdomain, exp.Ports, ipFreq[r.ip])

			asset := models.Asset{
				Subdomain:   r.subdomain,
				IP:          r.ip,
				OpenPorts:   exp.Ports,
				Services:    exp.Services,
				OS:          exp.OS,
				Org:         exp.Org,
				ISP:         exp.ISP,
				RiskScore:   score,
				Severity:    severity,
				RiskFactors: factors,
			}
			assets[i] = asset
		}(i, r)
	}
	wg.Wait()

	return assets
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
