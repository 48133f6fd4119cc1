// Package enumerator produces a deduplicated, DNS-validated set of
// candidate hostnames for a domain, combining certificate-transparency
// logs with a lightweight common-prefix brute force.
package enumerator

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// MaxSubdomains is the hard cap on how many DNS-validated candidates one
// enumeration run returns.
const MaxSubdomains = 15

// CommonPrefixes are probed against the target domain during brute-force
// discovery, mirroring subdomain.py's COMMON_SUBS.
var CommonPrefixes = []string{"dev", "test", "staging", "admin", "api", "mail", "portal", "beta"}

const ctLogTimeout = 20 * time.Second

// Resolver is the minimal DNS surface the enumerator needs, satisfied by
// *net.Resolver in production and a stub in tests.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

const defaultCrtshBaseURL = "https://crt.sh"

// Enumerator discovers and DNS-validates subdomain candidates for one
// domain.
type Enumerator struct {
	HTTPClient   *http.Client
	DNS          Resolver
	Workers      int
	CrtshBaseURL string
}

func New(dns Resolver) *Enumerator {
	return &Enumerator{
		HTTPClient:   &http.Client{Timeout: ctLogTimeout},
		DNS:          dns,
		Workers:      10,
		CrtshBaseURL: defaultCrtshBaseURL,
	}
}

func (e *Enumerator) crtshBaseURL() string {
	if e.CrtshBaseURL == "" {
		return defaultCrtshBaseURL
	}
	return e.CrtshBaseURL
}

type crtshEntry struct {
	NameValue string `json:"name_value"`
}

// fetchCrtsh queries crt.sh's certificate-transparency log for every name
// issued under the domain. CT fetch failures, malformed JSON, and non-array
// payloads all degrade to an empty result — brute force still runs.
func (e *Enumerator) fetchCrtsh(ctx context.Context, domain string) []string {
	url := fmt.Sprintf("%s/?q=%%25.%s&output=json", e.crtshBaseURL(), domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var entries []crtshEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.NameValue == "" {
			continue
		}
		for _, name := range strings.Split(entry.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func (e *Enumerator) resolvable(ctx context.Context, host string) bool {
	_, err := e.DNS.LookupHost(ctx, host)
	return err == nil
}

// Enumerate combines crt.sh and brute-force candidates, validates each via
// DNS, and returns up to MaxSubdomains resolvable FQDNs. Candidates are
// sorted before probing so the cap is applied deterministically regardless
// of how the worker pool interleaves lookups.
func (e *Enumerator) Enumerate(ctx context.Context, domain string) ([]string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))

	candidateSet := map[string]struct{}{domain: {}}

	for _, name := range e.fetchCrtsh(ctx, domain) {
		if strings.HasPrefix(name, "*") {
			continue
		}
		if name == domain || strings.HasSuffix(name, "."+domain) {
			candidateSet[name] = struct{}{}
		}
	}

	for _, prefix := range CommonPrefixes {
		candidateSet[prefix+"."+domain] = struct{}{}
	}

	candidates := make([]string, 0, len(candidateSet))
	for name := range candidateSet {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)

	return e.validate(ctx, candidates)
}

// validate DNS-probes candidates with a bounded worker pool, then returns
// the resolvable subset in the same sorted order, capped at MaxSubdomains.
func (e *Enumerator) validate(ctx context.Context, candidates []string) ([]string, error) {
	resolvable := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			resolvable[i] = e.resolvable(gctx, candidate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var validated []string
	for i, candidate := range candidates {
		if !resolvable[i] {
			continue
		}
		validated = append(validated, candidate)
		if len(validated) >= MaxSubdomains {
			break
		}
	}
	return validated, nil
}

func (e *Enumerator) workers() int {
	if e.Workers <= 0 {
		return 10
	}
	return e.Workers
}

// NetResolver adapts *net.Resolver to the Resolver interface.
type NetResolver struct {
	Resolver *net.Resolver
}

func (r NetResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	resolver := r.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return resolver.LookupHost(ctx, host)
}
