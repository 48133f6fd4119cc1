// Package resolver maps hostnames to IP addresses with a per-run cache,
// so the same subdomain is never looked up twice within one scan.
package resolver

import (
	"context"
	"net"
	"time"

	"github.com/attacksurface/sentinel/internal/cache"
)

const LookupTimeout = 5 * time.Second

// Addresses is the dual-family address set for one resolved hostname.
type Addresses struct {
	IPv4 []string
	IPv6 []string
}

// PrimaryIP returns the first IPv4 address, or "" if none resolved.
func (a Addresses) PrimaryIP() string {
	if len(a.IPv4) == 0 {
		return ""
	}
	return a.IPv4[0]
}

// Resolver is the minimal DNS surface needed, satisfied by *net.Resolver.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Cache resolves hostnames with a per-run TTL cache. A fresh Cache MUST be
// created for every scan run; caches are never shared across runs.
type Cache struct {
	dns   Resolver
	cache *cache.TTL[Addresses]
}

func New(dns Resolver, ttl time.Duration) *Cache {
	return &Cache{dns: dns, cache: cache.New[Addresses](ttl)}
}

// Resolve returns the dual-family address set for hostname, using the
// per-run cache on repeat lookups. Any resolution error yields an empty
// result rather than a hard failure — the pipeline never aborts because
// one hostname failed to resolve.
func (r *Cache) Resolve(ctx context.Context, hostname string) Addresses {
	if addrs, ok := r.cache.Get(hostname); ok {
		return addrs
	}

	lookupCtx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()

	addrs := Addresses{}
	results, err := r.dns.LookupHost(lookupCtx, hostname)
	if err == nil {
		seen := map[string]bool{}
		for _, ip := range results {
			if seen[ip] {
				continue
			}
			seen[ip] = true
			parsed := net.ParseIP(ip)
			switch {
			case parsed == nil:
				continue
			case parsed.To4() != nil:
				addrs.IPv4 = append(addrs.IPv4, ip)
			default:
				addrs.IPv6 = append(addrs.IPv6, ip)
			}
		}
	}

	r.cache.Set(hostname, addrs)
	return addrs
}

// ResolvePrimaryIP resolves hostname and returns its first IPv4 address, or
// "" on a miss.
func (r *Cache) ResolvePrimaryIP(ctx context.Context, hostname string) string {
	return r.Resolve(ctx, hostname).PrimaryIP()
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
