package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubDNS struct {
	calls   int
	results map[string][]string
	err     error
}

func (s *stubDNS) LookupHost(ctx context.Context, host string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results[host], nil
}

type lookupErr struct{}

func (lookupErr) Error() string { return "lookup failed" }

func TestResolve_DeduplicatesAndSplitsFamilies(t *testing.T) {
	dns := &stubDNS{results: map[string][]string{
		"app.example.com": {"1.1.1.1", "1.1.1.1", "::1"},
	}}
	r := New(dns, time.Minute)

	addrs := r.Resolve(context.Background(), "app.example.com")

	assert.Equal(t, []string{"1.1.1.1"}, addrs.IPv4)
	assert.Equal(t, []string{"::1"}, addrs.IPv6)
	assert.Equal(t, "1.1.1.1", addrs.PrimaryIP())
}

func TestResolve_CachesWithinRun(t *testing.T) {
	dns := &stubDNS{results: map[string][]string{"app.example.com": {"1.1.1.1"}}}
	r := New(dns, time.Minute)

	r.Resolve(context.Background(), "app.example.com")
	r.Resolve(context.Background(), "app.example.com")

	assert.Equal(t, 1, dns.calls)
}

func TestResolve_FailureYieldsEmptyNotError(t *testing.T) {
	dns := &stubDNS{err: lookupErr{}}
	r := New(dns, time.Minute)

	addrs := r.Resolve(context.Background(), "missing.example.com")

	assert.Empty(t, addrs.IPv4)
	assert.Empty(t, addrs.IPv6)
	assert.Equal(t, "", addrs.PrimaryIP())
}

func TestResolvePrimaryIP_ReturnsFirstIPv4(t *testing.T) {
	dns := &stubDNS{results: map[string][]string{"app.example.com": {"9.9.9.9", "8.8.8.8"}}}
	r := New(dns, time.Minute)

	assert.Equal(t, "9.9.9.9", r.ResolvePrimaryIP(context.Background(), "app.example.com"))
}
