// Package exposure fetches port/service/organization metadata for an IP
// from an external host-intelligence database (Shodan), with a per-IP
// cache (negative results included) so a miss is not re-fetched while its
// entry is live.
package exposure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/attacksurface/sentinel/internal/cache"
	"github.com/attacksurface/sentinel/internal/models"
)

const (
	DefaultTimeout = 10 * time.Second
	shodanBaseURL  = "https://api.shodan.io"
)

// Result is the projection of an exposure lookup onto the fields the risk
// pipeline consumes.
type Result struct {
	Ports    []int
	Services []models.Service
	OS       string
	Org      string
	ISP      string
}

// Client looks up host exposure data, caching per IP. The cache belongs to
// the Client, so every scan that uses the same Client shares it; entries
// expire after the ttl given to New and are not cleared between scans. A
// missing API key degrades to an always-empty result.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	cache      *cache.TTL[Result]
}

func New(apiKey string, ttl time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		apiKey:     apiKey,
		baseURL:    shodanBaseURL,
		cache:      cache.New[Result](ttl),
	}
}

type shodanService struct {
	Port      int    `json:"port"`
	Transport string `json:"transport"`
	Product   string `json:"product"`
	Version   string `json:"version"`
}

type shodanHostResponse struct {
	Ports  []int           `json:"ports"`
	Data   []shodanService `json:"data"`
	OS     string          `json:"os"`
	Org    string          `json:"org"`
	ISP    string          `json:"isp"`
}

// Lookup fetches exposure data for ip. A missing API key, rate-limit,
// not-found response, or transport error all return (and cache) the empty
// Result rather than propagating an error, since this is an untrusted
// external collaborator the pipeline must tolerate.
func (c *Client) Lookup(ctx context.Context, ip string) Result {
	if cached, ok := c.cache.Get(ip); ok {
		return cached
	}

	result := c.fetch(ctx, ip)
	c.cache.Set(ip, result)
	return result
}

func (c *Client) fetch(ctx context.Context, ip string) Result {
	if c.apiKey == "" {
		return Result{}
	}

	url := fmt.Sprintf("%s/shodan/host/%s?key=%s", c.baseURL, ip, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusTooManyRequests {
		return Result{}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}
	}

	var parsed shodanHostResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}
	}

	return project(parsed)
}

// project keeps the first service record per distinct port, carrying
// forward product/version/transport, matching §4.3's per-port dedup rule.
func project(resp shodanHostResponse) Result {
	seenPorts := map[int]bool{}
	var services []models.Service

	for _, svc := range resp.Data {
		if seenPorts[svc.Port] {
			continue
		}
		seenPorts[svc.Port] = true

		service := models.Service{Port: svc.Port}
		if svc.Product != "" {
			product := svc.Product
			service.Product = &product
		}
		if svc.Version != "" {
			version := svc.Version
			service.Version = &version
		}
		if svc.Transport != "" {
			transport := svc.Transport
			service.Transport = &transport
		}
		services = append(services, service)
	}

	ports := append([]int(nil), resp.Ports...)
	sort.Ints(ports)

	return Result{
		Ports:    ports,
		Services: services,
		OS:       resp.OS,
		Org:      resp.Org,
		ISP:      resp.ISP,
	}
}
