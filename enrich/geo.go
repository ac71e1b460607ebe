// Package enrich provides optional geo/IP intelligence for alert
// presentation. Enrichment is strictly best-effort: lookup failures,
// timeouts, and rate limiting all degrade to "Unknown" values and must
// never block or fail detection.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"argus/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// GeoDetails describes what is known about a source IP's location and
// ownership.
type GeoDetails struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
	Org     string `json:"org"`
	ASN     string `json:"asn"`
	Hosting bool   `json:"hosting"`
	Proxy   bool   `json:"proxy"`
}

// unknownDetails is the degraded result for failed or skipped lookups.
func unknownDetails(ip string) *GeoDetails {
	return &GeoDetails{
		IP:      ip,
		Country: "Unknown",
		Region:  "Unknown",
		City:    "Unknown",
		ISP:     "Unknown",
		Org:     "Unknown",
		ASN:     "Unknown",
	}
}

// Oracle is the enrichment lookup interface the pipeline consumes.
type Oracle interface {
	// Lookup never fails detection: implementations return degraded
	// "Unknown" details rather than propagating transport errors.
	Lookup(ctx context.Context, ip string) *GeoDetails
}

// IPAPIClient resolves geo details via the ip-api.com JSON endpoint,
// with an LRU cache and an outbound rate limit. The public endpoint
// allows 45 requests per minute; the limiter keeps us under it.
type IPAPIClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, *GeoDetails]
	logger  *zap.SugaredLogger
}

// NewIPAPIClient creates a rate-limited, caching geo lookup client.
func NewIPAPIClient(baseURL string, timeout time.Duration, requestsPerSecond float64, cacheSize int, logger *zap.SugaredLogger) (*IPAPIClient, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, *GeoDetails](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment cache: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}

	return &IPAPIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		cache:   cache,
		logger:  logger,
	}, nil
}

// ipAPIResponse mirrors the ip-api.com JSON payload.
type ipAPIResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	ISP        string `json:"isp"`
	Org        string `json:"org"`
	AS         string `json:"as"`
	Hosting    bool   `json:"hosting"`
	Proxy      bool   `json:"proxy"`
}

// Lookup resolves geo details for an IP, consulting the cache first.
// Private and unparsable addresses short-circuit without a network call.
func (c *IPAPIClient) Lookup(ctx context.Context, ip string) *GeoDetails {
	if details, ok := c.cache.Get(ip); ok {
		metrics.EnrichmentLookups.WithLabelValues("cache_hit").Inc()
		return details
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		metrics.EnrichmentLookups.WithLabelValues("skipped").Inc()
		return unknownDetails(ip)
	}
	if parsed.IsPrivate() || parsed.IsLoopback() {
		metrics.EnrichmentLookups.WithLabelValues("private").Inc()
		details := unknownDetails(ip)
		details.Country = "Private network"
		c.cache.Add(ip, details)
		return details
	}

	// Degrade instead of waiting when the rate limit is exhausted.
	if !c.limiter.Allow() {
		metrics.EnrichmentLookups.WithLabelValues("rate_limited").Inc()
		return unknownDetails(ip)
	}

	details, err := c.fetch(ctx, ip)
	if err != nil {
		c.logger.Warnw("geo lookup failed", "ip", ip, "error", err)
		metrics.EnrichmentLookups.WithLabelValues("error").Inc()
		return unknownDetails(ip)
	}

	metrics.EnrichmentLookups.WithLabelValues("ok").Inc()
	c.cache.Add(ip, details)
	return details
}

func (c *IPAPIClient) fetch(ctx context.Context, ip string) (*GeoDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, ip), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("lookup status %q", payload.Status)
	}

	return &GeoDetails{
		IP:      ip,
		Country: valueOrUnknown(payload.Country),
		Region:  valueOrUnknown(payload.RegionName),
		City:    valueOrUnknown(payload.City),
		ISP:     valueOrUnknown(payload.ISP),
		Org:     valueOrUnknown(payload.Org),
		ASN:     valueOrUnknown(payload.AS),
		Hosting: payload.Hosting,
		Proxy:   payload.Proxy,
	}, nil
}

func valueOrUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

// NoopOracle returns degraded details for every lookup. Used when
// enrichment is disabled.
type NoopOracle struct{}

// Lookup implements Oracle.
func (NoopOracle) Lookup(_ context.Context, ip string) *GeoDetails {
	return unknownDetails(ip)
}
