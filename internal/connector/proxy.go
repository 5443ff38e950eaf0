package connector

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"propfin/ledger-sync/internal/logging"
)

// proxyRevalidateInterval bounds how often the proxy's status endpoint is
// consulted. Between checks the cached answer is reused.
const proxyRevalidateInterval = time.Hour

// EgressProxy routes connector traffic through a fixed-IP outbound gateway
// so a bank API can allow-list a stable address. Proxy trouble degrades to a
// direct call with a warning; it never blocks a sync.
type EgressProxy struct {
	proxyURL  *url.URL
	statusURL string
	timeout   time.Duration
	logger    logging.Logger

	mu          sync.Mutex
	active      bool
	lastChecked time.Time
}

// NewEgressProxy creates the wrapper. rawURL is the proxy address; statusURL
// is an unauthenticated health endpoint answering 200 when the proxy is up.
func NewEgressProxy(rawURL, statusURL string, timeout time.Duration, logger logging.Logger) (*EgressProxy, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EgressProxy{
		proxyURL:  parsed,
		statusURL: statusURL,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Client returns an HTTP client for connector calls: proxied when the proxy
// is healthy, direct otherwise.
func (p *EgressProxy) Client(ctx context.Context) *http.Client {
	if p == nil {
		return &http.Client{Timeout: 30 * time.Second}
	}

	if p.isActive(ctx) {
		return &http.Client{
			Timeout:   p.timeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(p.proxyURL)},
		}
	}

	p.logger.Warn("Egress proxy inactive, falling back to direct connection",
		logging.F("proxy", p.proxyURL.Host))
	return &http.Client{Timeout: p.timeout}
}

// isActive returns the cached proxy status, revalidating at most once per
// proxyRevalidateInterval.
func (p *EgressProxy) isActive(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.lastChecked) < proxyRevalidateInterval {
		return p.active
	}

	p.active = p.checkStatus(ctx)
	p.lastChecked = time.Now()
	return p.active
}

func (p *EgressProxy) checkStatus(ctx context.Context) bool {
	if p.statusURL == "" {
		// No status endpoint configured: assume up, the per-request timeout
		// still bounds the damage.
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.statusURL, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		p.logger.WithError(err).Warn("Egress proxy status check failed")
		return false
	}
	defer resp.Body.Close() //nolint:errcheck

	return resp.StatusCode == http.StatusOK
}
