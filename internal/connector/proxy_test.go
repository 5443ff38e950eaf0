package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"propfin/ledger-sync/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilProxyReturnsDirectClient(t *testing.T) {
	var p *EgressProxy
	client := p.Client(context.Background())
	require.NotNil(t, client)
	assert.Nil(t, client.Transport)
}

func TestHealthyProxyRoutesThroughIt(t *testing.T) {
	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer status.Close()

	p, err := NewEgressProxy("http://proxy.internal:3128", status.URL, 10*time.Second, logging.NewMockLogger())
	require.NoError(t, err)

	client := p.Client(context.Background())
	require.NotNil(t, client.Transport, "healthy proxy must install a proxied transport")
	assert.Equal(t, 10*time.Second, client.Timeout)
}

func TestUnhealthyProxyFallsBackToDirect(t *testing.T) {
	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer status.Close()

	log := logging.NewMockLogger()
	p, err := NewEgressProxy("http://proxy.internal:3128", status.URL, 10*time.Second, log)
	require.NoError(t, err)

	client := p.Client(context.Background())
	assert.Nil(t, client.Transport, "degraded proxy must fall back to a direct client")
	assert.True(t, log.HasEntry("warn", "Egress proxy inactive, falling back to direct connection"))
}

func TestProxyStatusIsCached(t *testing.T) {
	checks := 0
	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks++
		w.WriteHeader(http.StatusOK)
	}))
	defer status.Close()

	p, err := NewEgressProxy("http://proxy.internal:3128", status.URL, 10*time.Second, logging.NewMockLogger())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		p.Client(context.Background())
	}
	assert.Equal(t, 1, checks, "the status endpoint is consulted at most once per interval")
}

func TestProxyWithoutStatusURLAssumesUp(t *testing.T) {
	p, err := NewEgressProxy("http://proxy.internal:3128", "", 10*time.Second, logging.NewMockLogger())
	require.NoError(t, err)

	client := p.Client(context.Background())
	assert.NotNil(t, client.Transport)
}
