// ABOUTME: Tests for Gateway lifecycle, health endpoints, and the gRPC health service
// ABOUTME: Runs the gateway on real loopback listeners with a scripted provider

package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/2389/relay-gateway/internal/config"
	"github.com/2389/relay-gateway/internal/provider"
	"github.com/2389/relay-gateway/internal/provider/providertest"
	"github.com/2389/relay-gateway/internal/retrieval"
)

// freeAddr returns an available loopback address.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// testConfig creates a minimal config with an OpenAI key and an in-memory index.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.HTTPAddr = freeAddr(t)
	cfg.Server.GRPCAddr = freeAddr(t)
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Documents.Dir = ""
	cfg.Documents.IndexPath = ":memory:"
	cfg.Providers = map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test"},
	}
	return cfg
}

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type noSearch struct{}

func (noSearch) Search(context.Context, string, int) ([]retrieval.Link, error) { return nil, nil }

// newTestGateway builds a gateway whose OpenAI adapter is fake.
func newTestGateway(t *testing.T, cfg *config.Config, fake *providertest.Fake) *Gateway {
	t.Helper()
	gw, err := New(cfg, testLogger(),
		WithSearcher(noSearch{}),
		WithProviderOptions(provider.WithFactory(provider.OpenAI, fake.Factory())),
	)
	require.NoError(t, err)
	return gw
}

func TestGatewayNew(t *testing.T) {
	cfg := testConfig(t)
	gw := newTestGateway(t, cfg, providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	assert.Same(t, cfg, gw.config)
	assert.NotNil(t, gw.registry)
	assert.NotNil(t, gw.retrieval)
	assert.NotNil(t, gw.index)
	assert.NotNil(t, gw.router)
	assert.Equal(t, provider.OpenAI, gw.Registry().Default())
}

func TestGatewayNew_UnknownDefaultProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultProvider = "not-a-provider"

	_, err := New(cfg, testLogger())
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)
}

func runGateway(t *testing.T, gw *Gateway) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- gw.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + gw.config.Server.HTTPAddr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return func() {
		stop()
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("Run() returned unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("gateway did not shutdown in time")
		}
	}
}

func TestGatewayRunAndShutdown(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	stop := runGateway(t, gw)
	stop()

	_, err := http.Get("http://" + gw.config.Server.HTTPAddr + "/health")
	assert.Error(t, err, "HTTP server should be closed")
}

func TestHandleReady(t *testing.T) {
	t.Run("default provider has key", func(t *testing.T) {
		gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
		defer gw.Shutdown(context.Background())

		rec := doRequest(t, gw, http.MethodGet, "/health/ready", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ready (1 providers)")
	})

	t.Run("default provider without key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DefaultProvider = "anthropic"
		gw := newTestGateway(t, cfg, providertest.New(provider.OpenAI, ""))
		defer gw.Shutdown(context.Background())

		rec := doRequest(t, gw, http.MethodGet, "/health/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "anthropic")
	})
}

func TestGRPCHealthService(t *testing.T) {
	cfg := testConfig(t)
	gw := newTestGateway(t, cfg, providertest.New(provider.OpenAI, ""))
	stop := runGateway(t, gw)
	defer stop()

	conn, err := grpc.NewClient(cfg.Server.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		service string
		want    healthpb.HealthCheckResponse_ServingStatus
	}{
		{"", healthpb.HealthCheckResponse_SERVING},
		{ProviderService(provider.OpenAI), healthpb.HealthCheckResponse_SERVING},
		{ProviderService(provider.Anthropic), healthpb.HealthCheckResponse_NOT_SERVING},
	}
	for _, tt := range tests {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: tt.service})
		require.NoError(t, err, "service %q", tt.service)
		assert.Equal(t, tt.want, resp.GetStatus(), "service %q", tt.service)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	gw := newTestGateway(t, testConfig(t), providertest.New(provider.OpenAI, ""))
	defer gw.Shutdown(context.Background())

	rec := doRequest(t, gw, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "relay_")
}

func TestStartDocuments_IndexesDirectory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Documents.Dir = t.TempDir()
	gw := newTestGateway(t, cfg, providertest.New(provider.OpenAI, ""))

	gw.startDocuments(context.Background())
	gw.backgroundWG.Wait()

	chunks, err := gw.index.Search(context.Background(), "knowledge base", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks, "sample document should be indexed")
	require.NoError(t, gw.Shutdown(context.Background()))
}
