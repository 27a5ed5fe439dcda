// ABOUTME: gRPC health service reporting gateway and per-provider status
// ABOUTME: Providers are SERVING when they have a credential configured

package gateway

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/2389/relay-gateway/internal/provider"
)

// ProviderServicePrefix prefixes per-provider health service names.
const ProviderServicePrefix = "relay.provider."

// ProviderService returns the health service name for id.
func ProviderService(id provider.ID) string {
	return ProviderServicePrefix + string(id)
}

func registerHealthService(server *grpc.Server, registry *provider.Registry) *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, id := range registry.Providers() {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if registry.Ready(id) {
			status = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus(ProviderService(id), status)
	}
	healthpb.RegisterHealthServer(server, hs)
	return hs
}
