// ABOUTME: health command querying the gateway's gRPC health service
// ABOUTME: Prints the overall and per-provider statuses as protobuf JSON

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/2389/relay-gateway/internal/gateway"
	"github.com/2389/relay-gateway/internal/provider"
)

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check gateway health over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				addr = cfg.Server.GRPCAddr
			}
			if addr == "" {
				return fmt.Errorf("no gRPC address: pass --addr or set server.grpc_addr")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runHealth(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gateway gRPC address (default server.grpc_addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "overall timeout")
	return cmd
}

func runHealth(ctx context.Context, addr string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	marshal := protojson.MarshalOptions{UseProtoNames: true}

	overall, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	out, err := marshal.Marshal(overall)
	if err != nil {
		return err
	}
	fmt.Printf("%-28s %s\n", "gateway", out)

	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)
	for _, id := range provider.AllIDs {
		svc := gateway.ProviderService(id)
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			gray.Printf("%-28s %v\n", svc, err)
			continue
		}
		out, err := marshal.Marshal(resp)
		if err != nil {
			return err
		}
		if resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			green.Printf("%-28s %s\n", svc, out)
		} else {
			gray.Printf("%-28s %s\n", svc, out)
		}
	}

	if overall.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("unhealthy: %s", overall.GetStatus())
	}
	return nil
}
