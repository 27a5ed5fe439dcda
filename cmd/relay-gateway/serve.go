// ABOUTME: serve command that starts the HTTP, WebSocket and gRPC servers
// ABOUTME: Prints the startup banner and the providers that have API keys

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/relay-gateway/internal/config"
	"github.com/2389/relay-gateway/internal/gateway"
	"github.com/2389/relay-gateway/internal/provider"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			printStartup(cfg, path)

			logger := setupLogger(cfg.Logging)
			logger.Info("starting relay-gateway",
				"config", path,
				"grpc_addr", cfg.Server.GRPCAddr,
				"http_addr", cfg.Server.HTTPAddr,
			)

			configured := keyedProviders(cfg)
			if len(configured) == 0 {
				logger.Warn("no provider API keys configured; queries will fail until one is set")
			}
			logger.Info("API keys configured for: " + strings.Join(orNone(configured), ", "))

			gw, err := gateway.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating gateway: %w", err)
			}
			return gw.Run(cmd.Context())
		},
	}
}

func printStartup(cfg *config.Config, path string) {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", path)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	if cfg.Server.GRPCAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("gRPC:      %s\n", cfg.Server.GRPCAddr)
	}
	green.Print("    ▶ ")
	fmt.Printf("Default:   %s\n", provider.ID(cfg.DefaultProvider).DisplayName())
	if cfg.Documents.Dir != "" {
		green.Print("    ▶ ")
		fmt.Printf("Documents: %s", cfg.Documents.Dir)
		if cfg.Documents.Watch {
			gray.Print(" (watching)")
		}
		fmt.Println()
	}

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()
}

// keyedProviders returns display names of providers with an API key.
func keyedProviders(cfg *config.Config) []string {
	pcs := cfg.ProviderConfigs()
	var names []string
	for _, id := range provider.AllIDs {
		if pcs[id].APIKey != "" {
			names = append(names, id.DisplayName())
		}
	}
	return names
}

func orNone(names []string) []string {
	if len(names) == 0 {
		return []string{"None"}
	}
	return names
}
