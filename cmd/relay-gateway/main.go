// ABOUTME: Entry point for relay-gateway, the multi-provider LLM chat gateway
// ABOUTME: Cobra commands for serving, indexing documents, and talking to a running gateway

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/relay-gateway/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
          _                                  _
 _ __ ___| | __ _ _   _        __ _  __ _| |_ _____      ____ _ _   _
| '__/ _ \ |/ _' | | | |_____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
| | |  __/ | (_| | |_| |_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
|_|  \___|_|\__,_|\__, |      \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                  |___/       |___/                             |___/
`

// configFlag holds --config for every command.
var configFlag string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "relay-gateway",
		Short:         "Multi-provider LLM gateway with web and document retrieval",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default $RELAY_CONFIG or ~/.config/relay/gateway.yaml)")

	root.AddCommand(
		newServeCmd(),
		newIndexCmd(),
		newModelsCmd(),
		newAskCmd(),
		newHealthCmd(),
	)
	return root
}

// loadConfig loads the config file, falling back to defaults when it does
// not exist.
func loadConfig() (*config.Config, string, error) {
	path := config.Path(configFlag)
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}
