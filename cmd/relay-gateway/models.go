// ABOUTME: models command listing the provider model catalog
// ABOUTME: Marks each provider's default model and whether an API key is configured

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/relay-gateway/internal/provider"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available providers and models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}
			pcs := cfg.ProviderConfigs()

			cyan := color.New(color.FgCyan, color.Bold)
			gray := color.New(color.FgHiBlack)
			green := color.New(color.FgGreen)
			yellow := color.New(color.FgYellow)

			for _, id := range provider.AllIDs {
				pc := pcs[id]
				cyan.Printf("%s", id.DisplayName())
				gray.Printf(" (%s)", id)
				if pc.APIKey != "" {
					green.Print("  key configured")
				} else {
					yellow.Print("  no key")
				}
				if string(id) == cfg.DefaultProvider {
					fmt.Print("  [default]")
				}
				fmt.Println()

				for _, m := range cat.Models(string(id)) {
					marker := "  "
					if m.ID == pc.DefaultModel {
						marker = "* "
					}
					fmt.Printf("  %s%-45s %s\n", marker, m.ID, m.Name)
					if m.Description != "" {
						gray.Printf("      %s\n", m.Description)
					}
				}
				fmt.Println()
			}
			return nil
		},
	}
}
