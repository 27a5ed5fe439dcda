// ABOUTME: index command that builds the document search index
// ABOUTME: Optionally keeps watching the directory and reindexing on change

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/relay-gateway/internal/docindex"
)

func newIndexCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Index text and markdown documents for document search",
		Long: `Index every .txt, .md and .markdown file under dir (default documents.dir).
Unchanged files are skipped; files that disappeared are removed from the index.
An empty directory is seeded with a sample document.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Logging)

			dir := cfg.Documents.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no documents directory: pass one or set documents.dir")
			}

			idx, err := docindex.Open(cfg.Documents.IndexPath)
			if err != nil {
				return err
			}
			defer idx.Close()

			res, err := idx.IndexDir(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("indexing %s: %w", dir, err)
			}
			printIndexResult(dir, cfg.Documents.IndexPath, res)

			if !watch {
				return nil
			}
			logger.Info("watching for changes, press Ctrl+C to stop", "dir", dir)
			return idx.Watch(cmd.Context(), dir, func(res docindex.IndexResult) {
				printIndexResult(dir, cfg.Documents.IndexPath, res)
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and reindex when files change")
	return cmd
}

func printIndexResult(dir, indexPath string, res docindex.IndexResult) {
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	green.Print("✓ ")
	fmt.Printf("Indexed %s into %s\n", dir, indexPath)
	gray.Printf("  %d indexed, %d unchanged, %d removed, %d failed, %d chunks written\n",
		res.Indexed, res.Unchanged, res.Removed, res.Failed, res.Chunks)
}
