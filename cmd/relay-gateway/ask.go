// ABOUTME: ask command that sends one query to a running gateway
// ABOUTME: Reads the SSE response and prints tokens as they stream in

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/relay-gateway/internal/stream"
)

type askOptions struct {
	addr     string
	provider string
	model    string
	web      bool
	noDocs   bool
	verbose  bool
}

func newAskCmd() *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask a running gateway a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.addr == "" {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				opts.addr = cfg.Server.HTTPAddr
			}
			return runAsk(cmd, strings.Join(args, " "), opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "gateway HTTP address (default server.http_addr)")
	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "provider ID (default: gateway default)")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model ID (default: provider default)")
	cmd.Flags().BoolVar(&opts.web, "web", false, "allow web search")
	cmd.Flags().BoolVar(&opts.noDocs, "no-docs", false, "disable document search")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print request metadata when done")
	return cmd
}

func runAsk(cmd *cobra.Command, query string, opts askOptions) error {
	useDocs := !opts.noDocs
	body, err := json.Marshal(map[string]any{
		"query":    query,
		"provider": opts.provider,
		"model":    opts.model,
		"use_web":  opts.web,
		"use_docs": useDocs,
	})
	if err != nil {
		return err
	}

	url := opts.addr
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url+"/api/chat/query", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return printEvents(resp.Body, cmd.OutOrStdout(), opts.verbose)
}

// printEvents renders SSE events until the terminal event.
func printEvents(r io.Reader, out io.Writer, verbose bool) error {
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)
	red := color.New(color.FgRed)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev stream.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return fmt.Errorf("decoding event: %w", err)
		}

		switch ev.Type {
		case stream.TypeStream:
			if ev.Degraded {
				red.Fprint(out, ev.Content)
			} else {
				fmt.Fprint(out, ev.Content)
			}
		case stream.TypeNotice:
			yellow.Fprintf(os.Stderr, "[%s] %s\n", ev.Level, ev.Content)
		case stream.TypeDone:
			fmt.Fprintln(out)
			if verbose {
				gray.Fprintf(os.Stderr, "provider=%v model=%v mode=%v rounds=%v elapsed_ms=%v\n",
					ev.Metadata["provider"], ev.Metadata["model"], ev.Metadata["mode"],
					ev.Metadata["rounds"], ev.Metadata["elapsed_ms"])
			}
			return nil
		case stream.TypeError:
			fmt.Fprintln(out)
			return fmt.Errorf("%s", ev.Content)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return fmt.Errorf("stream ended without a done event")
}
