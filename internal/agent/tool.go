// ABOUTME: Tool definition exposed to the reasoning loop
// ABOUTME: A named function the model can call with a single string input

package agent

import (
	"context"
	"strings"
)

// Tool is a capability the model may invoke by name.
type Tool struct {
	Name        string
	Description string
	// Run returns the observation for input. Failures are reported in the
	// returned text, never as a panic.
	Run func(ctx context.Context, input string) string
}

func toolNames(tools []Tool) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func findTool(tools []Tool, name string) (Tool, bool) {
	name = strings.TrimSpace(name)
	for _, t := range tools {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Tool{}, false
}
