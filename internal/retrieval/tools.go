// ABOUTME: Exposes retrieval lookups as reasoning-loop tools
// ABOUTME: "Web Search" and "Document Search" with their model-facing descriptions

package retrieval

import (
	"context"

	"github.com/2389/relay-gateway/internal/agent"
)

// Tool names as presented to the model.
const (
	WebSearchTool      = "Web Search"
	DocumentSearchTool = "Document Search"
)

// Tools returns the enabled retrieval tools, web first.
func (c *Coordinator) Tools(useWeb, useDocs bool) []agent.Tool {
	var tools []agent.Tool
	if useWeb {
		tools = append(tools, agent.Tool{
			Name:        WebSearchTool,
			Description: "Useful for finding current information from the web.",
			Run: func(ctx context.Context, input string) string {
				return c.WebSearch(ctx, input, 0)
			},
		})
	}
	if useDocs {
		tools = append(tools, agent.Tool{
			Name:        DocumentSearchTool,
			Description: "Useful for searching information from the knowledge base.",
			Run: func(ctx context.Context, input string) string {
				return c.DocumentSearch(ctx, input)
			},
		})
	}
	return tools
}
