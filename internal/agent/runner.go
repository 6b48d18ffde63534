// Package agent assembles the standup agent: the tool definitions an LLM
// runner can call, grouped into toolsets, plus the instructions for each
// agent role. The runner itself is pluggable; without one the CLI falls
// back to deterministic rendering.
package agent

import (
	"context"

	"github.com/andrewm4894/github-standup-agent/internal/core"
)

// Tool is a single callable exposed to the agent runner. Execute receives
// the run context so tools can accumulate collected data across calls.
type Tool struct {
	Name        string
	Description string
	Execute     func(ctx context.Context, rc *core.RunContext, args map[string]any) (string, error)
}

// Definition describes one agent role: its instructions and the tools it
// may call.
type Definition struct {
	Name         string
	Model        string
	Instructions string
	Tools        []Tool
}

// Runner drives an agent definition to completion and returns the final
// text output. Implementations wrap an LLM provider.
type Runner interface {
	Run(ctx context.Context, def Definition, rc *core.RunContext, input string) (string, error)
}

// FindTool returns the named tool from def, or nil when absent.
func (d *Definition) FindTool(name string) *Tool {
	for i := range d.Tools {
		if d.Tools[i].Name == name {
			return &d.Tools[i]
		}
	}
	return nil
}
