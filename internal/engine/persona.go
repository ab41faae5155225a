package engine

import (
	"fmt"
	"strings"

	"github.com/dialogroute/dialogroute/internal/model"
)

// Persona holds the process-wide constant persona fields. The prompt itself
// is a pure function of this struct plus the caller's context; there is no
// mutable global prompt state.
type Persona struct {
	Name    string
	Company string
	Tone    string
}

// maxHistoryLines bounds how much caller history lands in the prompt.
const maxHistoryLines = 5

// BuildPrompt renders the persona system prompt with the caller-supplied
// overlay fields (role, history).
func BuildPrompt(p Persona, ctx model.Context) string {
	name := p.Name
	if name == "" {
		name = "the assistant"
	}
	tone := p.Tone
	if tone == "" {
		tone = "friendly and concise"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s", name)
	if p.Company != "" {
		fmt.Fprintf(&b, ", the %s assistant", p.Company)
	}
	fmt.Fprintf(&b, ". Stay %s and only answer questions within scope.\n", tone)

	if ctx.Role != "" {
		fmt.Fprintf(&b, "The caller's role is %q.\n", ctx.Role)
	}

	if len(ctx.History) > 0 {
		history := ctx.History
		if len(history) > maxHistoryLines {
			history = history[len(history)-maxHistoryLines:]
		}
		b.WriteString("Recent conversation:\n")
		for _, line := range history {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	return b.String()
}
