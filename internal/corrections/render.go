package corrections

import (
	"fmt"
	"strings"
)

const NoMatchText = "No relevant administrative corrections found."

// Render formats matches as the text handed to the answering agent.
func Render(cs []Correction) string {
	if len(cs) == 0 {
		return NoMatchText
	}
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, fmt.Sprintf("User Question: %s\nOriginal AI Response: %s\nCorrected AI Response: %s",
			orNA(c.UserQuestion), orNA(c.OriginalResponse), orNA(c.CorrectedResponse)))
	}
	return "Relevant past administrative corrections:\n" + strings.Join(parts, "\n---\n")
}

// RenderError reports a failed lookup so the agent can answer without corrections.
func RenderError(err error) string {
	return fmt.Sprintf("An error occurred while retrieving admin corrections: %v", err)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
