package llm

import (
	"strings"

	"github.com/studyowl/studyowl/internal/core"
)

// systemWithContext folds the retrieved chunks into the system prompt so the
// model answers from the knowledge base rather than from memory.
func systemWithContext(req *core.GenerationRequest) string {
	if len(req.Context) == 0 {
		return req.SystemPrompt
	}
	var b strings.Builder
	b.WriteString(req.SystemPrompt)
	b.WriteString("\n\nAnswer using the following course material excerpts:\n")
	for _, chunk := range req.Context {
		b.WriteString("\n---\n")
		b.WriteString(chunk)
	}
	return b.String()
}
