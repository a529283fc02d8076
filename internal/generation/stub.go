package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt markers shared by the prompt builders and the stub backend.
const (
	QuestionsMarker = "Return a JSON array"
	SummaryMarker   = "Summarize these task clarifications into clear requirements"
	QAMarker        = "Clarification Q&A:"
)

// Stub is a deterministic offline backend. It recognises the question and
// summary prompts by their markers and fails on anything else.
type Stub struct{}

// NewStub creates a stub backend.
func NewStub() *Stub {
	return &Stub{}
}

type stubQuestion struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Category         string   `json:"category"`
	Required         bool     `json:"required"`
	SuggestedAnswers []string `json:"suggested_answers"`
}

// Invoke implements Capability.
func (s *Stub) Invoke(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Failed("stub: %v", err)
	}

	switch {
	case strings.Contains(req.Prompt, QuestionsMarker):
		return s.questions(req.Prompt)
	case strings.Contains(req.Prompt, SummaryMarker):
		return s.summary(req.Prompt), nil
	default:
		return "", Failed("stub cannot interpret the provided prompt")
	}
}

func (s *Stub) questions(prompt string) (string, error) {
	title := promptField(prompt, "Task Title:")
	description := promptField(prompt, "Task Description:")

	featureQ := "Describe the core flow of the main feature to be built."
	if title != "" {
		featureQ = fmt.Sprintf("What is the core user flow for '%s'?", title)
	}
	uiQ := "What should the user see once the work is done?"
	if description != "" {
		uiQ = fmt.Sprintf("Which UI/UX constraints matter in the described scenario? (%s)", description)
	}

	out, err := json.Marshal([]stubQuestion{
		{
			ID:               "q1",
			Question:         featureQ,
			Category:         "features",
			Required:         true,
			SuggestedAnswers: []string{"Happy-path details", "Edge cases", "Other"},
		},
		{
			ID:               "q2",
			Question:         uiQ,
			Category:         "ui",
			Required:         false,
			SuggestedAnswers: []string{"Desktop", "Mobile", "Responsive"},
		},
		{
			ID:               "q3",
			Question:         "If external services or APIs are involved, what data flows between them?",
			Category:         "integration",
			Required:         false,
			SuggestedAnswers: []string{"Internal API", "Third party", "Not needed"},
		},
	})
	if err != nil {
		return "", Failed("stub: encode questions: %v", err)
	}
	return string(out), nil
}

func (s *Stub) summary(prompt string) string {
	title := promptField(prompt, "Title:")
	description := promptField(prompt, "Description:")

	qa := "(no questions or answers)"
	if _, after, ok := strings.Cut(prompt, QAMarker); ok {
		// The transcript ends where the prompt's instructions begin.
		section, _, _ := strings.Cut(after, "\n\nCreate ")
		if trimmed := strings.TrimSpace(section); trimmed != "" {
			qa = trimmed
		}
	}

	var sb strings.Builder
	sb.WriteString("## Requirements Summary\n")
	fmt.Fprintf(&sb, "✅ Task: %s\n\n", title)
	sb.WriteString("### Goal\n")
	fmt.Fprintf(&sb, "- %s\n\n", description)
	sb.WriteString("### Clarification\n")
	sb.WriteString(qa)
	sb.WriteString("\n\nThis summary was produced by the offline stub backend.")
	return sb.String()
}

// promptField returns the trimmed remainder of the first line starting with marker.
func promptField(prompt, marker string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
