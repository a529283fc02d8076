package clarify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/planr/pkg/models"
)

// generatedQuestion is the wire shape requested by the questions prompt.
type generatedQuestion struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	Category         string   `json:"category"`
	Required         bool     `json:"required"`
	SuggestedAnswers []string `json:"suggested_answers"`
}

// ParseQuestions extracts the question list from a generation response.
// The JSON array may be surrounded by prose. Malformed output and entries
// without a unique key or text fail with ErrInvalidResponse; an empty list
// fails with ErrNoQuestions. Unknown categories map to other.
func ParseQuestions(taskID, response string) ([]models.Question, error) {
	jsonStart := strings.Index(response, "[")
	jsonEnd := strings.LastIndex(response, "]")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("%w: no JSON array found in response (got %d chars): %q",
			ErrInvalidResponse, len(response), preview(response))
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &generated); err != nil {
		return nil, fmt.Errorf("%w: unmarshal JSON: %v", ErrInvalidResponse, err)
	}

	if len(generated) == 0 {
		return nil, ErrNoQuestions
	}

	seen := make(map[string]bool, len(generated))
	questions := make([]models.Question, 0, len(generated))
	for i, g := range generated {
		key := strings.TrimSpace(g.ID)
		if key == "" {
			return nil, fmt.Errorf("%w: question %d has no id", ErrInvalidResponse, i)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrInvalidResponse, key)
		}
		seen[key] = true

		text := strings.TrimSpace(g.Question)
		if text == "" {
			return nil, fmt.Errorf("%w: question %q has no text", ErrInvalidResponse, key)
		}

		questions = append(questions, models.Question{
			TaskID:           taskID,
			Key:              key,
			Text:             text,
			Category:         models.ParseCategory(g.Category),
			Required:         g.Required,
			SuggestedAnswers: g.SuggestedAnswers,
		})
	}
	return questions, nil
}

func preview(s string) string {
	if len(s) > 500 {
		return s[:500] + "... (truncated)"
	}
	return s
}
