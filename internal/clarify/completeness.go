package clarify

import "github.com/ShayCichocki/planr/pkg/models"

// IsComplete applies the completeness gate to a task's stored questions and
// answers. With at least one required question, every required key must be
// answered; otherwise any single answer is enough. Answers whose key matches
// no question count only toward the optional-only rule.
func IsComplete(questions []models.Question, answers []models.Answer) bool {
	if len(questions) == 0 || len(answers) == 0 {
		return false
	}

	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		answered[a.QuestionKey] = true
	}

	hasRequired := false
	for _, q := range questions {
		if !q.Required {
			continue
		}
		hasRequired = true
		if !answered[q.Key] {
			return false
		}
	}

	if hasRequired {
		return true
	}
	return len(answered) > 0
}
