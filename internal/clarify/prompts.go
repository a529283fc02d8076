package clarify

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/planr/internal/generation"
	"github.com/ShayCichocki/planr/pkg/models"
)

// Output limits for the two prompt shapes.
const (
	questionsMaxTokens = 2000
	summaryMaxTokens   = 3000
)

// questionsPrompt asks for 3-5 clarifying questions as a JSON array.
const questionsPrompt = `You are a technical product manager analyzing a development task.

Task Title: %s
Task Description: %s

Analyze this task and generate 3-5 clarifying questions to ensure clear requirements.

Focus areas:
1. Technical implementation details (frameworks, libraries, architecture)
2. User experience requirements (UI/UX, workflows)
3. Performance and scalability (response time, concurrent users)
4. Security considerations (authentication, authorization, data protection)
5. Dependencies and integrations (APIs, databases, services)

` + generation.QuestionsMarker + ` with this format (no other text):
[
  {
    "id": "q1",
    "question": "Question text",
    "category": "authentication|security|features|performance|ui|integration|other",
    "required": true,
    "suggested_answers": ["Option 1", "Option 2"]
  }
]

Only ask questions where the answer is not already clear from the title/description.
Prioritize the most impactful questions. Every "id" must be unique.
`

// summaryPrompt turns the Q&A transcript into a requirements document.
const summaryPrompt = `You are a technical writer. ` + generation.SummaryMarker + `.

Original Task:
Title: %s
Description: %s

` + generation.QAMarker + `
%s

Create a comprehensive requirements document with:
1. Summary of agreed requirements
2. Technical implementation details
3. User experience specifications
4. Performance/security requirements

Format in Markdown. Use ✅ checkmarks for confirmed items.
`

func buildQuestionsPrompt(task *models.Task) string {
	return fmt.Sprintf(questionsPrompt, task.Title, task.Description)
}

func buildSummaryPrompt(task *models.Task, answers []models.Answer) string {
	pairs := make([]string, 0, len(answers))
	for _, a := range answers {
		pairs = append(pairs, fmt.Sprintf("Q: %s\nA: %s", a.QuestionText, a.Text))
	}
	return fmt.Sprintf(summaryPrompt, task.Title, task.Description, strings.Join(pairs, "\n\n"))
}
