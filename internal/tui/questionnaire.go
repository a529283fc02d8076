package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/planr/internal/clarify"
	"github.com/ShayCichocki/planr/pkg/models"
)

// AnswerSaver persists answers. *clarify.Service implements it.
type AnswerSaver interface {
	SaveAnswers(ctx context.Context, taskID string, inputs []models.AnswerInput) (*clarify.SaveResult, error)
}

// answerSavedMsg reports the outcome of one save.
type answerSavedMsg struct {
	input  models.AnswerInput
	result *clarify.SaveResult
	err    error
}

// Questionnaire is the bubbletea model for answering a plan's questions.
type Questionnaire struct {
	ctx     context.Context
	saver   AnswerSaver
	taskID  string
	title   string
	width   int
	saving  bool
	done    bool
	aborted bool

	questions []models.Question
	answers   map[string]string
	index     int
	suggest   int

	input  *InputField
	status string
	err    error
	result *clarify.SaveResult

	titleStyle    lipgloss.Style
	headerStyle   lipgloss.Style
	questionStyle lipgloss.Style
	requiredStyle lipgloss.Style
	optionalStyle lipgloss.Style
	answeredStyle lipgloss.Style
	suggestStyle  lipgloss.Style
	errorStyle    lipgloss.Style
	helpStyle     lipgloss.Style
	summaryStyle  lipgloss.Style
}

// NewQuestionnaire builds a questionnaire over a task's plan state.
func NewQuestionnaire(ctx context.Context, title string, plan *clarify.PlanState, saver AnswerSaver) *Questionnaire {
	q := &Questionnaire{
		ctx:       ctx,
		saver:     saver,
		taskID:    plan.TaskID,
		title:     title,
		width:     80,
		questions: plan.Questions,
		answers:   make(map[string]string, len(plan.Answers)),
		input:     NewInputField(),

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")),
		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		questionStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),
		requiredStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange
		optionalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		answeredStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")), // Green
		suggestStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		summaryStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("34")).
			Padding(0, 1),
	}
	for _, a := range plan.Answers {
		q.answers[a.QuestionKey] = a.Text
	}
	if plan.Complete && plan.Summary != "" {
		q.result = &clarify.SaveResult{Complete: true, Summary: plan.Summary}
	}
	q.index = q.firstUnanswered()
	q.bind()
	return q
}

// Init implements tea.Model.
func (q *Questionnaire) Init() tea.Cmd {
	if len(q.questions) == 0 {
		return tea.Quit
	}
	return q.input.Focus()
}

// Update implements tea.Model.
func (q *Questionnaire) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		q.width = msg.Width
		q.input.SetWidth(msg.Width)
		return q, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			q.aborted = true
			return q, tea.Quit
		case "tab", "down":
			q.move(1)
			return q, nil
		case "shift+tab", "up":
			q.move(-1)
			return q, nil
		case "ctrl+f":
			q.cycleSuggestion()
			return q, nil
		}
		if q.saving {
			return q, nil
		}

	case AnswerSubmittedMsg:
		q.saving = true
		q.status = "saving..."
		return q, q.save(models.AnswerInput{QuestionKey: msg.QuestionKey, Text: msg.Text})

	case answerSavedMsg:
		return q.handleSaved(msg)
	}

	var cmd tea.Cmd
	q.input, cmd = q.input.Update(msg)
	return q, cmd
}

func (q *Questionnaire) save(in models.AnswerInput) tea.Cmd {
	ctx, saver, taskID := q.ctx, q.saver, q.taskID
	return func() tea.Msg {
		res, err := saver.SaveAnswers(ctx, taskID, []models.AnswerInput{in})
		return answerSavedMsg{input: in, result: res, err: err}
	}
}

func (q *Questionnaire) handleSaved(msg answerSavedMsg) (tea.Model, tea.Cmd) {
	q.saving = false
	if msg.err != nil {
		q.err = msg.err
		q.status = ""
		return q, nil
	}

	q.err = nil
	q.answers[msg.input.QuestionKey] = msg.input.Text
	q.result = msg.result
	if msg.result != nil && msg.result.Complete {
		q.done = true
		q.status = "plan complete"
		return q, tea.Quit
	}

	q.status = fmt.Sprintf("saved %s", msg.input.QuestionKey)
	if next := q.nextUnanswered(); next >= 0 {
		q.index = next
		q.bind()
	}
	return q, nil
}

func (q *Questionnaire) move(delta int) {
	if len(q.questions) == 0 {
		return
	}
	q.index = (q.index + delta + len(q.questions)) % len(q.questions)
	q.bind()
}

func (q *Questionnaire) bind() {
	q.suggest = -1
	if q.index < len(q.questions) {
		key := q.questions[q.index].Key
		q.input.Bind(key, q.answers[key])
	}
}

func (q *Questionnaire) cycleSuggestion() {
	if q.index >= len(q.questions) {
		return
	}
	suggestions := q.questions[q.index].SuggestedAnswers
	if len(suggestions) == 0 {
		return
	}
	q.suggest = (q.suggest + 1) % len(suggestions)
	q.input.SetValue(suggestions[q.suggest])
}

// firstUnanswered prefers required questions, then optional ones, then the first question.
func (q *Questionnaire) firstUnanswered() int {
	optional := -1
	for i, question := range q.questions {
		if _, ok := q.answers[question.Key]; ok {
			continue
		}
		if question.Required {
			return i
		}
		if optional < 0 {
			optional = i
		}
	}
	if optional >= 0 {
		return optional
	}
	return 0
}

// nextUnanswered searches forward from the current question, wrapping around.
func (q *Questionnaire) nextUnanswered() int {
	n := len(q.questions)
	for step := 1; step <= n; step++ {
		i := (q.index + step) % n
		if _, ok := q.answers[q.questions[i].Key]; !ok {
			return i
		}
	}
	return -1
}

// View implements tea.Model.
func (q *Questionnaire) View() string {
	var b strings.Builder

	b.WriteString(q.titleStyle.Render("Planning: " + q.title))
	b.WriteString("\n")

	if len(q.questions) == 0 {
		b.WriteString(q.helpStyle.Render("No clarification questions. Run plan start first."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(q.headerStyle.Render(q.progress()))
	b.WriteString("\n\n")

	if q.done && q.result != nil {
		b.WriteString(q.summaryStyle.Render(q.result.Summary))
		b.WriteString("\n")
		return b.String()
	}

	question := q.questions[q.index]
	tag := q.optionalStyle.Render("[optional]")
	if question.Required {
		tag = q.requiredStyle.Render("[required]")
	}
	fmt.Fprintf(&b, "%s %s %s\n",
		q.headerStyle.Render(fmt.Sprintf("%d/%d", q.index+1, len(q.questions))),
		tag,
		q.headerStyle.Render("("+string(question.Category)+")"))
	b.WriteString(q.questionStyle.Render(question.Text))
	b.WriteString("\n")

	for i, s := range question.SuggestedAnswers {
		marker := "  "
		if i == q.suggest {
			marker = "> "
		}
		b.WriteString(q.suggestStyle.Render(marker + s))
		b.WriteString("\n")
	}

	b.WriteString(q.input.View())
	b.WriteString("\n")

	if q.err != nil {
		b.WriteString(q.errorStyle.Render("error: " + q.err.Error()))
		b.WriteString("\n")
	} else if q.status != "" {
		b.WriteString(q.answeredStyle.Render(q.status))
		b.WriteString("\n")
	}

	b.WriteString(q.helpStyle.Render("enter save • tab/shift+tab move • ctrl+f suggestion • esc quit"))
	return b.String()
}

func (q *Questionnaire) progress() string {
	var answered, required, requiredAnswered int
	for _, question := range q.questions {
		_, ok := q.answers[question.Key]
		if ok {
			answered++
		}
		if question.Required {
			required++
			if ok {
				requiredAnswered++
			}
		}
	}
	return fmt.Sprintf("%d of %d answered, %d of %d required", answered, len(q.questions), requiredAnswered, required)
}

// Result returns the last save result, or nil if nothing was saved.
func (q *Questionnaire) Result() *clarify.SaveResult {
	return q.result
}

// Completed reports whether the plan became complete during the session.
func (q *Questionnaire) Completed() bool {
	return q.done
}

// Aborted reports whether the user quit before completing the plan.
func (q *Questionnaire) Aborted() bool {
	return q.aborted
}

// Err returns the last save error.
func (q *Questionnaire) Err() error {
	return q.err
}

var _ tea.Model = (*Questionnaire)(nil)
