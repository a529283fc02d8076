package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/planr/internal/clarify"
	"github.com/ShayCichocki/planr/pkg/models"
)

type fakeSaver struct {
	calls    [][]models.AnswerInput
	err      error
	complete func(saved int) bool
}

func (f *fakeSaver) SaveAnswers(_ context.Context, _ string, inputs []models.AnswerInput) (*clarify.SaveResult, error) {
	f.calls = append(f.calls, inputs)
	if f.err != nil {
		return nil, f.err
	}
	res := &clarify.SaveResult{Saved: len(inputs)}
	if f.complete != nil && f.complete(len(f.calls)) {
		res.Complete = true
		res.Summary = "## Requirements Summary"
	}
	return res, nil
}

func testPlan() *clarify.PlanState {
	return &clarify.PlanState{
		TaskID: "t1",
		Status: models.TaskStatusPlanning,
		Questions: []models.Question{
			{Key: "q1", Text: "Which features?", Category: models.CategoryFeatures, Required: true,
				SuggestedAnswers: []string{"Core only", "Everything"}},
			{Key: "q2", Text: "Any UI?", Category: models.CategoryUI},
			{Key: "q3", Text: "Which provider?", Category: models.CategoryAuthentication, Required: true},
		},
	}
}

// submit types an answer, presses enter and feeds the resulting messages back.
func submit(t *testing.T, q *Questionnaire, text string) tea.Cmd {
	t.Helper()
	q.input.SetValue(text)
	_, cmd := q.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	_, cmd = q.Update(cmd())
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	_, cmd = q.Update(cmd())
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestQuestionnaire_StartsAtFirstRequiredUnanswered(t *testing.T) {
	plan := testPlan()
	plan.Answers = []models.Answer{{QuestionKey: "q1", Text: "Core only"}}

	q := NewQuestionnaire(context.Background(), "Add login", plan, &fakeSaver{})

	if got := q.questions[q.index].Key; got != "q3" {
		t.Errorf("started at %s, want q3", got)
	}
}

func TestQuestionnaire_SavesAndAdvances(t *testing.T) {
	saver := &fakeSaver{}
	q := NewQuestionnaire(context.Background(), "Add login", testPlan(), saver)

	cmd := submit(t, q, "Core only")
	if isQuit(cmd) {
		t.Fatal("should not quit before completion")
	}

	if len(saver.calls) != 1 || saver.calls[0][0] != (models.AnswerInput{QuestionKey: "q1", Text: "Core only"}) {
		t.Errorf("unexpected save calls: %+v", saver.calls)
	}
	if got := q.questions[q.index].Key; got != "q2" {
		t.Errorf("advanced to %s, want q2", got)
	}
	if !strings.Contains(q.View(), "1 of 3 answered") {
		t.Errorf("progress missing from view:\n%s", q.View())
	}
}

func TestQuestionnaire_QuitsWhenComplete(t *testing.T) {
	saver := &fakeSaver{complete: func(n int) bool { return n == 2 }}
	q := NewQuestionnaire(context.Background(), "Add login", testPlan(), saver)

	submit(t, q, "Core only")
	q.move(1) // skip the optional question
	cmd := submit(t, q, "Google")

	if !isQuit(cmd) {
		t.Fatal("expected the program to quit on completion")
	}
	if !q.Completed() || q.Aborted() {
		t.Error("expected a completed, non-aborted session")
	}
	if q.Result() == nil || q.Result().Summary == "" {
		t.Error("expected the summary in the result")
	}
	if !strings.Contains(q.View(), "Requirements Summary") {
		t.Errorf("summary missing from view:\n%s", q.View())
	}
}

func TestQuestionnaire_SaveErrorStaysOnQuestion(t *testing.T) {
	saver := &fakeSaver{err: errors.New("database is locked")}
	q := NewQuestionnaire(context.Background(), "Add login", testPlan(), saver)

	submit(t, q, "Core only")

	if q.Err() == nil {
		t.Fatal("expected the save error to be kept")
	}
	if got := q.questions[q.index].Key; got != "q1" {
		t.Errorf("moved to %s after a failed save", got)
	}
	if _, ok := q.answers["q1"]; ok {
		t.Error("failed answer should not be recorded")
	}
	if !strings.Contains(q.View(), "database is locked") {
		t.Error("error should be rendered")
	}
}

func TestQuestionnaire_Navigation(t *testing.T) {
	q := NewQuestionnaire(context.Background(), "Add login", testPlan(), &fakeSaver{})

	q.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := q.questions[q.index].Key; got != "q3" {
		t.Errorf("shift+tab from q1 went to %s, want q3", got)
	}
	q.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := q.questions[q.index].Key; got != "q1" {
		t.Errorf("tab from q3 went to %s, want q1", got)
	}
}

func TestQuestionnaire_CycleSuggestions(t *testing.T) {
	q := NewQuestionnaire(context.Background(), "Add login", testPlan(), &fakeSaver{})

	q.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if q.input.Value() != "Core only" {
		t.Errorf("first suggestion = %q", q.input.Value())
	}
	q.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	q.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if q.input.Value() != "Core only" {
		t.Errorf("suggestions should wrap, got %q", q.input.Value())
	}
}

func TestQuestionnaire_Abort(t *testing.T) {
	q := NewQuestionnaire(context.Background(), "Add login", testPlan(), &fakeSaver{})

	_, cmd := q.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !isQuit(cmd) {
		t.Fatal("esc should quit")
	}
	if !q.Aborted() {
		t.Error("expected an aborted session")
	}
}

func TestQuestionnaire_NoQuestions(t *testing.T) {
	q := NewQuestionnaire(context.Background(), "Add login", &clarify.PlanState{TaskID: "t1"}, &fakeSaver{})

	if !isQuit(q.Init()) {
		t.Error("Init should quit when there is nothing to answer")
	}
	if !strings.Contains(q.View(), "No clarification questions") {
		t.Errorf("unexpected view:\n%s", q.View())
	}
}

func TestQuestionnaire_WindowResize(t *testing.T) {
	q := NewQuestionnaire(context.Background(), "Add login", testPlan(), &fakeSaver{})

	q.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if q.width != 100 || q.input.width != 100 {
		t.Errorf("resize not applied: %d/%d", q.width, q.input.width)
	}
}
