package generation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStub_Questions(t *testing.T) {
	prompt := "Task Title: Add login\nTask Description: OAuth with Google\n\n" + QuestionsMarker + " with this format:"

	out, err := NewStub().Invoke(context.Background(), Request{Prompt: prompt, MaxTokens: 2000})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	var questions []stubQuestion
	if err := json.Unmarshal([]byte(out), &questions); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, out)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}

	want := []struct {
		id       string
		category string
		required bool
	}{
		{"q1", "features", true},
		{"q2", "ui", false},
		{"q3", "integration", false},
	}
	for i, w := range want {
		q := questions[i]
		if q.ID != w.id || q.Category != w.category || q.Required != w.required {
			t.Errorf("question %d = %+v, want id=%s category=%s required=%v", i, q, w.id, w.category, w.required)
		}
		if len(q.SuggestedAnswers) == 0 {
			t.Errorf("question %s has no suggested answers", q.ID)
		}
	}
	if !strings.Contains(questions[0].Question, "Add login") {
		t.Errorf("q1 should mention the title: %q", questions[0].Question)
	}
	if !strings.Contains(questions[1].Question, "OAuth with Google") {
		t.Errorf("q2 should mention the description: %q", questions[1].Question)
	}
}

func TestStub_QuestionsWithoutTitle(t *testing.T) {
	out, err := NewStub().Invoke(context.Background(), Request{Prompt: QuestionsMarker})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "Describe the core flow") {
		t.Errorf("expected generic feature question, got %s", out)
	}
}

func TestStub_Summary(t *testing.T) {
	prompt := SummaryMarker + ".\n\nOriginal Task:\nTitle: Add login\nDescription: OAuth\n\n" +
		QAMarker + "\nQ: Which providers?\nA: Google\n\nCreate a comprehensive requirements document."

	out, err := NewStub().Invoke(context.Background(), Request{Prompt: prompt, MaxTokens: 3000})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	for _, want := range []string{"## Requirements Summary", "Task: Add login", "- OAuth", "Q: Which providers?\nA: Google"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Create a comprehensive") {
		t.Errorf("summary should not echo the instructions:\n%s", out)
	}
}

func TestStub_UnknownPrompt(t *testing.T) {
	_, err := NewStub().Invoke(context.Background(), Request{Prompt: "hello"})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("err = %v, want ErrFailed", err)
	}

	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("err should be *Error, got %T", err)
	}
}

func TestStub_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewStub().Invoke(ctx, Request{Prompt: QuestionsMarker}); !errors.Is(err, ErrFailed) {
		t.Errorf("err = %v, want ErrFailed", err)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		not  error
	}{
		{"unavailable", Unavailable("no key"), ErrUnavailable, ErrFailed},
		{"failed", Failed("status %d", 500), ErrFailed, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
			if errors.Is(tt.err, tt.not) {
				t.Errorf("errors.Is(%v, %v) = true", tt.err, tt.not)
			}
		})
	}
}

func TestFunc(t *testing.T) {
	var got Request
	c := Func(func(_ context.Context, req Request) (string, error) {
		got = req
		return "ok", nil
	})

	out, err := c.Invoke(context.Background(), Request{Prompt: "p", MaxTokens: 7})
	if err != nil || out != "ok" {
		t.Fatalf("Invoke = %q, %v", out, err)
	}
	if got.Prompt != "p" || got.MaxTokens != 7 {
		t.Errorf("request not forwarded: %+v", got)
	}
}
