package models

import (
	"errors"
	"testing"
)

func TestTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   bool
	}{
		{"todo is valid", TaskStatusTodo, true},
		{"planning is valid", TaskStatusPlanning, true},
		{"inprogress is valid", TaskStatusInProgress, true},
		{"inreview is valid", TaskStatusInReview, true},
		{"done is valid", TaskStatusDone, true},
		{"cancelled is valid", TaskStatusCancelled, true},
		{"empty string is invalid", TaskStatus(""), false},
		{"unknown status is invalid", TaskStatus("unknown"), false},
		{"old pending status is invalid", TaskStatus("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("TaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from    TaskStatus
		to      TaskStatus
		wantErr bool
	}{
		{TaskStatusTodo, TaskStatusPlanning, false},
		{TaskStatusPlanning, TaskStatusPlanning, false},
		{TaskStatusPlanning, TaskStatusInProgress, false},
		{TaskStatusTodo, TaskStatusInProgress, true},
		{TaskStatusInProgress, TaskStatusPlanning, true},
		{TaskStatusDone, TaskStatusPlanning, true},
		{TaskStatusCancelled, TaskStatusInProgress, true},
		{TaskStatusInReview, TaskStatusInProgress, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, err := Transition(tt.from, tt.to)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Transition(%s, %s) succeeded, want error", tt.from, tt.to)
				}
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("error %v is not ErrInvalidTransition", err)
				}
				if got != tt.from {
					t.Errorf("status after rejected transition = %s, want %s", got, tt.from)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition(%s, %s) failed: %v", tt.from, tt.to, err)
			}
			if got != tt.to {
				t.Errorf("Transition(%s, %s) = %s", tt.from, tt.to, got)
			}
		})
	}
}

func TestBeginAndFinishPlanning(t *testing.T) {
	s, err := BeginPlanning(TaskStatusTodo)
	if err != nil {
		t.Fatalf("BeginPlanning(todo): %v", err)
	}
	s, err = FinishPlanning(s)
	if err != nil {
		t.Fatalf("FinishPlanning(planning): %v", err)
	}
	if s != TaskStatusInProgress {
		t.Errorf("status = %s, want %s", s, TaskStatusInProgress)
	}

	if _, err := FinishPlanning(TaskStatusTodo); err == nil {
		t.Error("FinishPlanning(todo) should fail")
	}
	var te *TransitionError
	if _, err := BeginPlanning(TaskStatusDone); !errors.As(err, &te) {
		t.Errorf("BeginPlanning(done) error = %v, want *TransitionError", err)
	} else if te.From != TaskStatusDone || te.To != TaskStatusPlanning {
		t.Errorf("TransitionError = %+v", te)
	}
}

func TestTask_Helpers(t *testing.T) {
	var nilTask *Task
	if nilTask.HasSummary() || nilTask.IsShared() {
		t.Error("nil task should report no summary and not shared")
	}

	task := &Task{PlanSummary: "## Summary", SharedTaskID: "share-1"}
	if !task.HasSummary() {
		t.Error("HasSummary() = false, want true")
	}
	if !task.IsShared() {
		t.Error("IsShared() = false, want true")
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want QuestionCategory
	}{
		{"features", CategoryFeatures},
		{"UI", CategoryUI},
		{" security ", CategorySecurity},
		{"authentication", CategoryAuthentication},
		{"performance", CategoryPerformance},
		{"integration", CategoryIntegration},
		{"database", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		if got := ParseCategory(tt.in); got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
