package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ShayCichocki/planr/internal/clarify"
	"github.com/ShayCichocki/planr/pkg/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusColor(s models.TaskStatus) *color.Color {
	switch s {
	case models.TaskStatusPlanning:
		return color.New(color.FgCyan)
	case models.TaskStatusInProgress:
		return color.New(color.FgYellow)
	case models.TaskStatusDone:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}

func printTask(w io.Writer, t *models.Task) {
	fmt.Fprintf(w, "%s  %s\n", t.ID, color.New(color.Bold).Sprint(t.Title))
	fmt.Fprintf(w, "  status:  %s\n", statusColor(t.Status).Sprint(t.Status))
	if t.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", t.Description)
	}
	if t.ParentAttemptID != "" {
		fmt.Fprintf(w, "  spawned by attempt: %s\n", t.ParentAttemptID)
	}
	if t.PlanStartedAt != nil {
		fmt.Fprintf(w, "  planning since: %s\n", t.PlanStartedAt.Local().Format("2006-01-02 15:04"))
	}
	if t.IsShared() {
		fmt.Fprintf(w, "  shared as: %s\n", t.SharedTaskID)
	}
	if t.HasSummary() {
		fmt.Fprintf(w, "\n%s\n", t.PlanSummary)
	}
}

func printPlan(w io.Writer, plan *clarify.PlanState) {
	answers := make(map[string]string, len(plan.Answers))
	for _, a := range plan.Answers {
		answers[a.QuestionKey] = a.Text
	}

	fmt.Fprintf(w, "Task %s is %s\n\n", plan.TaskID, statusColor(plan.Status).Sprint(plan.Status))
	for _, q := range plan.Questions {
		tag := color.New(color.Faint).Sprint("optional")
		if q.Required {
			tag = color.New(color.FgYellow).Sprint("required")
		}
		fmt.Fprintf(w, "%s [%s, %s] %s\n", color.New(color.Bold).Sprint(q.Key), tag, q.Category, q.Text)
		if len(q.SuggestedAnswers) > 0 {
			fmt.Fprintf(w, "    suggestions: %s\n", strings.Join(q.SuggestedAnswers, " | "))
		}
		if a, ok := answers[q.Key]; ok {
			fmt.Fprintf(w, "    %s %s\n", color.GreenString("answer:"), a)
		}
	}

	if plan.Complete {
		fmt.Fprintf(w, "\n%s all required questions answered\n", color.GreenString("✓"))
	} else if len(plan.Questions) > 0 {
		fmt.Fprintf(w, "\n%s waiting for answers\n", color.YellowString("⚠"))
	}
	if plan.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", plan.Summary)
	}
}
