package models

import (
	"strings"
	"time"
)

// QuestionCategory classifies a clarification question.
type QuestionCategory string

const (
	CategoryAuthentication QuestionCategory = "authentication"
	CategorySecurity       QuestionCategory = "security"
	CategoryFeatures       QuestionCategory = "features"
	CategoryPerformance    QuestionCategory = "performance"
	CategoryUI             QuestionCategory = "ui"
	CategoryIntegration    QuestionCategory = "integration"
	CategoryOther          QuestionCategory = "other"
)

// Valid returns true if the category is a known value.
func (c QuestionCategory) Valid() bool {
	switch c {
	case CategoryAuthentication, CategorySecurity, CategoryFeatures,
		CategoryPerformance, CategoryUI, CategoryIntegration, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory normalizes a category name. Unknown names map to CategoryOther.
func ParseCategory(s string) QuestionCategory {
	c := QuestionCategory(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Question is a clarifying question generated for a task.
type Question struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	// Key is assigned by the generator (q1, q2, ...) and is unique per task.
	Key              string           `json:"key"`
	Text             string           `json:"text"`
	Category         QuestionCategory `json:"category"`
	Required         bool             `json:"required"`
	SuggestedAnswers []string         `json:"suggested_answers,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Answer is the current response to a question, identified by (TaskID, QuestionKey).
type Answer struct {
	ID          string `json:"id"`
	TaskID      string `json:"task_id"`
	QuestionKey string `json:"question_key"`
	// QuestionText is a snapshot of the question at the time it was answered.
	QuestionText string    `json:"question_text"`
	Text         string    `json:"text"`
	AnsweredBy   string    `json:"answered_by,omitempty"`
	AnsweredAt   time.Time `json:"answered_at"`
}

// AnswerInput is a single submitted answer.
type AnswerInput struct {
	QuestionKey string `json:"question_key" yaml:"question_key"`
	Text        string `json:"answer" yaml:"answer"`
}
