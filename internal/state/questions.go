package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ShayCichocki/planr/pkg/models"
)

const questionColumns = `id, task_id, question_key, question_text, category, required,
	suggested_answers, created_at`

// CreateQuestion inserts a question. Keys must be unique within a task.
func (q *Queries) CreateQuestion(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = newID()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = q.now()
	}
	if question.Category == "" {
		question.Category = models.CategoryOther
	}

	var suggested sql.NullString
	if question.SuggestedAnswers != nil {
		raw, err := json.Marshal(question.SuggestedAnswers)
		if err != nil {
			return fmt.Errorf("encode suggested answers: %w", err)
		}
		suggested = nullString(string(raw))
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO plan_questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, question.ID, question.TaskID, question.Key, question.Text, string(question.Category),
		question.Required, suggested, formatTime(question.CreatedAt))
	if err != nil {
		return fmt.Errorf("create question %s: %w", question.Key, err)
	}
	return nil
}

// ListQuestionsByTask returns the questions of a task in generation order.
func (q *Queries) ListQuestionsByTask(ctx context.Context, taskID string) ([]models.Question, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM plan_questions WHERE task_id = ? ORDER BY created_at, rowid
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list questions by task: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, *question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

// GetQuestionByKey looks up a question by its key. Returns nil, nil if absent.
func (q *Queries) GetQuestionByKey(ctx context.Context, taskID, key string) (*models.Question, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT `+questionColumns+`
		FROM plan_questions WHERE task_id = ? AND question_key = ? LIMIT 1
	`, taskID, key)

	question, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question %s: %w", key, err)
	}
	return question, nil
}

// DeleteQuestionsByTask removes every question of a task.
func (q *Queries) DeleteQuestionsByTask(ctx context.Context, taskID string) (int64, error) {
	result, err := q.q.ExecContext(ctx, "DELETE FROM plan_questions WHERE task_id = ?", taskID)
	if err != nil {
		return 0, fmt.Errorf("delete questions by task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

func scanQuestion(row rowScanner) (*models.Question, error) {
	var question models.Question
	var category, createdAt string
	var suggested sql.NullString
	err := row.Scan(&question.ID, &question.TaskID, &question.Key, &question.Text, &category,
		&question.Required, &suggested, &createdAt)
	if err != nil {
		return nil, err
	}

	question.Category = models.ParseCategory(category)
	if suggested.Valid {
		// A corrupt list is dropped rather than failing the whole read.
		if err := json.Unmarshal([]byte(suggested.String), &question.SuggestedAnswers); err != nil {
			question.SuggestedAnswers = nil
		}
	}
	question.CreatedAt, _ = parseTime(createdAt)
	return &question, nil
}
