package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ShayCichocki/planr/pkg/models"
)

const answerColumns = `id, task_id, question_key, question_text, answer, answered_by, answered_at`

// UpsertAnswer stores the current answer for (task, question key). An existing
// answer keeps its ID; its text, author and timestamp are overwritten.
// On return a.ID and a.AnsweredAt reflect the stored row.
func (q *Queries) UpsertAnswer(ctx context.Context, a *models.Answer) error {
	a.AnsweredAt = q.now()

	row := q.q.QueryRowContext(ctx, `
		INSERT INTO plan_answers (`+answerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (task_id, question_key) DO UPDATE SET
			question_text = excluded.question_text,
			answer = excluded.answer,
			answered_by = excluded.answered_by,
			answered_at = excluded.answered_at
		RETURNING id
	`, newID(), a.TaskID, a.QuestionKey, a.QuestionText, a.Text,
		nullString(a.AnsweredBy), formatTime(a.AnsweredAt))
	if err := row.Scan(&a.ID); err != nil {
		return fmt.Errorf("upsert answer %s: %w", a.QuestionKey, err)
	}
	return nil
}

// ListAnswersByTask returns the current answers of a task, oldest write first.
func (q *Queries) ListAnswersByTask(ctx context.Context, taskID string) ([]models.Answer, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+answerColumns+`
		FROM plan_answers WHERE task_id = ? ORDER BY answered_at, rowid
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list answers by task: %w", err)
	}
	defer rows.Close()

	var answers []models.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return answers, nil
}

// GetAnswerByKey returns the current answer for a question key, or nil, nil.
func (q *Queries) GetAnswerByKey(ctx context.Context, taskID, key string) (*models.Answer, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT `+answerColumns+`
		FROM plan_answers WHERE task_id = ? AND question_key = ? LIMIT 1
	`, taskID, key)

	a, err := scanAnswer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get answer %s: %w", key, err)
	}
	return a, nil
}

// DeleteAnswersByTask removes every answer of a task.
func (q *Queries) DeleteAnswersByTask(ctx context.Context, taskID string) (int64, error) {
	result, err := q.q.ExecContext(ctx, "DELETE FROM plan_answers WHERE task_id = ?", taskID)
	if err != nil {
		return 0, fmt.Errorf("delete answers by task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

func scanAnswer(row rowScanner) (*models.Answer, error) {
	var a models.Answer
	var answeredAt string
	var answeredBy sql.NullString
	err := row.Scan(&a.ID, &a.TaskID, &a.QuestionKey, &a.QuestionText, &a.Text, &answeredBy, &answeredAt)
	if err != nil {
		return nil, err
	}
	a.AnsweredBy = answeredBy.String
	a.AnsweredAt, _ = parseTime(answeredAt)
	return &a, nil
}
