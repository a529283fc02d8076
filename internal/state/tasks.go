package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ShayCichocki/planr/pkg/models"
)

const taskColumns = `id, project_id, title, description, status, parent_attempt_id,
	plan_started_at, plan_summary, shared_task_id, created_at, updated_at`

// CreateTask creates a new task. An empty ID is filled in and an empty
// status defaults to todo.
func (q *Queries) CreateTask(ctx context.Context, t *models.Task) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = models.TaskStatusTodo
	}
	now := q.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	var planStartedAt sql.NullString
	if t.PlanStartedAt != nil {
		planStartedAt = nullString(formatTime(*t.PlanStartedAt))
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, t.Title, nullString(t.Description), string(t.Status),
		nullString(t.ParentAttemptID), planStartedAt, nullString(t.PlanSummary),
		nullString(t.SharedTaskID), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns nil, nil if it does not exist.
func (q *Queries) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks lists tasks, optionally restricted to one project.
func (q *Queries) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	var rows *sql.Rows
	var err error

	if projectID != "" {
		rows, err = q.q.QueryContext(ctx, `
			SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at, rowid
		`, projectID)
	} else {
		rows, err = q.q.QueryContext(ctx, `
			SELECT `+taskColumns+` FROM tasks ORDER BY created_at, rowid
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskStatus moves a task from one status to another. The update is
// conditional on the current status so concurrent writers cannot both win.
func (q *Queries) UpdateTaskStatus(ctx context.Context, id string, from, to models.TaskStatus) (bool, error) {
	result, err := q.q.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, string(to), formatTime(q.now()), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update task status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkPlanStarted stamps the plan start time.
func (q *Queries) MarkPlanStarted(ctx context.Context, id string, at time.Time) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE tasks SET plan_started_at = ?, updated_at = ? WHERE id = ?
	`, formatTime(at), formatTime(q.now()), id)
	if err != nil {
		return fmt.Errorf("mark plan started: %w", err)
	}
	return nil
}

// SetPlanSummary caches the plan summary on the task.
func (q *Queries) SetPlanSummary(ctx context.Context, id, summary string) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE tasks SET plan_summary = ?, updated_at = ? WHERE id = ?
	`, nullString(summary), formatTime(q.now()), id)
	if err != nil {
		return fmt.Errorf("set plan summary: %w", err)
	}
	return nil
}

// SetSharedTaskID records the remote mirror identifier; "" unshares.
func (q *Queries) SetSharedTaskID(ctx context.Context, id, sharedTaskID string) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE tasks SET shared_task_id = ?, updated_at = ? WHERE id = ?
	`, nullString(sharedTaskID), formatTime(q.now()), id)
	if err != nil {
		return fmt.Errorf("set shared task id: %w", err)
	}
	return nil
}

// NullifyChildrenByAttempt detaches tasks that were spawned by an attempt.
func (q *Queries) NullifyChildrenByAttempt(ctx context.Context, attemptID string) (int64, error) {
	result, err := q.q.ExecContext(ctx, `
		UPDATE tasks SET parent_attempt_id = NULL, updated_at = ? WHERE parent_attempt_id = ?
	`, formatTime(q.now()), attemptID)
	if err != nil {
		return 0, fmt.Errorf("nullify children of attempt %s: %w", attemptID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

// DeleteTask deletes a task by ID and returns the number of rows removed.
func (q *Queries) DeleteTask(ctx context.Context, id string) (int64, error) {
	result, err := q.q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var status, createdAt, updatedAt string
	var description, parentAttemptID, planStartedAt, planSummary, sharedTaskID sql.NullString
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &description, &status, &parentAttemptID,
		&planStartedAt, &planSummary, &sharedTaskID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Status = models.TaskStatus(status)
	t.Description = description.String
	t.ParentAttemptID = parentAttemptID.String
	t.PlanStartedAt = parseNullableTime(planStartedAt)
	t.PlanSummary = planSummary.String
	t.SharedTaskID = sharedTaskID.String
	t.CreatedAt, _ = parseTime(createdAt)
	t.UpdatedAt, _ = parseTime(updatedAt)
	return &t, nil
}
