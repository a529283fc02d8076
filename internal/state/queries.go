package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/planr/pkg/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries implements the row operations against a connection or transaction.
type Queries struct {
	q   querier
	now func() time.Time
}

func newQueries(q querier) *Queries {
	return &Queries{q: q, now: func() time.Time { return time.Now().UTC() }}
}

func newID() string {
	return uuid.New().String()
}

// Project operations

// CreateProject creates a new project. An empty ID is filled in.
func (q *Queries) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = q.now()
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO projects (id, name, repo_path, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Name, p.RepoPath, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID. Returns nil, nil if it does not exist.
func (q *Queries) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, name, repo_path, created_at FROM projects WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// GetProjectByRepoPath retrieves the oldest project registered for a
// repository. Returns nil, nil if there is none.
func (q *Queries) GetProjectByRepoPath(ctx context.Context, repoPath string) (*models.Project, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT id, name, repo_path, created_at FROM projects
		WHERE repo_path = ? ORDER BY created_at, rowid LIMIT 1
	`, repoPath)

	p, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("get project by repo path: %w", err)
	}
	return p, nil
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.RepoPath, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = parseTime(createdAt)
	return &p, nil
}

// Attempt operations

// CreateAttempt records a new attempt for a task.
func (q *Queries) CreateAttempt(ctx context.Context, a *models.Attempt) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = q.now()
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO task_attempts (id, task_id, worktree_path, branch, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.TaskID, nullString(a.WorktreePath), nullString(a.Branch), formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// ListAttemptsByTask lists all attempts for a task, oldest first.
func (q *Queries) ListAttemptsByTask(ctx context.Context, taskID string) ([]models.Attempt, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, task_id, worktree_path, branch, created_at
		FROM task_attempts WHERE task_id = ? ORDER BY created_at, rowid
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attempts by task: %w", err)
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		var a models.Attempt
		var worktreePath, branch sql.NullString
		var createdAt string
		if err := rows.Scan(&a.ID, &a.TaskID, &worktreePath, &branch, &createdAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.WorktreePath = worktreePath.String
		a.Branch = branch.String
		a.CreatedAt, _ = parseTime(createdAt)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// Execution process operations

// CreateProcess records a process started for an attempt.
func (q *Queries) CreateProcess(ctx context.Context, p *models.ExecutionProcess) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = q.now()
	}
	if p.Status == "" {
		p.Status = models.ProcessRunning
	}

	_, err := q.q.ExecContext(ctx, `
		INSERT INTO execution_processes (id, attempt_id, status, started_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.AttemptID, string(p.Status), formatTime(p.StartedAt))
	if err != nil {
		return fmt.Errorf("create process: %w", err)
	}
	return nil
}

// SetProcessStatus updates the status of an execution process.
func (q *Queries) SetProcessStatus(ctx context.Context, id string, status models.ProcessStatus) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE execution_processes SET status = ? WHERE id = ?
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("set process status: %w", err)
	}
	return nil
}

// HasRunningProcesses reports whether any attempt of the task has a running process.
func (q *Queries) HasRunningProcesses(ctx context.Context, taskID string) (bool, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM execution_processes ep
		JOIN task_attempts ta ON ta.id = ep.attempt_id
		WHERE ta.task_id = ? AND ep.status = ?
	`, taskID, string(models.ProcessRunning)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check running processes: %w", err)
	}
	return n > 0, nil
}
