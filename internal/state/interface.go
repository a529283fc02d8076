// Package state provides SQLite-based persistence for planr.
package state

import (
	"context"
	"io"
	"time"

	"github.com/ShayCichocki/planr/pkg/models"
)

// ProjectStore handles project persistence.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectByRepoPath(ctx context.Context, repoPath string) (*models.Project, error)
}

// TaskStore handles task persistence. Every write touches a single row.
type TaskStore interface {
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, projectID string) ([]models.Task, error)
	// UpdateTaskStatus sets the status only if it currently equals from.
	// It reports whether the row was changed.
	UpdateTaskStatus(ctx context.Context, id string, from, to models.TaskStatus) (bool, error)
	MarkPlanStarted(ctx context.Context, id string, at time.Time) error
	// SetPlanSummary caches the plan summary; "" clears it.
	SetPlanSummary(ctx context.Context, id, summary string) error
	SetSharedTaskID(ctx context.Context, id, sharedTaskID string) error
	// NullifyChildrenByAttempt clears parent_attempt_id on tasks spawned by the attempt.
	NullifyChildrenByAttempt(ctx context.Context, attemptID string) (int64, error)
	// DeleteTask removes the task row; dependents go by cascade.
	DeleteTask(ctx context.Context, id string) (int64, error)
}

// QuestionLedger persists clarification questions.
type QuestionLedger interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
	ListQuestionsByTask(ctx context.Context, taskID string) ([]models.Question, error)
	GetQuestionByKey(ctx context.Context, taskID, key string) (*models.Question, error)
	DeleteQuestionsByTask(ctx context.Context, taskID string) (int64, error)
}

// AnswerLedger persists one current answer per (task, question key).
type AnswerLedger interface {
	UpsertAnswer(ctx context.Context, a *models.Answer) error
	ListAnswersByTask(ctx context.Context, taskID string) ([]models.Answer, error)
	GetAnswerByKey(ctx context.Context, taskID, key string) (*models.Answer, error)
	DeleteAnswersByTask(ctx context.Context, taskID string) (int64, error)
}

// AttemptStore handles attempt persistence.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, a *models.Attempt) error
	ListAttemptsByTask(ctx context.Context, taskID string) ([]models.Attempt, error)
}

// ProcessStore tracks execution processes started for attempts.
type ProcessStore interface {
	CreateProcess(ctx context.Context, p *models.ExecutionProcess) error
	SetProcessStatus(ctx context.Context, id string, status models.ProcessStatus) error
	HasRunningProcesses(ctx context.Context, taskID string) (bool, error)
}

// Tx is the full set of row operations, usable inside or outside a transaction.
type Tx interface {
	ProjectStore
	TaskStore
	QuestionLedger
	AnswerLedger
	AttemptStore
	ProcessStore
}

// Transactor runs a function atomically.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store is the entity store used by the planning and deletion services.
type Store interface {
	io.Closer
	Migrator
	Tx
	Transactor
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store          = (*DB)(nil)
	_ Tx             = (*Queries)(nil)
	_ QuestionLedger = (*Queries)(nil)
	_ AnswerLedger   = (*Queries)(nil)
)
