package models

import "time"

// Task represents a unit of work that is planned before development starts.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// ProjectID is the project that owns this task.
	ProjectID string `json:"project_id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// ParentAttemptID points at the attempt that spawned this task, if any.
	ParentAttemptID string `json:"parent_attempt_id,omitempty"`
	// PlanStartedAt is when clarification planning first started.
	PlanStartedAt *time.Time `json:"plan_started_at,omitempty"`
	// PlanSummary is the cached requirements summary produced by planning.
	PlanSummary string `json:"plan_summary,omitempty"`
	// SharedTaskID is the identifier of the remote mirror, if the task is shared.
	SharedTaskID string `json:"shared_task_id,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the task row was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSummary reports whether a plan summary has been cached on the task.
func (t *Task) HasSummary() bool {
	return t != nil && t.PlanSummary != ""
}

// IsShared reports whether the task has a remote mirror.
func (t *Task) IsShared() bool {
	return t != nil && t.SharedTaskID != ""
}

// Project groups tasks that share a git repository.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RepoPath  string    `json:"repo_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Attempt is one execution effort against a task, usually bound to a worktree.
type Attempt struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	// WorktreePath is empty when no worktree was ever provisioned.
	WorktreePath string    `json:"worktree_path,omitempty"`
	Branch       string    `json:"branch,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProcessStatus represents the state of an execution process.
type ProcessStatus string

const (
	ProcessRunning   ProcessStatus = "running"
	ProcessCompleted ProcessStatus = "completed"
	ProcessFailed    ProcessStatus = "failed"
	ProcessKilled    ProcessStatus = "killed"
)

// ExecutionProcess is a process started on behalf of an attempt.
type ExecutionProcess struct {
	ID        string        `json:"id"`
	AttemptID string        `json:"attempt_id"`
	Status    ProcessStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
}
