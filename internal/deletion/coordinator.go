// Package deletion removes tasks and their dependents in one transaction and
// hands worktree reclamation to the background cleanup runner.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ShayCichocki/planr/internal/cleanup"
	"github.com/ShayCichocki/planr/internal/state"
	"github.com/ShayCichocki/planr/pkg/models"
)

var (
	// ErrConflict means the task still has running execution processes.
	ErrConflict = errors.New("task has running execution processes")
	// ErrNotFound means the task or its project does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMirrorUnavailable means the task is shared but no publisher is configured.
	ErrMirrorUnavailable = errors.New("shared task publisher is not configured")
)

// Store is the subset of the entity store the coordinator needs.
type Store interface {
	state.Tx
	state.Transactor
}

// ProcessTracker reports whether a task has work in flight.
type ProcessTracker interface {
	HasRunningProcesses(ctx context.Context, taskID string) (bool, error)
}

// MirrorPublisher removes the remote copy of a shared task.
type MirrorPublisher interface {
	Delete(ctx context.Context, sharedTaskID string) error
}

// Result describes an accepted deletion. Cleanup may still be running.
type Result struct {
	Accepted         bool   `json:"accepted"`
	TaskID           string `json:"task_id"`
	AttemptCount     int    `json:"attempt_count"`
	ChildrenDetached int64  `json:"children_detached"`
	CleanupItems     int    `json:"cleanup_items"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithProcessTracker overrides the running-process check, which defaults to the store.
func WithProcessTracker(p ProcessTracker) Option {
	return func(c *Coordinator) { c.processes = p }
}

// WithMirror sets the publisher used for shared tasks.
func WithMirror(m MirrorPublisher) Option {
	return func(c *Coordinator) { c.mirror = m }
}

// Coordinator deletes tasks.
type Coordinator struct {
	store     Store
	processes ProcessTracker
	mirror    MirrorPublisher
	cleanup   cleanup.Dispatcher
	logger    *slog.Logger
}

// New creates a deletion coordinator.
func New(store Store, dispatcher cleanup.Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		processes: store,
		cleanup:   dispatcher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Delete removes a task with its questions, answers and attempts.
//
// A shared task's mirror is deleted first; if that fails nothing local is
// touched. Child tasks spawned by the task's attempts are detached in the same
// transaction that deletes the task. Worktree cleanup is dispatched after the
// commit and not awaited.
func (c *Coordinator) Delete(ctx context.Context, taskID string) (*Result, error) {
	task, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, state.DBError("get task", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}

	running, err := c.processes.HasRunningProcesses(ctx, task.ID)
	if err != nil {
		return nil, state.DBError("check running processes", err)
	}
	if running {
		return nil, fmt.Errorf("%w: %s", ErrConflict, task.ID)
	}

	attempts, err := c.store.ListAttemptsByTask(ctx, task.ID)
	if err != nil {
		return nil, state.DBError("list attempts", err)
	}
	project, err := c.store.GetProject(ctx, task.ProjectID)
	if err != nil {
		return nil, state.DBError("get project", err)
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, task.ProjectID)
	}

	if task.IsShared() {
		if c.mirror == nil {
			return nil, fmt.Errorf("%w: task %s is shared as %s", ErrMirrorUnavailable, task.ID, task.SharedTaskID)
		}
		if err := c.mirror.Delete(ctx, task.SharedTaskID); err != nil {
			return nil, fmt.Errorf("delete shared task %s: %w", task.SharedTaskID, err)
		}
	}

	var detached int64
	err = c.store.Transaction(ctx, func(tx state.Tx) error {
		for _, a := range attempts {
			n, err := tx.NullifyChildrenByAttempt(ctx, a.ID)
			if err != nil {
				return state.DBError("detach child tasks", err)
			}
			detached += n
		}

		rows, err := tx.DeleteTask(ctx, task.ID)
		if err != nil {
			return state.DBError("delete task", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: task %s", ErrNotFound, task.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	job := buildJob(task.ID, project, attempts)
	c.cleanup.Dispatch(job)

	c.logger.Info("task deleted",
		"task_id", task.ID, "attempts", len(attempts),
		"children_detached", detached, "cleanup_items", len(job.Items))

	return &Result{
		Accepted:         true,
		TaskID:           task.ID,
		AttemptCount:     len(attempts),
		ChildrenDetached: detached,
		CleanupItems:     len(job.Items),
	}, nil
}

// buildJob lists the worktrees to reclaim. Attempts that never had a
// worktree are skipped.
func buildJob(taskID string, project *models.Project, attempts []models.Attempt) cleanup.Job {
	job := cleanup.Job{TaskID: taskID, Items: []cleanup.Item{}}
	for _, a := range attempts {
		if a.WorktreePath == "" {
			continue
		}
		job.Items = append(job.Items, cleanup.Item{
			AttemptID:    a.ID,
			WorktreePath: a.WorktreePath,
			RepoPath:     project.RepoPath,
		})
	}
	return job
}
