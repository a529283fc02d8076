// Package cleanup reclaims attempt worktrees in the background after their
// task has been deleted. Jobs run at most once; failures are logged and dropped.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/planr/internal/git"
)

// Default sizing used when Config leaves a field zero.
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 64
)

// Item is one attempt worktree to reclaim.
type Item struct {
	AttemptID    string `json:"attempt_id"`
	WorktreePath string `json:"worktree_path"`
	// RepoPath is the repository that owns the worktree; empty when unknown.
	RepoPath string `json:"repo_path,omitempty"`
}

// Job is the cleanup work for one deleted task.
type Job struct {
	TaskID string `json:"task_id"`
	Items  []Item `json:"items"`
}

// Dispatcher accepts cleanup jobs without blocking the caller.
type Dispatcher interface {
	Dispatch(job Job)
}

// GitFactory returns the worktree operations for a repository.
type GitFactory func(repoPath string) git.WorktreeOperations

// ErrorHandler receives the collected failure of a job.
type ErrorHandler func(job Job, err error)

// Config configures a Runner.
type Config struct {
	Workers   int
	QueueSize int
	Logger    *slog.Logger
	// Git defaults to git.NewRunner.
	Git GitFactory
	// OnError defaults to logging the failure.
	OnError ErrorHandler
}

// Runner executes cleanup jobs on a fixed pool of workers.
type Runner struct {
	jobs    chan Job
	group   *errgroup.Group
	logger  *slog.Logger
	git     GitFactory
	onError ErrorHandler

	mu     sync.RWMutex
	closed bool
}

var _ Dispatcher = (*Runner)(nil)

// NewRunner starts the worker pool.
func NewRunner(cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Git == nil {
		cfg.Git = func(repoPath string) git.WorktreeOperations { return git.NewRunner(repoPath) }
	}

	r := &Runner{
		jobs:   make(chan Job, cfg.QueueSize),
		group:  &errgroup.Group{},
		logger: cfg.Logger.With("component", "cleanup"),
		git:    cfg.Git,
	}
	r.onError = cfg.OnError
	if r.onError == nil {
		r.onError = r.logFailure
	}

	for i := 0; i < cfg.Workers; i++ {
		r.group.Go(func() error {
			for job := range r.jobs {
				r.run(job)
			}
			return nil
		})
	}
	return r
}

// Dispatch queues a job. A full queue or a closed runner drops the job.
func (r *Runner) Dispatch(job Job) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Warn("cleanup runner closed, dropping job", "task_id", job.TaskID, "items", len(job.Items))
		return
	}

	select {
	case r.jobs <- job:
		r.logger.Debug("cleanup job queued", "task_id", job.TaskID, "items", len(job.Items))
	default:
		r.logger.Warn("cleanup queue full, dropping job", "task_id", job.TaskID, "items", len(job.Items))
	}
}

// Close stops accepting jobs, drains the queue and waits for the workers.
func (r *Runner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	return r.group.Wait()
}

// run executes one job. It is not cancellable once started.
func (r *Runner) run(job Job) {
	ctx := context.Background()
	start := time.Now()

	var errs []error
	repos := make(map[string]struct{})
	for _, item := range job.Items {
		if item.WorktreePath == "" {
			continue
		}
		if err := r.removeWorktree(ctx, item); err != nil {
			errs = append(errs, fmt.Errorf("attempt %s: %w", item.AttemptID, err))
		}
		if item.RepoPath != "" {
			repos[item.RepoPath] = struct{}{}
		}
	}

	for repo := range repos {
		if err := r.git(repo).WorktreePrune(ctx); err != nil {
			errs = append(errs, fmt.Errorf("prune %s: %w", repo, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		r.onError(job, err)
		return
	}
	r.logger.Info("cleanup finished",
		"task_id", job.TaskID, "items", len(job.Items), "duration", time.Since(start))
}

// removeWorktree unregisters the worktree from its repository and deletes
// the directory. A failed git removal is tolerated when the directory can
// still be deleted; the later prune drops the stale registration.
func (r *Runner) removeWorktree(ctx context.Context, item Item) error {
	if item.RepoPath != "" {
		if err := r.git(item.RepoPath).WorktreeRemove(ctx, item.WorktreePath); err != nil {
			r.logger.Debug("git worktree remove failed",
				"attempt_id", item.AttemptID, "path", item.WorktreePath, "error", err)
		}
	}
	if err := os.RemoveAll(item.WorktreePath); err != nil {
		return fmt.Errorf("remove %s: %w", item.WorktreePath, err)
	}
	return nil
}

func (r *Runner) logFailure(job Job, err error) {
	r.logger.Error("cleanup failed", "task_id", job.TaskID, "items", len(job.Items), "error", err)
}
