package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	iexec "github.com/ShayCichocki/planr/internal/exec"
	"github.com/ShayCichocki/planr/internal/git"
	"github.com/ShayCichocki/planr/internal/state"
	"github.com/ShayCichocki/planr/pkg/models"
)

var attemptNoWorktree bool

var attemptCmd = &cobra.Command{
	Use:   "attempt",
	Short: "Manage execution attempts for a task",
}

var attemptCreateCmd = &cobra.Command{
	Use:   "create <task-id>",
	Short: "Start an attempt in a fresh git worktree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			task, err := a.task(ctx, args[0])
			if err != nil {
				return err
			}
			attempt, err := createAttempt(ctx, a, task, git.NewRunner(a.root), !attemptNoWorktree)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), attempt)
			}
			printStatus("✓", "Created attempt "+attempt.ID, color.FgGreen)
			if attempt.WorktreePath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  worktree: %s\n  branch:   %s\n", attempt.WorktreePath, attempt.Branch)
			}
			return nil
		})
	},
}

var attemptListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List a task's attempts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			attempts, err := a.db.ListAttemptsByTask(ctx, args[0])
			if err != nil {
				return state.DBError("list attempts", err)
			}
			if flagJSON {
				if attempts == nil {
					attempts = []models.Attempt{}
				}
				return printJSON(cmd.OutOrStdout(), attempts)
			}
			for _, at := range attempts {
				worktree := at.WorktreePath
				if worktree == "" {
					worktree = color.New(color.Faint).Sprint("(no worktree)")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", at.ID, at.CreatedAt.Local().Format("2006-01-02 15:04"), worktree)
			}
			return nil
		})
	},
}

var attemptExecCmd = &cobra.Command{
	Use:   "exec <task-id> <attempt-id> -- <command> [args...]",
	Short: "Run a command in an attempt's worktree as a tracked process",
	Long: `Run a command in an attempt's worktree.

The process is recorded as running for its duration, which blocks deletion
of the task until it finishes.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			attempt, err := findAttempt(ctx, a.db, args[0], args[1])
			if err != nil {
				return err
			}
			out, runErr := runTracked(ctx, a.db, iexec.NewRunner(), attempt, args[2], args[3:]...)
			cmd.OutOrStdout().Write(out)
			return runErr
		})
	},
}

func init() {
	attemptCreateCmd.Flags().BoolVar(&attemptNoWorktree, "no-worktree", false, "Record the attempt without provisioning a worktree")

	attemptCmd.AddCommand(attemptCreateCmd)
	attemptCmd.AddCommand(attemptListCmd)
	attemptCmd.AddCommand(attemptExecCmd)
}

// createAttempt records an attempt, provisioning its worktree under
// .planr/worktrees first when requested.
func createAttempt(ctx context.Context, a *app, task *models.Task, wt git.WorktreeOperations, withWorktree bool) (*models.Attempt, error) {
	attempt := &models.Attempt{ID: uuid.New().String(), TaskID: task.ID}
	if withWorktree {
		short := shortID(attempt.ID)
		attempt.WorktreePath = filepath.Join(a.root, ".planr", "worktrees", short)
		attempt.Branch = "planr/" + shortID(task.ID) + "-" + short
		if err := wt.WorktreeAddNewBranch(ctx, attempt.WorktreePath, attempt.Branch); err != nil {
			return nil, fmt.Errorf("create worktree: %w", err)
		}
	}
	if err := a.db.CreateAttempt(ctx, attempt); err != nil {
		if withWorktree {
			if rmErr := wt.WorktreeRemove(ctx, attempt.WorktreePath); rmErr != nil {
				a.logger.Warn("failed to remove worktree after attempt insert failed",
					"path", attempt.WorktreePath, "error", rmErr)
			}
		}
		return nil, state.DBError("create attempt", err)
	}
	a.logger.Info("attempt created", "task_id", task.ID, "attempt_id", attempt.ID, "worktree", attempt.WorktreePath)
	return attempt, nil
}

func findAttempt(ctx context.Context, store state.AttemptStore, taskID, attemptID string) (*models.Attempt, error) {
	attempts, err := store.ListAttemptsByTask(ctx, taskID)
	if err != nil {
		return nil, state.DBError("list attempts", err)
	}
	for i := range attempts {
		if attempts[i].ID == attemptID {
			return &attempts[i], nil
		}
	}
	return nil, fmt.Errorf("attempt %s not found for task %s", attemptID, taskID)
}

// runTracked runs a command in the attempt's worktree while a running
// process row exists for it.
func runTracked(ctx context.Context, store state.ProcessStore, runner iexec.CommandRunner, attempt *models.Attempt, name string, args ...string) ([]byte, error) {
	proc := &models.ExecutionProcess{AttemptID: attempt.ID}
	if err := store.CreateProcess(ctx, proc); err != nil {
		return nil, state.DBError("record process", err)
	}

	out, runErr := runner.Run(ctx, attempt.WorktreePath, name, args...)

	status := models.ProcessCompleted
	if runErr != nil {
		status = models.ProcessFailed
		if ctx.Err() != nil {
			status = models.ProcessKilled
		}
	}
	// The caller's context may be cancelled; the status write must still land.
	if err := store.SetProcessStatus(context.WithoutCancel(ctx), proc.ID, status); err != nil {
		return out, state.DBError("record process status", err)
	}
	if runErr != nil {
		return out, fmt.Errorf("%s: %w", name, runErr)
	}
	return out, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
