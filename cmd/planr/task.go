package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/planr/internal/deletion"
	"github.com/ShayCichocki/planr/internal/state"
	"github.com/ShayCichocki/planr/pkg/models"
)

var (
	taskDescription   string
	taskParentAttempt string
	taskDeleteYes     bool
	taskShareID       string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, inspect and delete tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task in the current project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			project, err := a.currentProject(ctx)
			if err != nil {
				return err
			}
			task := &models.Task{
				ProjectID:       project.ID,
				Title:           strings.TrimSpace(args[0]),
				Description:     taskDescription,
				ParentAttemptID: taskParentAttempt,
			}
			if task.Title == "" {
				return errors.New("title must not be empty")
			}
			if err := a.db.CreateTask(ctx, task); err != nil {
				return err
			}
			a.logger.Info("task created", "task_id", task.ID, "project_id", project.ID)

			if flagJSON {
				return printJSON(cmd.OutOrStdout(), task)
			}
			printStatus("✓", fmt.Sprintf("Created task %s", task.ID), color.FgGreen)
			return nil
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in the current project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			project, err := a.currentProject(ctx)
			if err != nil {
				return err
			}
			tasks, err := a.db.ListTasks(ctx, project.ID)
			if err != nil {
				return state.DBError("list tasks", err)
			}
			if flagJSON {
				if tasks == nil {
					tasks = []models.Task{}
				}
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks yet.")
				return nil
			}
			for _, t := range tasks {
				shared := ""
				if t.IsShared() {
					shared = color.New(color.Faint).Sprint(" (shared)")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-11s %s%s\n",
					t.ID, statusColor(t.Status).Sprint(t.Status), t.Title, shared)
			}
			return nil
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			task, err := a.task(ctx, args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), task)
			}
			printTask(cmd.OutOrStdout(), task)
			return nil
		})
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task, its plan and its attempts",
	Long: `Delete a task together with its questions, answers and attempts.

Tasks spawned by the task's attempts are kept and detached. A shared task is
removed from the mirror first; if that fails nothing is deleted. Worktrees
are removed in the background before the command exits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			task, err := a.task(ctx, args[0])
			if err != nil {
				return err
			}
			if !taskDeleteYes && !confirm(fmt.Sprintf("Delete task %q?", task.Title)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}

			res, err := a.deleter.Delete(ctx, task.ID)
			if errors.Is(err, deletion.ErrConflict) {
				return fmt.Errorf("%w; stop them before deleting", err)
			}
			if err != nil {
				return err
			}

			if flagJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printStatus("✓", fmt.Sprintf("Deleted task %s (%d attempts, %d child tasks detached)",
				res.TaskID, res.AttemptCount, res.ChildrenDetached), color.FgGreen)
			if res.CleanupItems > 0 {
				printStatus("…", fmt.Sprintf("Removing %d worktrees", res.CleanupItems), color.FgCyan)
			}
			return nil
		})
	},
}

var taskShareCmd = &cobra.Command{
	Use:   "share <task-id>",
	Short: "Publish a task to the configured mirror",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			if a.mirror == nil {
				return errors.New("mirror.endpoint is not configured")
			}
			task, err := a.task(ctx, args[0])
			if err != nil {
				return err
			}
			if task.IsShared() {
				return fmt.Errorf("task %s is already shared as %s", task.ID, task.SharedTaskID)
			}

			sharedID := taskShareID
			if sharedID == "" {
				sharedID = uuid.New().String()
			}
			task.SharedTaskID = sharedID
			if err := a.mirror.Update(ctx, task); err != nil {
				return fmt.Errorf("publish task: %w", err)
			}
			if err := a.db.SetSharedTaskID(ctx, task.ID, sharedID); err != nil {
				return state.DBError("record shared task id", err)
			}
			a.logger.Info("task shared", "task_id", task.ID, "shared_task_id", sharedID)

			printStatus("✓", fmt.Sprintf("Shared task %s as %s", task.ID, sharedID), color.FgGreen)
			return nil
		})
	},
}

func init() {
	taskCreateCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Longer description of the task")
	taskCreateCmd.Flags().StringVar(&taskParentAttempt, "parent-attempt", "", "Attempt that spawned this task")
	taskDeleteCmd.Flags().BoolVarP(&taskDeleteYes, "yes", "y", false, "Skip confirmation prompt")
	taskShareCmd.Flags().StringVar(&taskShareID, "id", "", "Shared task id to use (default: random)")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskShareCmd)
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
