package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/planr/internal/clarify"
	"github.com/ShayCichocki/planr/internal/generation"
	"github.com/ShayCichocki/planr/internal/tui"
	"github.com/ShayCichocki/planr/pkg/models"
)

var (
	planAnswersFile string
	planWatch       bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Clarify a task before development starts",
	Long: `Plan a task by answering generated clarification questions.

  planr plan start <task-id>             # generate questions, status -> planning
  planr plan answer <task-id> q1="..."   # record answers
  planr plan tui <task-id>               # answer interactively
  planr plan complete <task-id>          # status -> inprogress once complete`,
}

var planStartCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Start planning and generate clarification questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			plan, err := a.planning.StartPlanning(ctx, args[0])
			if err != nil {
				return explainPlanError(err)
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), plan)
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		})
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show questions, answers and summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			plan, err := a.planning.PlanState(ctx, args[0])
			if err != nil {
				return explainPlanError(err)
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), plan)
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		})
	},
}

var planAnswerCmd = &cobra.Command{
	Use:   "answer <task-id> [key=text...]",
	Short: "Record answers to clarification questions",
	Long: `Record answers as key=text arguments or from a YAML file.

The file holds either a flat mapping:

  q1: Core features only
  q3: Google and GitHub

or a list:

  answers:
    - question_key: q1
      answer: Core features only

With --watch the file is re-read on every change until the plan is complete.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID := args[0]
		if planWatch && planAnswersFile == "" {
			return errors.New("--watch requires --file")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app) error {
			save := func(inputs []models.AnswerInput) (bool, error) {
				res, err := a.planning.SaveAnswers(ctx, taskID, inputs)
				if err != nil {
					return false, explainPlanError(err)
				}
				reportSave(cmd, res)
				return res.Complete, nil
			}

			if planWatch {
				fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", planAnswersFile)
				if inputs, err := readAnswersFile(planAnswersFile); err == nil {
					if done, err := save(inputs); err != nil {
						printStatus("✗", err.Error(), color.FgRed)
					} else if done {
						return nil
					}
				}
				return watchAnswers(ctx, planAnswersFile, save, func(err error) {
					printStatus("✗", err.Error(), color.FgRed)
				})
			}

			var inputs []models.AnswerInput
			if planAnswersFile != "" {
				fromFile, err := readAnswersFile(planAnswersFile)
				if err != nil {
					return err
				}
				inputs = append(inputs, fromFile...)
			}
			fromArgs, err := parseAnswerArgs(args[1:])
			if err != nil {
				return err
			}
			inputs = append(inputs, fromArgs...)

			_, err = save(inputs)
			return err
		})
	},
}

var planCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Finish planning and move the task into progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			res, err := a.planning.CompletePlanning(ctx, args[0])
			if err != nil {
				return explainPlanError(err)
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printStatus("✓", "Planning complete, task is now "+string(res.Status), color.FgGreen)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", res.Summary)
			return nil
		})
	},
}

var planTUICmd = &cobra.Command{
	Use:   "tui <task-id>",
	Short: "Answer clarification questions interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(a *app) error {
			task, err := a.task(ctx, args[0])
			if err != nil {
				return err
			}
			plan, err := a.planning.StartPlanning(ctx, task.ID)
			if err != nil {
				return explainPlanError(err)
			}

			final, err := tea.NewProgram(tui.NewQuestionnaire(ctx, task.Title, plan, a.planning)).Run()
			if err != nil {
				return fmt.Errorf("run questionnaire: %w", err)
			}
			q := final.(*tui.Questionnaire)
			switch {
			case q.Completed():
				printStatus("✓", "All required questions answered", color.FgGreen)
				fmt.Fprintf(cmd.OutOrStdout(), "Run 'planr plan complete %s' to start development.\n", task.ID)
			case q.Err() != nil:
				return explainPlanError(q.Err())
			default:
				printStatus("⚠", "Answers saved so far are kept", color.FgYellow)
			}
			return nil
		})
	},
}

func init() {
	planAnswerCmd.Flags().StringVarP(&planAnswersFile, "file", "f", "", "YAML file with answers")
	planAnswerCmd.Flags().BoolVarP(&planWatch, "watch", "w", false, "Re-apply the answers file whenever it changes")

	planCmd.AddCommand(planStartCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planAnswerCmd)
	planCmd.AddCommand(planCompleteCmd)
	planCmd.AddCommand(planTUICmd)
}

func reportSave(cmd *cobra.Command, res *clarify.SaveResult) {
	if flagJSON {
		_ = printJSON(cmd.OutOrStdout(), res)
		return
	}
	printStatus("✓", fmt.Sprintf("Saved %d answers", res.Saved), color.FgGreen)
	if res.Complete {
		printStatus("✓", "All required questions answered", color.FgGreen)
		if res.Summary != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", res.Summary)
		}
	}
}

// explainPlanError adds a hint for errors a user can act on.
func explainPlanError(err error) error {
	var transition *models.TransitionError
	switch {
	case errors.As(err, &transition):
		return fmt.Errorf("%w (task is %s)", err, transition.From)
	case errors.Is(err, generation.ErrUnavailable):
		return fmt.Errorf("%w; check generation.backend and credentials", err)
	case errors.Is(err, clarify.ErrIncompletePlan):
		return fmt.Errorf("%w; answer the required questions first", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w; consider raising generation.timeout", err)
	default:
		return err
	}
}
