// Package clarify drives the task planning state machine: it generates
// clarifying questions, records answers, gates completion and produces the
// requirements summary.
package clarify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ShayCichocki/planr/internal/generation"
	"github.com/ShayCichocki/planr/internal/state"
	"github.com/ShayCichocki/planr/pkg/models"
)

// Store is the subset of the entity store the service needs.
type Store interface {
	state.Tx
	state.Transactor
}

// Notifier receives the updated task after planning starts on a shared task.
type Notifier interface {
	Update(ctx context.Context, task *models.Task) error
}

// PlanState is a read-only view of a task's plan.
type PlanState struct {
	TaskID    string            `json:"task_id"`
	Status    models.TaskStatus `json:"status"`
	Questions []models.Question `json:"questions"`
	Answers   []models.Answer   `json:"answers"`
	Summary   string            `json:"summary,omitempty"`
	Complete  bool              `json:"complete"`
}

// SaveResult is returned by SaveAnswers.
type SaveResult struct {
	Saved    int    `json:"saved"`
	Complete bool   `json:"complete"`
	Summary  string `json:"summary,omitempty"`
}

// CompleteResult is returned by CompletePlanning.
type CompleteResult struct {
	Status  models.TaskStatus `json:"status"`
	Summary string            `json:"summary"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNotifier sets the share publisher notified when planning starts.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source used for plan-start stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements the planning operations. It holds no per-task state and
// is safe for concurrent use.
type Service struct {
	store    Store
	gen      generation.Capability
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a planning service.
func New(store Store, gen generation.Capability, opts ...Option) *Service {
	s := &Service{
		store:  store,
		gen:    gen,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartPlanning moves a task into planning and returns its questions.
//
// A todo task gets a fresh question set. A planning task with stored questions
// is returned as is; one without questions gets them generated. Any other
// status fails with models.ErrInvalidTransition.
func (s *Service) StartPlanning(ctx context.Context, taskID string) (*PlanState, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := models.BeginPlanning(task.Status); err != nil {
		return nil, err
	}

	if task.Status == models.TaskStatusPlanning {
		existing, err := s.store.ListQuestionsByTask(ctx, task.ID)
		if err != nil {
			return nil, state.DBError("list questions", err)
		}
		if len(existing) > 0 {
			return s.PlanState(ctx, task.ID)
		}
	}

	questions, err := s.generateQuestions(ctx, task)
	if errors.Is(err, errLostRace) {
		return s.afterLostRace(ctx, task.ID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("planning started",
		"task_id", task.ID, "from", task.Status, "questions", len(questions))

	if task.Status == models.TaskStatusTodo {
		s.notifyShared(ctx, task.ID)
	}

	return &PlanState{
		TaskID:    task.ID,
		Status:    models.TaskStatusPlanning,
		Questions: questions,
		Answers:   []models.Answer{},
	}, nil
}

// generateQuestions asks the capability for questions and replaces the
// task's question and answer ledgers with them. The replacement, the status
// change and the plan-start stamp commit together.
func (s *Service) generateQuestions(ctx context.Context, task *models.Task) ([]models.Question, error) {
	output, err := s.gen.Invoke(ctx, generation.Request{
		Prompt:    buildQuestionsPrompt(task),
		MaxTokens: questionsMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions, err := ParseQuestions(task.ID, output)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx state.Tx) error {
		ok, err := tx.UpdateTaskStatus(ctx, task.ID, task.Status, models.TaskStatusPlanning)
		if err != nil {
			return state.DBError("update task status", err)
		}
		if !ok {
			return errLostRace
		}

		if task.Status == models.TaskStatusPlanning {
			stored, err := tx.ListQuestionsByTask(ctx, task.ID)
			if err != nil {
				return state.DBError("list questions", err)
			}
			if len(stored) > 0 {
				return errLostRace
			}
		}

		if _, err := tx.DeleteAnswersByTask(ctx, task.ID); err != nil {
			return state.DBError("delete answers", err)
		}
		if _, err := tx.DeleteQuestionsByTask(ctx, task.ID); err != nil {
			return state.DBError("delete questions", err)
		}
		for i := range questions {
			if err := tx.CreateQuestion(ctx, &questions[i]); err != nil {
				return state.DBError("create question", err)
			}
		}

		if task.Status == models.TaskStatusTodo || task.PlanStartedAt == nil {
			if err := tx.MarkPlanStarted(ctx, task.ID, s.now()); err != nil {
				return state.DBError("mark plan started", err)
			}
		}
		if task.Status == models.TaskStatusTodo && task.HasSummary() {
			if err := tx.SetPlanSummary(ctx, task.ID, ""); err != nil {
				return state.DBError("clear plan summary", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// afterLostRace resolves a StartPlanning call whose conditional write lost to
// a concurrent caller: the winner's questions are returned when present.
func (s *Service) afterLostRace(ctx context.Context, taskID string) (*PlanState, error) {
	plan, err := s.PlanState(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if plan.Status == models.TaskStatusPlanning && len(plan.Questions) > 0 {
		s.logger.Debug("planning already started concurrently", "task_id", taskID)
		return plan, nil
	}
	return nil, &models.TransitionError{From: plan.Status, To: models.TaskStatusPlanning}
}

func (s *Service) notifyShared(ctx context.Context, taskID string) {
	if s.notifier == nil {
		return
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil || task == nil || !task.IsShared() {
		return
	}
	if err := s.notifier.Update(ctx, task); err != nil {
		s.logger.Warn("failed to update shared task",
			"task_id", task.ID, "shared_task_id", task.SharedTaskID, "error", err)
	}
}

// SaveAnswers records a batch of answers. Items are saved one by one, so an
// unknown key fails the call with ErrQuestionNotFound after the earlier items
// are already stored. When the plan becomes complete a summary is generated
// and cached unless one exists. The task status is not changed.
func (s *Service) SaveAnswers(ctx context.Context, taskID string, inputs []models.AnswerInput) (*SaveResult, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}

	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	saved := 0
	for _, in := range inputs {
		if err := s.saveAnswer(ctx, task.ID, in); err != nil {
			return nil, err
		}
		saved++
	}

	complete, err := s.IsPlanComplete(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	result := &SaveResult{Saved: saved, Complete: complete}
	if !complete {
		return result, nil
	}

	// Re-read so a summary cached by a concurrent call is reused.
	task, err = s.getTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if task.HasSummary() {
		result.Summary = task.PlanSummary
		return result, nil
	}

	summary, err := s.generateSummary(ctx, task)
	if err != nil {
		return nil, err
	}
	result.Summary = summary
	return result, nil
}

func (s *Service) saveAnswer(ctx context.Context, taskID string, in models.AnswerInput) error {
	question, err := s.store.GetQuestionByKey(ctx, taskID, in.QuestionKey)
	if err != nil {
		return state.DBError("get question", err)
	}
	if question == nil {
		return fmt.Errorf("%w: %s", ErrQuestionNotFound, in.QuestionKey)
	}

	answer := &models.Answer{
		TaskID:       taskID,
		QuestionKey:  question.Key,
		QuestionText: question.Text,
		Text:         in.Text,
	}
	if err := s.store.UpsertAnswer(ctx, answer); err != nil {
		return state.DBError("upsert answer", err)
	}
	s.logger.Debug("answer saved", "task_id", taskID, "question_key", question.Key)
	return nil
}

// CompletePlanning finalizes a complete plan and moves the task to in progress.
func (s *Service) CompletePlanning(ctx context.Context, taskID string) (*CompleteResult, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	next, err := models.FinishPlanning(task.Status)
	if err != nil {
		return nil, err
	}

	complete, err := s.IsPlanComplete(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, ErrIncompletePlan
	}

	summary := task.PlanSummary
	if !task.HasSummary() {
		summary, err = s.generateSummary(ctx, task)
		if err != nil {
			return nil, err
		}
	}

	ok, err := s.store.UpdateTaskStatus(ctx, task.ID, task.Status, next)
	if err != nil {
		return nil, state.DBError("update task status", err)
	}
	if !ok {
		current, err := s.getTask(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		return nil, &models.TransitionError{From: current.Status, To: next}
	}

	s.logger.Info("planning completed", "task_id", task.ID)
	return &CompleteResult{Status: next, Summary: summary}, nil
}

// generateSummary produces the requirements summary from the stored answers
// and caches it on the task. The output is used verbatim.
func (s *Service) generateSummary(ctx context.Context, task *models.Task) (string, error) {
	answers, err := s.store.ListAnswersByTask(ctx, task.ID)
	if err != nil {
		return "", state.DBError("list answers", err)
	}
	if len(answers) == 0 {
		return "", ErrNoAnswers
	}

	summary, err := s.gen.Invoke(ctx, generation.Request{
		Prompt:    buildSummaryPrompt(task, answers),
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	if err := s.store.SetPlanSummary(ctx, task.ID, summary); err != nil {
		return "", state.DBError("set plan summary", err)
	}
	s.logger.Info("plan summary cached", "task_id", task.ID, "answers", len(answers))
	return summary, nil
}

// IsPlanComplete reports whether the task's answers pass the completeness gate.
func (s *Service) IsPlanComplete(ctx context.Context, taskID string) (bool, error) {
	questions, err := s.store.ListQuestionsByTask(ctx, taskID)
	if err != nil {
		return false, state.DBError("list questions", err)
	}
	answers, err := s.store.ListAnswersByTask(ctx, taskID)
	if err != nil {
		return false, state.DBError("list answers", err)
	}
	return IsComplete(questions, answers), nil
}

// PlanState returns the task's questions, answers and cached summary.
func (s *Service) PlanState(ctx context.Context, taskID string) (*PlanState, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestionsByTask(ctx, task.ID)
	if err != nil {
		return nil, state.DBError("list questions", err)
	}
	answers, err := s.store.ListAnswersByTask(ctx, task.ID)
	if err != nil {
		return nil, state.DBError("list answers", err)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	if answers == nil {
		answers = []models.Answer{}
	}

	return &PlanState{
		TaskID:    task.ID,
		Status:    task.Status,
		Questions: questions,
		Answers:   answers,
		Summary:   task.PlanSummary,
		Complete:  IsComplete(questions, answers),
	}, nil
}

func (s *Service) getTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, state.DBError("get task", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return task, nil
}
