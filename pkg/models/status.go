package models

import (
	"errors"
	"fmt"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusTodo indicates the task has not been planned or started.
	TaskStatusTodo TaskStatus = "todo"
	// TaskStatusPlanning indicates clarification questions are being answered.
	TaskStatusPlanning TaskStatus = "planning"
	// TaskStatusInProgress indicates development is underway.
	TaskStatusInProgress TaskStatus = "inprogress"
	// TaskStatusInReview indicates the work is waiting for review.
	TaskStatusInReview TaskStatus = "inreview"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusCancelled indicates the task was abandoned.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// ErrInvalidTransition is returned when a status change is not permitted.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError describes a rejected status change.
type TransitionError struct {
	From TaskStatus
	To   TaskStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusPlanning, TaskStatusInProgress,
		TaskStatusInReview, TaskStatusDone, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// allowedTransitions lists the status changes planning is allowed to make.
// Planning -> Planning is the re-entry used when questions must be regenerated.
var allowedTransitions = map[TaskStatus]map[TaskStatus]struct{}{
	TaskStatusTodo: {
		TaskStatusPlanning: {},
	},
	TaskStatusPlanning: {
		TaskStatusPlanning:   {},
		TaskStatusInProgress: {},
	},
}

// CanTransition reports whether from -> to is an allowed planning transition.
func CanTransition(from, to TaskStatus) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Transition validates from -> to and returns the new status.
func Transition(from, to TaskStatus) (TaskStatus, error) {
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}

// BeginPlanning moves a task into planning. Todo and Planning are accepted.
func BeginPlanning(from TaskStatus) (TaskStatus, error) {
	return Transition(from, TaskStatusPlanning)
}

// FinishPlanning moves a planned task into development.
func FinishPlanning(from TaskStatus) (TaskStatus, error) {
	return Transition(from, TaskStatusInProgress)
}
