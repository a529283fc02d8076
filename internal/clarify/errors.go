package clarify

import "errors"

// Sentinel errors. Store failures wrap state.ErrDatabase, generation failures
// wrap generation.ErrUnavailable or generation.ErrFailed and invalid status
// changes wrap models.ErrInvalidTransition.
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrInvalidResponse  = errors.New("invalid generation response")
	ErrNoQuestions      = errors.New("no clarification questions available")
	ErrNoAnswers        = errors.New("no clarification answers available")
	ErrQuestionNotFound = errors.New("question not found")
	ErrEmptyBatch       = errors.New("no answers submitted")
	ErrIncompletePlan   = errors.New("plan is incomplete")
)

// errLostRace signals that another caller changed the task between the read
// and the conditional write.
var errLostRace = errors.New("task changed concurrently")
