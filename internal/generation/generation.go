// Package generation defines the pluggable text-generation capability used to
// produce clarifying questions and plan summaries.
package generation

import (
	"context"
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by a Capability wraps exactly one of them.
var (
	// ErrUnavailable means the backend cannot be reached or is not configured.
	ErrUnavailable = errors.New("generation unavailable")
	// ErrFailed means the backend was reached but the call did not produce output.
	ErrFailed = errors.New("generation failed")
)

// Message is one prior turn passed to the backend as context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single generation call.
type Request struct {
	Prompt    string    `json:"prompt"`
	Context   []Message `json:"context,omitempty"`
	MaxTokens int       `json:"max_tokens"`
}

// Capability turns a prompt into free text.
type Capability interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// Error is a classified generation failure.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Unavailable builds an ErrUnavailable failure.
func Unavailable(format string, args ...any) error {
	return &Error{Kind: ErrUnavailable, Msg: fmt.Sprintf(format, args...)}
}

// Failed builds an ErrFailed failure.
func Failed(format string, args ...any) error {
	return &Error{Kind: ErrFailed, Msg: fmt.Sprintf(format, args...)}
}

// Func adapts an ordinary function to the Capability interface.
type Func func(ctx context.Context, req Request) (string, error)

// Invoke calls f(ctx, req).
func (f Func) Invoke(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
