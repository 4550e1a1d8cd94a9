package service

import (
	"errors"
	"strings"

	"purchaseflow/internal/rules"
)

var (
	ErrNotFound   = errors.New("purchase request not found")
	ErrValidation = errors.New("purchase request is invalid")
)

// ValidationError carries the full verdict of a rejected submission.
type ValidationError struct {
	Result rules.ValidationResult
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Result.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ErrWorkflowUnavailable means the request was stored but the orchestration
// runtime did not start a process for it; it stays PENDING.
var ErrWorkflowUnavailable = errors.New("approval process could not be started")

// ErrSweepRunning is returned when a reminder sweep is requested while
// another one is still in progress.
var ErrSweepRunning = errors.New("reminder sweep already running")
