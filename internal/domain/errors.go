package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDataUnavailable = errors.New("no exchange rates available")
	ErrUpstreamFetch   = errors.New("rate feed unreachable")
	ErrUpstreamData    = errors.New("rate feed returned invalid data")
	ErrPersistence     = errors.New("persistence failure")

	ErrSnapshotNotFound    = errors.New("rate snapshot not found")
	ErrSnapshotExists      = errors.New("rate snapshot already exists")
	ErrSnapshotExpired     = errors.New("rate snapshot already expired")
	ErrAuditRecordNotFound = errors.New("audit record not found")
	ErrAuditRecordExists   = errors.New("audit record already exists")
)

// ValidationError is a client-caused failure. Message is safe to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type Stage string

const (
	StageSnapshotCheck  Stage = "snapshot_check"
	StageFetch          Stage = "fetch"
	StageValidate       Stage = "validate"
	StagePersist        Stage = "persist"
	StageSnapshotLookup Stage = "snapshot_lookup"
	StageAuditWrite     Stage = "audit_write"
)

// StageError records where a pipeline failed (Stage), what kind of failure it
// was (Kind, one of the sentinels above) and the underlying cause.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error { return []error{e.Kind, e.Err} }

func NewStageError(stage Stage, kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// ErrorClass is the coarse classification that crosses the system boundary.
type ErrorClass string

const (
	ClassValidation  ErrorClass = "validation"
	ClassUnavailable ErrorClass = "unavailable"
	ClassInternal    ErrorClass = "internal"
)

func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, ErrValidation):
		return ClassValidation
	case errors.Is(err, ErrDataUnavailable):
		return ClassUnavailable
	default:
		return ClassInternal
	}
}

// StageOf returns the failing stage of err, or an empty Stage.
func StageOf(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
