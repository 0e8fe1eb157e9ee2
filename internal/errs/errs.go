// Package errs defines the typed failures surfaced by the workflow engine.
package errs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"demos/internal/domain"
)

// ErrNotFound is matched by NotFoundError through errors.Is.
var ErrNotFound = errors.New("not found")

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type NotFoundError struct {
	Entity string
	Key    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DateFormatError reports a date whose time of day is not the required boundary.
type DateFormatError struct {
	DateType domain.DateType
	Value    time.Time
	Expected domain.ExpectedTimestamp
}

func (e DateFormatError) Error() string {
	return fmt.Sprintf("%s must be %s in the business timezone; got %s",
		e.DateType, strings.ToLower(string(e.Expected)), e.Value.Format(timeLayout))
}

// DateOrderError reports a date that does not come after another one.
type DateOrderError struct {
	DateType domain.DateType
	Other    domain.DateType
	Strict   bool
}

func (e DateOrderError) Error() string {
	rel := "greater than or equal to"
	if e.Strict {
		rel = "greater than"
	}
	return fmt.Sprintf("%s must be %s %s", e.DateType, rel, e.Other)
}

// DateOffsetError reports a date that is not a fixed number of days from another.
type DateOffsetError struct {
	DateType domain.DateType
	Other    domain.DateType
	Days     int
	Expected domain.ExpectedTimestamp
	Want     time.Time
	Got      time.Time
}

func (e DateOffsetError) Error() string {
	return fmt.Sprintf("%s must be %d days from %s at %s (%s); got %s",
		e.DateType, e.Days, e.Other, strings.ToLower(string(e.Expected)),
		e.Want.Format(timeLayout), e.Got.Format(timeLayout))
}

// DateConflictError reports a date type that is both set and cleared, or set
// twice with different values, in one request.
type DateConflictError struct {
	DateType domain.DateType
	Reason   string
}

func (e DateConflictError) Error() string {
	return fmt.Sprintf("%s %s", e.DateType, e.Reason)
}

// LockedDate is one date type that belongs to a finished phase.
type LockedDate struct {
	DateType domain.DateType  `json:"date_type"`
	Phase    domain.PhaseName `json:"phase_name"`
}

// DateChangeNotAllowedError lists every date change rejected because the
// owning phase is already finished.
type DateChangeNotAllowedError struct {
	Dates []LockedDate
}

func (e DateChangeNotAllowedError) Error() string {
	parts := make([]string, 0, len(e.Dates))
	for _, d := range e.Dates {
		parts = append(parts, fmt.Sprintf("%s date on %s phase", d.DateType, d.Phase))
	}
	return "cannot modify dates because they are associated with finished phases: " + strings.Join(parts, ", ")
}

// PhaseActionError reports a phase that cannot be completed through completePhase.
type PhaseActionError struct {
	Phase  domain.PhaseName
	Reason string
}

func (e PhaseActionError) Error() string {
	return fmt.Sprintf("phase %s: %s", e.Phase, e.Reason)
}

// PhaseTransitionError reports a status change the phase lifecycle forbids.
type PhaseTransitionError struct {
	Phase domain.PhaseName
	From  domain.PhaseStatus
	Event string
}

func (e PhaseTransitionError) Error() string {
	return fmt.Sprintf("phase %s cannot %s from %s", e.Phase, strings.ToLower(e.Event), e.From)
}

// MissingKind classifies an unmet completion precondition.
type MissingKind string

const (
	MissingDate     MissingKind = "date"
	MissingDocument MissingKind = "document"
	MissingPhase    MissingKind = "phase"
	NotStarted      MissingKind = "status"
)

type MissingItem struct {
	Kind MissingKind `json:"kind"`
	Name string      `json:"name"`
}

func (m MissingItem) String() string {
	switch m.Kind {
	case MissingDate:
		return "missing date " + m.Name
	case MissingDocument:
		return "missing document " + m.Name
	case MissingPhase:
		return "phase " + m.Name + " not completed"
	case NotStarted:
		return "phase is " + m.Name + ", expected Started"
	}
	return m.Name
}

// PhaseIncompleteError carries every unmet completion precondition.
type PhaseIncompleteError struct {
	Phase   domain.PhaseName
	Missing []MissingItem
}

func (e PhaseIncompleteError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, m.String())
	}
	return fmt.Sprintf("phase %s is incomplete: %s", e.Phase, strings.Join(parts, "; "))
}

// ConstraintViolationError wraps a datastore rejection caused by a foreign key
// or uniqueness constraint.
type ConstraintViolationError struct {
	Constraint string
	Err        error
}

func (e ConstraintViolationError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("constraint violation: %v", e.Err)
	}
	return fmt.Sprintf("constraint %s violated: %v", e.Constraint, e.Err)
}

func (e ConstraintViolationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a caller mistake rather than a server fault.
func IsValidation(err error) bool {
	var (
		dfe  DateFormatError
		doe  DateOrderError
		dofe DateOffsetError
		dce  DateConflictError
		dde  *domain.DeserializationError
	)
	return errors.As(err, &dfe) || errors.As(err, &doe) || errors.As(err, &dofe) ||
		errors.As(err, &dce) || errors.As(err, &dde)
}
