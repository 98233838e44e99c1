package calculator

import (
	"errors"
	"fmt"

	"tariff-backtest/internal/backtest"
	"tariff-backtest/internal/data"
	"tariff-backtest/internal/simulation"
)

// Kind classifies a failed calculation for the boundary layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindParse
	KindEvaluation
	KindSimulation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindParse:
		return "parse"
	case KindEvaluation:
		return "evaluation"
	case KindSimulation:
		return "simulation"
	default:
		return "unknown"
	}
}

// Error is the only error type ComputeAnnualCost and FromRaw return.
// Err is the component error and can be inspected with errors.As.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError reports semantically invalid calculation input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}}
}

// classify wraps a component error into an *Error, keeping an existing classification.
func classify(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	var (
		pe *data.ParseError
		ve *ValidationError
		ee *backtest.EvaluationError
		se *simulation.Error
	)
	switch {
	case errors.As(err, &pe):
		return &Error{Kind: KindParse, Err: err}
	case errors.As(err, &ve):
		return &Error{Kind: KindValidation, Err: err}
	case errors.As(err, &se):
		return &Error{Kind: KindSimulation, Err: err}
	case errors.As(err, &ee):
		return &Error{Kind: KindEvaluation, Err: err}
	default:
		return &Error{Kind: KindEvaluation, Err: err}
	}
}
