package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/tesfalem/quotewidget/internal/platform/logging"
)

// Bulk changes run through Execute in five ordered steps. The store is only
// touched in Archive, so a batch rejected earlier leaves the collection as
// it was.

// ExecutionStep names one step of an Operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records which step rejected an operation.
type ExecutionError struct {
	Operation string
	Step      ExecutionStep
	Cause     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s step: %v", e.Operation, e.Step, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation is a bulk change split into steps. I is the raw input, P its
// decoded form, V the checked value that gets stored and O what the caller
// receives. Nil steps are skipped.
type Operation[I, P, V, O any] struct {
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

// Executor runs operations, logging and timing each one.
type Executor struct {
	logger   *slog.Logger
	duration metric.Float64Histogram
}

// NewExecutor creates an executor recording to the global meter provider.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	var duration metric.Float64Histogram = noop.Float64Histogram{}

	h, err := otel.Meter(instrumentationName).Float64Histogram("quotes.operation.duration",
		metric.WithDescription("Bulk operation duration by result"),
		metric.WithUnit("s"),
	)
	if err == nil {
		duration = h
	}

	return &Executor{
		logger:   logger.With(slog.String("component", "app.Executor")),
		duration: duration,
	}
}

// Execute runs op against input and stops at the first failing step. The
// failure comes back as an *ExecutionError wrapping the step's error, so
// domain checks such as domain.IsValidation still see the cause.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
	)

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	reject := func(step ExecutionStep, cause error) (O, error) {
		logger.WarnContext(ctx, "operation rejected",
			slog.String("step", string(step)),
			slog.Any("error", cause),
		)
		exec.record(ctx, op.Name, "rejected", start)

		return zero, &ExecutionError{Operation: op.Name, Step: step, Cause: cause}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			return reject(StepValidate, err)
		}
	}

	if op.Perform != nil {
		var err error
		if performed, err = op.Perform(ctx, input); err != nil {
			return reject(StepPerform, err)
		}
	}

	if op.Verify != nil {
		var err error
		if verified, err = op.Verify(ctx, input, performed); err != nil {
			return reject(StepVerify, err)
		}
	}

	if op.Archive != nil {
		if err := op.Archive(ctx, input, verified); err != nil {
			return reject(StepArchive, err)
		}
	}

	out := zero

	if op.Respond != nil {
		var err error
		if out, err = op.Respond(ctx, input, verified); err != nil {
			return reject(StepRespond, err)
		}
	}

	exec.record(ctx, op.Name, "ok", start)
	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return out, nil
}

func (e *Executor) record(ctx context.Context, name, result string, start time.Time) {
	e.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", name),
		attribute.String("result", result),
	))
}

// IsExecutionError reports whether err came from a rejected step.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// GetExecutionStep returns the step that rejected the operation.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		return "", false
	}

	return execErr.Step, true
}
