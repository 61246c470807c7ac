// Package result models the outcome of best-effort lookups that may find
// data, find nothing, or fail, and runs ordered fallback cascades over them.
package result

import (
	"context"
	"log/slog"
)

// Status is the outcome kind of a best-effort step.
type Status int

const (
	// StatusEmpty means the step ran and produced no data.
	StatusEmpty Status = iota
	// StatusFound means the step produced a usable value.
	StatusFound
	// StatusFailed means the step could not complete (network, decode, storage...).
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusFailed:
		return "failed"
	default:
		return "empty"
	}
}

// Result carries a value together with how it was obtained.
// Err is only set when Status is StatusFailed.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// Found wraps a usable value.
func Found[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusFound}
}

// Empty reports that nothing was found.
func Empty[T any]() Result[T] {
	return Result[T]{Status: StatusEmpty}
}

// Failed reports that the step failed with err.
func Failed[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}

// OK reports whether the result holds a usable value.
func (r Result[T]) OK() bool {
	return r.Status == StatusFound
}

// Get returns the value and whether it is usable. Failures and empty
// results both collapse to "no data" here.
func (r Result[T]) Get() (T, bool) {
	return r.Value, r.Status == StatusFound
}

// Strategy is one named step of a cascade.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) Result[T]
}

// First evaluates strategies in order and returns the first Found result.
// Failed steps are logged and skipped. If no step finds anything the result
// is Empty, or Failed when every step failed.
func First[T any](ctx context.Context, strategies ...Strategy[T]) Result[T] {
	var lastErr error
	failed := 0
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return Failed[T](err)
		}
		res := s.Run(ctx)
		switch res.Status {
		case StatusFound:
			slog.Debug("Cascade step succeeded", "step", s.Name)
			return res
		case StatusFailed:
			failed++
			lastErr = res.Err
			slog.Debug("Cascade step failed", "step", s.Name, "error", res.Err)
		default:
			slog.Debug("Cascade step found nothing", "step", s.Name)
		}
	}
	if len(strategies) > 0 && failed == len(strategies) {
		return Failed[T](lastErr)
	}
	return Empty[T]()
}
