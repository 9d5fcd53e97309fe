package workflow

import (
	"context"
	"slices"
	"testing"

	"github.com/pkg/errors"
)

func TestWorkflowCompensation(t *testing.T) {
	calls := make([]string, 0)

	record := func(name string, err error) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			calls = append(calls, name)
			return err
		}
	}

	errFailed := errors.New("failed")

	wf := New(
		StepFunc("first", record("execute first", nil), record("compensate first", nil)),
		StepFunc("second", record("execute second", nil), record("compensate second", nil)),
		StepFunc("third", record("execute third", errFailed), record("compensate third", nil)),
	)

	err := wf.Execute(t.Context())
	if !errors.Is(err, errFailed) {
		t.Fatalf("err: expected errFailed, got %+v", err)
	}

	expected := []string{
		"execute first", "execute second", "execute third",
		"compensate second", "compensate first",
	}

	if !slices.Equal(expected, calls) {
		t.Errorf("calls: expected %v, got %v", expected, calls)
	}
}

func TestWorkflowCompensationError(t *testing.T) {
	errFailed := errors.New("failed")
	errCompensation := errors.New("compensation failed")

	wf := New(
		StepFunc("upload", func(ctx context.Context) error { return nil }, func(ctx context.Context) error { return errCompensation }),
		StepFunc("save", func(ctx context.Context) error { return errFailed }, nil),
	)

	err := wf.Execute(t.Context())

	var compensationErr *CompensationError
	if !errors.As(err, &compensationErr) {
		t.Fatalf("err: expected a *CompensationError, got %+v", err)
	}

	if e, g := 1, len(compensationErr.CompensationErrors()); e != g {
		t.Errorf("len(compensationErr.CompensationErrors()): expected %v, got %v", e, g)
	}

	if !errors.Is(err, errFailed) {
		t.Errorf("err: expected to match the execution error")
	}
}
