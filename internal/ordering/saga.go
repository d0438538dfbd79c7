package ordering

import (
	"context"
	"fmt"
)

// Step is one idempotent write with its compensation.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Saga runs steps without a surrounding transaction. On failure the completed
// steps are undone in reverse order.
type Saga struct {
	Steps []Step
}

type SagaError struct {
	Step    string
	Err     error
	UndoErr error
	// Reconcile carries the refetched rows when compensation failed.
	Reconcile interface{}
}

func (e *SagaError) Error() string {
	if e.UndoErr != nil {
		return fmt.Sprintf("step %q failed: %v (compensation failed: %v)", e.Step, e.Err, e.UndoErr)
	}
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *SagaError) Unwrap() error {
	return e.Err
}

// Compensated reports whether every completed step was rolled back.
func (e *SagaError) Compensated() bool {
	return e.UndoErr == nil
}

func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.Steps {
		if err := step.Do(ctx); err != nil {
			sagaErr := &SagaError{Step: step.Name, Err: err}
			for j := i - 1; j >= 0; j-- {
				undo := s.Steps[j].Undo
				if undo == nil {
					continue
				}
				if uerr := undo(ctx); uerr != nil {
					sagaErr.UndoErr = fmt.Errorf("undo %q: %w", s.Steps[j].Name, uerr)
					break
				}
			}
			return sagaErr
		}
	}
	return nil
}
