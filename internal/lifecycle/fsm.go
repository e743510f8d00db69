// Package lifecycle holds the state machines that govern booking status
// and car availability. Every status change in the service layer goes
// through one of these machines.
package lifecycle

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"rentrush-backend/internal/domain"
)

// WrapEvent adapts an error-returning callback to fsm.Callback. The error
// surfaces from Event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// fire runs event on f and classifies the outcome. A self-transition is
// not a failure.
func fire(ctx context.Context, f *fsm.FSM, event, subject string) error {
	err := f.Event(ctx, event)
	if err == nil {
		return nil
	}

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		if noTransition.Err != nil {
			return noTransition.Err
		}
		return nil
	}

	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		return domain.Reject(domain.ErrStateConflict, domain.ReasonInvalidTransition,
			"cannot %s a %s in state %q", event, subject, invalid.State)
	}

	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		return canceled.Err
	}
	return err
}
