package lifecycle

import (
	"context"

	"github.com/looplab/fsm"

	"rentrush-backend/internal/domain"
)

const (
	EventConfirm  = "confirm"
	EventModify   = "modify"
	EventComplete = "complete"
	EventCancel   = "cancel"
)

var (
	requested = string(domain.BookingStatusRequested)
	confirmed = string(domain.BookingStatusConfirmed)
	modified  = string(domain.BookingStatusModified)
	completed = string(domain.BookingStatusCompleted)
	cancelled = string(domain.BookingStatusCancelled)
)

// BookingMachine drives a booking through
// Requested -> Confirmed -> Modified* -> Completed | Cancelled.
type BookingMachine struct {
	*fsm.FSM
	booking *domain.Booking
}

// NewBookingMachine starts a machine at the booking's current status and
// writes every transition back onto the booking.
func NewBookingMachine(b *domain.Booking) *BookingMachine {
	m := &BookingMachine{booking: b}

	initial := string(b.Status)
	if initial == "" {
		initial = requested
	}

	events := fsm.Events{
		{Name: EventConfirm, Src: []string{requested}, Dst: confirmed},
		{Name: EventModify, Src: []string{confirmed, modified}, Dst: modified},
		{Name: EventComplete, Src: []string{confirmed, modified}, Dst: completed},
		{Name: EventCancel, Src: []string{requested, confirmed, modified}, Dst: cancelled},
	}

	callbacks := fsm.Callbacks{
		"enter_state": WrapEvent(m.actionEnterState),
	}

	m.FSM = fsm.NewFSM(initial, events, callbacks)
	return m
}

func (m *BookingMachine) actionEnterState(_ context.Context, e *fsm.Event) error {
	m.booking.Status = domain.BookingStatus(e.Dst)
	return nil
}

// Fire applies event to the booking.
func (m *BookingMachine) Fire(ctx context.Context, event string) error {
	return fire(ctx, m.FSM, event, "booking")
}

// Transition is a one-shot helper for callers that do not keep the machine.
func Transition(ctx context.Context, b *domain.Booking, event string) error {
	return NewBookingMachine(b).Fire(ctx, event)
}
