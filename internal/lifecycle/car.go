package lifecycle

import (
	"context"

	"github.com/looplab/fsm"

	"rentrush-backend/internal/domain"
)

const (
	EventRent              = "rent"
	EventRelease           = "release"
	EventReturn            = "return"
	EventPassInspection    = "pass_inspection"
	EventStartMaintenance  = "start_maintenance"
	EventFinishMaintenance = "finish_maintenance"
)

var (
	available         = string(domain.CarAvailable)
	rentedOut         = string(domain.CarRentedOut)
	pendingInspection = string(domain.CarPendingInspection)
	inMaintenance     = string(domain.CarInMaintenance)
)

// CarMachine governs car availability. A returned car waits in Pending
// Inspection until its showroom clears it or sends it to maintenance.
type CarMachine struct {
	*fsm.FSM
	car *domain.Car
}

func NewCarMachine(car *domain.Car) *CarMachine {
	m := &CarMachine{car: car}

	initial := string(car.Availability)
	if initial == "" {
		initial = available
	}

	events := fsm.Events{
		{Name: EventRent, Src: []string{available}, Dst: rentedOut},
		{Name: EventRelease, Src: []string{rentedOut}, Dst: available},
		{Name: EventReturn, Src: []string{rentedOut}, Dst: pendingInspection},
		{Name: EventPassInspection, Src: []string{pendingInspection}, Dst: available},
		{Name: EventStartMaintenance, Src: []string{available, pendingInspection, inMaintenance}, Dst: inMaintenance},
		{Name: EventFinishMaintenance, Src: []string{inMaintenance}, Dst: available},
	}

	callbacks := fsm.Callbacks{
		"enter_state": WrapEvent(m.actionEnterState),
	}

	m.FSM = fsm.NewFSM(initial, events, callbacks)
	return m
}

func (m *CarMachine) actionEnterState(_ context.Context, e *fsm.Event) error {
	m.car.Availability = domain.CarAvailability(e.Dst)
	return nil
}

// Fire applies event to the car.
func (m *CarMachine) Fire(ctx context.Context, event string) error {
	return fire(ctx, m.FSM, event, "car")
}

// Move is a one-shot helper for callers that do not keep the machine.
func Move(ctx context.Context, car *domain.Car, event string) error {
	return NewCarMachine(car).Fire(ctx, event)
}
