package order

import "fmt"

// Event is a lifecycle trigger: a payment callback or an operator action.
type Event string

const (
	EventPaymentConfirmed Event = "PAYMENT_CONFIRMED"
	EventShipped          Event = "SHIPPED"
	EventDelivered        Event = "DELIVERED"
	EventCancelled        Event = "CANCELLED"
)

func (e Event) String() string {
	return string(e)
}

// transitions is the full lifecycle graph. Transitions are one-directional,
// never revisit a prior state, and terminal states allow nothing.
var transitions = map[OrderStatus]map[Event]OrderStatus{
	StatusPendingPayment: {
		EventPaymentConfirmed: StatusProcessing,
		EventCancelled:        StatusCancelled,
	},
	StatusProcessing: {
		EventShipped:   StatusShipped,
		EventCancelled: StatusCancelled,
	},
	StatusShipped: {
		EventDelivered: StatusDelivered,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// TransitionError reports an illegal move with the state it was attempted
// from. The engine never coerces to a "closest legal" state.
type TransitionError struct {
	From  OrderStatus
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition: event %s not allowed from status %s", e.Event, e.From)
}

// CanTransition reports whether the event is legal from the given status.
func CanTransition(from OrderStatus, event Event) bool {
	_, ok := transitions[from][event]
	return ok
}

// Target returns the status the event leads to from the given status.
func Target(from OrderStatus, event Event) (OrderStatus, bool) {
	to, ok := transitions[from][event]
	return to, ok
}

// Apply advances the order through one edge of the lifecycle graph, mutating
// only its status. Illegal moves return a *TransitionError and leave the
// order untouched.
func Apply(o *Order, event Event) (*Order, error) {
	to, ok := transitions[o.Status][event]
	if !ok {
		return nil, &TransitionError{From: o.Status, Event: event}
	}

	o.Status = to
	return o, nil
}
