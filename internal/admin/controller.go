// Package admin is the fulfillment controller: operator-triggered lifecycle
// transitions, one edge at a time, behind a capability check.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gerai/storefront/internal/identity"
	"github.com/gerai/storefront/internal/order"
)

var ErrUnauthorized = errors.New("operator authorization required")

type Controller struct {
	orders order.Repository
}

func NewController(orders order.Repository) *Controller {
	return &Controller{orders: orders}
}

// ConfirmPayment moves a PENDING_PAYMENT order to PROCESSING. For COD orders
// this is how funds get confirmed; for online orders it mirrors what the
// gateway callback would have done.
func (c *Controller) ConfirmPayment(ctx context.Context, actor *identity.Actor, orderID uuid.UUID) (*order.Order, error) {
	if !actor.IsOperator() {
		return nil, ErrUnauthorized
	}
	return c.transition(ctx, actor, orderID, order.EventPaymentConfirmed)
}

func (c *Controller) Ship(ctx context.Context, actor *identity.Actor, orderID uuid.UUID) (*order.Order, error) {
	if !actor.IsOperator() {
		return nil, ErrUnauthorized
	}
	return c.transition(ctx, actor, orderID, order.EventShipped)
}

func (c *Controller) Deliver(ctx context.Context, actor *identity.Actor, orderID uuid.UUID) (*order.Order, error) {
	if !actor.IsOperator() {
		return nil, ErrUnauthorized
	}
	return c.transition(ctx, actor, orderID, order.EventDelivered)
}

// Cancel is the escape hatch: operators may cancel any cancellable order,
// customers only their own.
func (c *Controller) Cancel(ctx context.Context, actor *identity.Actor, orderID uuid.UUID) (*order.Order, error) {
	if !actor.IsOperator() {
		o, err := c.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, c.wrapLoadErr(orderID, err)
		}
		if o.UserID != actor.ID {
			return nil, ErrUnauthorized
		}
	}
	return c.transition(ctx, actor, orderID, order.EventCancelled)
}

// transition advances the order one edge. Re-applying an already-applied
// event returns the order unchanged rather than erroring, and the
// compare-and-set in the repository guarantees it is never applied twice.
func (c *Controller) transition(ctx context.Context, actor *identity.Actor, orderID uuid.UUID, event order.Event) (*order.Order, error) {
	o, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, c.wrapLoadErr(orderID, err)
	}

	target, ok := order.Target(o.Status, event)
	if !ok {
		// Already at the state this event leads to: idempotent no-op.
		if alreadyApplied(o.Status, event) {
			log.Info().Stringer("order_id", orderID).Str("event", event.String()).Msg("controller: event already applied, returning order unchanged")
			return o, nil
		}
		log.Warn().Stringer("order_id", orderID).Str("current_status", o.Status.String()).Str("event", event.String()).Msg("controller: illegal transition attempt")
		return nil, &order.TransitionError{From: o.Status, Event: event}
	}

	err = c.orders.UpdateStatus(ctx, orderID, o.Status, target)
	if errors.Is(err, order.ErrStatusConflict) {
		fresh, readErr := c.orders.GetByID(ctx, orderID)
		if readErr != nil {
			return nil, c.wrapLoadErr(orderID, readErr)
		}
		if fresh.Status == target {
			return fresh, nil
		}
		return nil, &order.TransitionError{From: fresh.Status, Event: event}
	}
	if err != nil {
		return nil, fmt.Errorf("controller: failed to persist transition: %w", err)
	}

	o.Status = target
	log.Info().Stringer("order_id", orderID).Stringer("actor_id", actor.ID).Str("event", event.String()).Str("new_status", target.String()).Msg("controller: order advanced")

	return o, nil
}

// alreadyApplied reports whether the order already sits in the state the
// event targets from its predecessor, e.g. a second ship request on a
// SHIPPED order.
func alreadyApplied(current order.OrderStatus, event order.Event) bool {
	switch event {
	case order.EventPaymentConfirmed:
		return current == order.StatusProcessing
	case order.EventShipped:
		return current == order.StatusShipped
	case order.EventDelivered:
		return current == order.StatusDelivered
	case order.EventCancelled:
		return current == order.StatusCancelled
	}
	return false
}

func (c *Controller) wrapLoadErr(orderID uuid.UUID, err error) error {
	if errors.Is(err, order.ErrOrderNotFound) {
		return order.ErrOrderNotFound
	}
	return fmt.Errorf("controller: failed to load order %s: %w", orderID, err)
}
