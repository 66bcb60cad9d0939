package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gerai/storefront/internal/cart"
	"github.com/gerai/storefront/internal/order"
	"github.com/gerai/storefront/internal/pricing"
)

// Outcome is the single tagged variant behind the widget's four mutually
// exclusive callbacks. At most one fires per payment attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomePending Outcome = "PENDING"
	OutcomeError   Outcome = "ERROR"
	OutcomeClosed  Outcome = "CLOSED"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomePending, OutcomeError, OutcomeClosed:
		return true
	}
	return false
}

var ErrNotOnlineOrder = errors.New("payment outcomes only apply to online orders")

// Result is what the orchestrator reports back to the client after consuming
// an outcome.
type Result struct {
	Order       *order.Order `json:"order"`
	CartCleared bool         `json:"cart_cleared"`
	Retryable   bool         `json:"retryable"`
	Message     string       `json:"message"`
}

// Orchestrator maps payment outcomes onto lifecycle transitions. It is the
// one place where control returns asynchronously after a user-driven delay,
// so every path through it must be idempotent.
type Orchestrator struct {
	orders order.Repository
	carts  cart.Service
}

func NewOrchestrator(orders order.Repository, carts cart.Service) *Orchestrator {
	return &Orchestrator{orders: orders, carts: carts}
}

// HandleOutcome consumes one terminal outcome for one payment attempt.
// Success confirms funds and clears the cart; pending, error and closed all
// leave the order in PENDING_PAYMENT with the cart intact so the attempt can
// be retried.
func (p *Orchestrator) HandleOutcome(ctx context.Context, orderID uuid.UUID, outcome Outcome) (*Result, error) {
	o, err := p.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("orchestrator: failed to load order: %w", err)
	}

	if o.PaymentMethod != pricing.MethodOnlineVA {
		return nil, ErrNotOnlineOrder
	}

	switch outcome {
	case OutcomeSuccess:
		return p.confirm(ctx, o)
	case OutcomePending:
		log.Info().Stringer("order_id", o.ID).Msg("orchestrator: payment pending, funds not yet cleared")
		return &Result{Order: o, Message: "waiting for payment to clear"}, nil
	case OutcomeError:
		log.Warn().Stringer("order_id", o.ID).Msg("orchestrator: payment attempt failed, order stays pending")
		return &Result{Order: o, Retryable: true, Message: "payment failed, you can retry checkout"}, nil
	case OutcomeClosed:
		// Soft cancellation of the attempt, not the order.
		log.Info().Stringer("order_id", o.ID).Msg("orchestrator: payment widget dismissed, attempt abandoned")
		return &Result{Order: o, Retryable: true, Message: "payment attempt abandoned, order still awaits payment"}, nil
	default:
		return nil, fmt.Errorf("orchestrator: unknown payment outcome %q", outcome)
	}
}

func (p *Orchestrator) confirm(ctx context.Context, o *order.Order) (*Result, error) {
	// Receiving the same success twice must not apply the transition twice.
	if o.Status == order.StatusProcessing {
		log.Info().Stringer("order_id", o.ID).Msg("orchestrator: payment already confirmed, ignoring duplicate success")
		return &Result{Order: o, Message: "payment already confirmed"}, nil
	}

	if !order.CanTransition(o.Status, order.EventPaymentConfirmed) {
		return nil, &order.TransitionError{From: o.Status, Event: order.EventPaymentConfirmed}
	}

	err := p.orders.UpdateStatus(ctx, o.ID, o.Status, order.StatusProcessing)
	if errors.Is(err, order.ErrStatusConflict) {
		// Lost a race with another writer; re-read and re-judge.
		fresh, readErr := p.orders.GetByID(ctx, o.ID)
		if readErr != nil {
			return nil, fmt.Errorf("orchestrator: failed to re-read order after conflict: %w", readErr)
		}
		if fresh.Status == order.StatusProcessing {
			return &Result{Order: fresh, Message: "payment already confirmed"}, nil
		}
		return nil, &order.TransitionError{From: fresh.Status, Event: order.EventPaymentConfirmed}
	}
	if err != nil {
		return nil, fmt.Errorf("orchestrator: failed to confirm payment: %w", err)
	}

	o.Status = order.StatusProcessing

	// Cart clearing follows the same swallow-and-log rule as cart saves: the
	// confirmed order is the source of truth now.
	cleared := true
	if err := p.carts.Clear(ctx, o.UserID.String()); err != nil {
		log.Warn().Err(err).Stringer("order_id", o.ID).Msg("orchestrator: failed to clear cart after confirmation")
		cleared = false
	}

	log.Info().Stringer("order_id", o.ID).Msg("orchestrator: payment confirmed, order processing")

	return &Result{Order: o, CartCleared: cleared, Message: "payment confirmed"}, nil
}

// MapNotification translates a gateway server-to-server transaction status
// into an outcome, so webhook reconciliation flows through the same handler
// as the client widget. A payment that settles after the widget was closed
// still lands the order in PROCESSING.
func MapNotification(transactionStatus string) Outcome {
	switch transactionStatus {
	case "settlement", "capture":
		return OutcomeSuccess
	case "pending":
		return OutcomePending
	case "deny", "expire", "cancel":
		return OutcomeError
	default:
		return OutcomeError
	}
}
