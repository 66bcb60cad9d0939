package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerai/storefront/internal/cart"
	"github.com/gerai/storefront/internal/order"
	"github.com/gerai/storefront/internal/payment"
	"github.com/gerai/storefront/internal/pricing"
)

type mockRepository struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	updateFunc  func(ctx context.Context, orderID uuid.UUID, from, to order.OrderStatus) error
	updateCalls int
}

func (m *mockRepository) Create(ctx context.Context, o *order.Order) error {
	return errors.New("not expected in this test")
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return nil, errors.New("not expected in this test")
}

func (m *mockRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to order.OrderStatus) error {
	m.updateCalls++
	return m.updateFunc(ctx, orderID, from, to)
}

func (m *mockRepository) SetTransactionRef(ctx context.Context, orderID uuid.UUID, ref string) error {
	return errors.New("not expected in this test")
}

type mockCartService struct {
	clearFunc  func(ctx context.Context, sessionID string) error
	clearCalls int
}

func (m *mockCartService) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return nil, errors.New("not expected in this test")
}

func (m *mockCartService) AddLine(ctx context.Context, sessionID string, line cart.Line) (*cart.Cart, error) {
	return nil, errors.New("not expected in this test")
}

func (m *mockCartService) DecrementLine(ctx context.Context, sessionID, lineKey string) (*cart.Cart, error) {
	return nil, errors.New("not expected in this test")
}

func (m *mockCartService) RemoveLine(ctx context.Context, sessionID, lineKey string) (*cart.Cart, error) {
	return nil, errors.New("not expected in this test")
}

func (m *mockCartService) Clear(ctx context.Context, sessionID string) error {
	m.clearCalls++
	if m.clearFunc != nil {
		return m.clearFunc(ctx, sessionID)
	}
	return nil
}

func pendingOrder(t *testing.T, method pricing.PaymentMethod) *order.Order {
	t.Helper()
	orderID, err := uuid.NewV4()
	require.NoError(t, err)
	userID, err := uuid.NewV4()
	require.NoError(t, err)

	return &order.Order{
		ID:            orderID,
		UserID:        userID,
		PaymentMethod: method,
		Status:        order.StatusPendingPayment,
		TotalPrice:    212000,
	}
}

func fixture(o *order.Order) (*payment.Orchestrator, *mockRepository, *mockCartService) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			copied := *o
			return &copied, nil
		},
		updateFunc: func(ctx context.Context, orderID uuid.UUID, from, to order.OrderStatus) error {
			if o.Status != from {
				return order.ErrStatusConflict
			}
			o.Status = to
			return nil
		},
	}
	carts := &mockCartService{}
	return payment.NewOrchestrator(repo, carts), repo, carts
}

func TestOrchestrator_HandleOutcome_Success(t *testing.T) {
	o := pendingOrder(t, pricing.MethodOnlineVA)
	orch, repo, carts := fixture(o)

	result, err := orch.HandleOutcome(context.Background(), o.ID, payment.OutcomeSuccess)
	require.NoError(t, err)

	assert.Equal(t, order.StatusProcessing, result.Order.Status)
	assert.True(t, result.CartCleared)
	assert.Equal(t, 1, repo.updateCalls)
	assert.Equal(t, 1, carts.clearCalls)
}

// The same success event applied twice must land in the same state as
// applying it once, with no second transition.
func TestOrchestrator_HandleOutcome_SuccessIsIdempotent(t *testing.T) {
	o := pendingOrder(t, pricing.MethodOnlineVA)
	orch, repo, carts := fixture(o)

	first, err := orch.HandleOutcome(context.Background(), o.ID, payment.OutcomeSuccess)
	require.NoError(t, err)

	second, err := orch.HandleOutcome(context.Background(), o.ID, payment.OutcomeSuccess)
	require.NoError(t, err)

	assert.Equal(t, first.Order.Status, second.Order.Status)
	assert.Equal(t, order.StatusProcessing, second.Order.Status)
	assert.Equal(t, 1, repo.updateCalls, "transition must be applied exactly once")
	assert.Equal(t, 1, carts.clearCalls, "cart is only cleared on the applying call")
}

func TestOrchestrator_HandleOutcome_NonTerminalOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		outcome   payment.Outcome
		retryable bool
	}{
		{"pending_keeps_order_waiting", payment.OutcomePending, false},
		{"error_is_retryable", payment.OutcomeError, true},
		{"closed_abandons_the_attempt_only", payment.OutcomeClosed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := pendingOrder(t, pricing.MethodOnlineVA)
			orch, repo, carts := fixture(o)

			result, err := orch.HandleOutcome(context.Background(), o.ID, tt.outcome)
			require.NoError(t, err)

			assert.Equal(t, order.StatusPendingPayment, result.Order.Status)
			assert.Equal(t, tt.retryable, result.Retryable)
			assert.False(t, result.CartCleared)
			assert.Zero(t, repo.updateCalls, "no transition may be applied")
			assert.Zero(t, carts.clearCalls, "cart must be preserved for a retry")
		})
	}
}

func TestOrchestrator_HandleOutcome_SuccessOnCancelledOrder(t *testing.T) {
	o := pendingOrder(t, pricing.MethodOnlineVA)
	o.Status = order.StatusCancelled
	orch, _, _ := fixture(o)

	_, err := orch.HandleOutcome(context.Background(), o.ID, payment.OutcomeSuccess)

	var tErr *order.TransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, order.StatusCancelled, tErr.From)
}

func TestOrchestrator_HandleOutcome_CODOrderRejected(t *testing.T) {
	o := pendingOrder(t, pricing.MethodCashOnDelivery)
	orch, _, _ := fixture(o)

	_, err := orch.HandleOutcome(context.Background(), o.ID, payment.OutcomeSuccess)
	assert.ErrorIs(t, err, payment.ErrNotOnlineOrder)
}

func TestOrchestrator_HandleOutcome_OrderNotFound(t *testing.T) {
	o := pendingOrder(t, pricing.MethodOnlineVA)
	orch, repo, _ := fixture(o)
	repo.getByIDFunc = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return nil, order.ErrOrderNotFound
	}

	_, err := orch.HandleOutcome(context.Background(), o.ID, payment.OutcomeSuccess)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

// A concurrent writer winning the compare-and-set still yields an idempotent
// answer once the fresh read shows the target state.
func TestOrchestrator_HandleOutcome_ConflictResolvedByReread(t *testing.T) {
	o := pendingOrder(t, pricing.MethodOnlineVA)
	orch, repo, _ := fixture(o)

	reads := 0
	repo.getByIDFunc = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		reads++
		copied := *o
		if reads > 1 {
			copied.Status = order.StatusProcessing
		}
		return &copied, nil
	}
	repo.updateFunc = func(ctx context.Context, orderID uuid.UUID, from, to order.OrderStatus) error {
		return order.ErrStatusConflict
	}

	result, err := orch.HandleOutcome(context.Background(), o.ID, payment.OutcomeSuccess)
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, result.Order.Status)
}

func TestMapNotification(t *testing.T) {
	tests := []struct {
		status string
		want   payment.Outcome
	}{
		{"settlement", payment.OutcomeSuccess},
		{"capture", payment.OutcomeSuccess},
		{"pending", payment.OutcomePending},
		{"deny", payment.OutcomeError},
		{"expire", payment.OutcomeError},
		{"cancel", payment.OutcomeError},
		{"garbage", payment.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, payment.MapNotification(tt.status))
		})
	}
}
