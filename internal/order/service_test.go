package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerai/storefront/internal/cart"
	"github.com/gerai/storefront/internal/catalog"
	"github.com/gerai/storefront/internal/order"
	"github.com/gerai/storefront/internal/pricing"
)

type mockRepository struct {
	createFunc      func(ctx context.Context, o *order.Order) error
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	getByUserFunc   func(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	updateFunc      func(ctx context.Context, orderID uuid.UUID, from, to order.OrderStatus) error
	setTxRefFunc    func(ctx context.Context, orderID uuid.UUID, ref string) error
	createCallCount int
}

func (m *mockRepository) Create(ctx context.Context, o *order.Order) error {
	m.createCallCount++
	return m.createFunc(ctx, o)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.getByUserFunc(ctx, userID)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to order.OrderStatus) error {
	return m.updateFunc(ctx, orderID, from, to)
}

func (m *mockRepository) SetTransactionRef(ctx context.Context, orderID uuid.UUID, ref string) error {
	return m.setTxRefFunc(ctx, orderID, ref)
}

type mockCartService struct {
	getFunc    func(ctx context.Context, sessionID string) (*cart.Cart, error)
	clearCalls int
}

func (m *mockCartService) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return m.getFunc(ctx, sessionID)
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
	return nil
}

type mockCatalog struct {
	getProductFunc func(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	callCount      int
}

func (m *mockCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	m.callCount++
	return m.getProductFunc(ctx, id)
}

type mockRateClient struct {
	quoteFunc func(ctx context.Context, origin, destination string, weightGrams int) (pricing.ShippingQuote, error)
	callCount int
}

func (m *mockRateClient) Quote(ctx context.Context, origin, destination string, weightGrams int) (pricing.ShippingQuote, error) {
	m.callCount++
	return m.quoteFunc(ctx, origin, destination, weightGrams)
}

type mockGateway struct {
	createTxFunc func(ctx context.Context, o *order.Order) (string, string, error)
	callCount    int
}

func (m *mockGateway) CreateTransaction(ctx context.Context, o *order.Order) (string, string, error) {
	m.callCount++
	return m.createTxFunc(ctx, o)
}

type checkoutFixture struct {
	svc     order.Service
	repo    *mockRepository
	carts   *mockCartService
	catalog *mockCatalog
	rates   *mockRateClient
	gateway *mockGateway
	userID  uuid.UUID
	product uuid.UUID
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	userID, err := uuid.NewV4()
	require.NoError(t, err)
	productID, err := uuid.NewV4()
	require.NoError(t, err)

	f := &checkoutFixture{userID: userID, product: productID}

	f.carts = &mockCartService{
		getFunc: func(ctx context.Context, sessionID string) (*cart.Cart, error) {
			return &cart.Cart{
				SessionID: sessionID,
				Lines: []cart.Line{
					{ProductID: productID, Name: "Sneaker", UnitPrice: 90000, Size: "42", Quantity: 2, WeightGrams: 800},
				},
			}, nil
		},
	}
	f.catalog = &mockCatalog{
		getProductFunc: func(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
			return &catalog.Product{
				ID:          id,
				Name:        "Sneaker",
				Price:       100000,
				WeightGrams: 800,
				Sizes:       []catalog.SizeStock{{Size: "42", Stock: 5}},
			}, nil
		},
	}
	f.rates = &mockRateClient{
		quoteFunc: func(ctx context.Context, origin, destination string, weightGrams int) (pricing.ShippingQuote, error) {
			return pricing.ShippingQuote{Cost: 15000, ServiceLevel: "REG", ETADays: 3}, nil
		},
	}
	f.gateway = &mockGateway{
		createTxFunc: func(ctx context.Context, o *order.Order) (string, string, error) {
			return "tok-abc", "trx-123", nil
		},
	}
	f.repo = &mockRepository{
		createFunc:   func(ctx context.Context, o *order.Order) error { return nil },
		setTxRefFunc: func(ctx context.Context, orderID uuid.UUID, ref string) error { return nil },
	}

	engine := pricing.NewEngine(pricing.Config{CODFee: 2500, OnlineDiscount: 3000})
	f.svc = order.NewService(f.repo, f.carts, f.catalog, f.rates, engine, f.gateway, "Jakarta")

	return f
}

func checkoutRequest(method pricing.PaymentMethod) order.CheckoutRequest {
	return order.CheckoutRequest{
		ShippingAddress: pricing.Address{
			FullName:   "Budi Santoso",
			Street:     "Jl. Sudirman No. 45, RT 02",
			City:       "Bandung",
			PostalCode: "40115",
			Country:    "Indonesia",
			Phone:      "081234567890",
		},
		PaymentMethod: method,
	}
}

func TestService_Checkout_OnlineVA(t *testing.T) {
	f := newCheckoutFixture(t)

	result, err := f.svc.Checkout(context.Background(), f.userID, checkoutRequest(pricing.MethodOnlineVA))
	require.NoError(t, err)

	assert.Equal(t, order.StatusPendingPayment, result.Order.Status)
	assert.Equal(t, "tok-abc", result.PaymentToken)
	require.NotNil(t, result.Order.TransactionRef)
	assert.Equal(t, "trx-123", *result.Order.TransactionRef)

	// Prices are re-read from the catalog, not trusted from the cart.
	assert.Equal(t, 200000.0, result.Order.ItemsPrice)
	assert.Equal(t, 15000.0, result.Order.ShippingPrice)
	assert.Equal(t, 3000.0, result.Order.Discount)
	assert.Zero(t, result.Order.AdminFee)
	assert.Equal(t, 212000.0, result.Order.TotalPrice)

	assert.Equal(t, 1, f.repo.createCallCount)
	assert.Equal(t, 1, f.gateway.callCount)
	assert.Zero(t, f.carts.clearCalls, "cart must survive until payment is confirmed")
}

func TestService_Checkout_CashOnDelivery(t *testing.T) {
	f := newCheckoutFixture(t)

	result, err := f.svc.Checkout(context.Background(), f.userID, checkoutRequest(pricing.MethodCashOnDelivery))
	require.NoError(t, err)

	assert.Equal(t, order.StatusPendingPayment, result.Order.Status)
	assert.Empty(t, result.PaymentToken)
	assert.Nil(t, result.Order.TransactionRef)
	assert.Equal(t, 2500.0, result.Order.AdminFee)
	assert.Zero(t, result.Order.Discount)
	assert.Equal(t, 217500.0, result.Order.TotalPrice)
	assert.Zero(t, f.gateway.callCount, "COD must bypass the gateway")
}

func TestService_Checkout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.carts.getFunc = func(ctx context.Context, sessionID string) (*cart.Cart, error) {
		return &cart.Cart{SessionID: sessionID, Lines: []cart.Line{}}, nil
	}

	_, err := f.svc.Checkout(context.Background(), f.userID, checkoutRequest(pricing.MethodOnlineVA))

	var vErr *pricing.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items", vErr.Fields[0].Field)
	assert.Zero(t, f.repo.createCallCount, "no order may be created")
	assert.Zero(t, f.catalog.callCount, "no collaborator call for an invalid submission")
	assert.Zero(t, f.rates.callCount)
}

func TestService_Checkout_InvalidAddress(t *testing.T) {
	f := newCheckoutFixture(t)

	req := checkoutRequest(pricing.MethodOnlineVA)
	req.ShippingAddress.Street = "short"
	req.ShippingAddress.PostalCode = "12"

	_, err := f.svc.Checkout(context.Background(), f.userID, req)

	var vErr *pricing.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 2)
	assert.Zero(t, f.repo.createCallCount)
}

func TestService_Checkout_InsufficientStock(t *testing.T) {
	f := newCheckoutFixture(t)
	f.catalog.getProductFunc = func(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
		return &catalog.Product{
			ID:    id,
			Name:  "Sneaker",
			Price: 100000,
			Sizes: []catalog.SizeStock{{Size: "42", Stock: 1}},
		}, nil
	}

	_, err := f.svc.Checkout(context.Background(), f.userID, checkoutRequest(pricing.MethodOnlineVA))

	var sErr *order.StockError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, f.product, sErr.ProductID)
	assert.Equal(t, 2, sErr.Requested)
	assert.Equal(t, 1, sErr.Available)
	assert.Zero(t, f.repo.createCallCount, "no order may be created on a stock miss")
}

func TestService_Checkout_GatewayFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.createTxFunc = func(ctx context.Context, o *order.Order) (string, string, error) {
		return "", "", errors.New("gateway timeout")
	}

	_, err := f.svc.Checkout(context.Background(), f.userID, checkoutRequest(pricing.MethodOnlineVA))

	assert.ErrorIs(t, err, order.ErrGatewayUnavailable)
	assert.Equal(t, 1, f.repo.createCallCount, "order exists in PENDING_PAYMENT despite token failure")
}

func TestService_GetOrderByID(t *testing.T) {
	f := newCheckoutFixture(t)
	orderID, err := uuid.NewV4()
	require.NoError(t, err)

	t.Run("not_found", func(t *testing.T) {
		f.repo.getByIDFunc = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		}

		_, err := f.svc.GetOrderByID(context.Background(), orderID)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})

	t.Run("success", func(t *testing.T) {
		f.repo.getByIDFunc = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return &order.Order{ID: id, Status: order.StatusProcessing}, nil
		}

		o, err := f.svc.GetOrderByID(context.Background(), orderID)
		assert.NoError(t, err)
		assert.Equal(t, orderID, o.ID)
	})
}
