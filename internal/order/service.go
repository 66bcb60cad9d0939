package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gerai/storefront/internal/cart"
	"github.com/gerai/storefront/internal/catalog"
	"github.com/gerai/storefront/internal/pricing"
)

// ErrGatewayUnavailable means the payment gateway could not issue a
// transaction token. The order is already persisted in PENDING_PAYMENT and
// payment can be retried later.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// PaymentGateway issues one transaction token per payment attempt. The
// implementation lives in the payment package; this consumer-side interface
// keeps the order service decoupled from the gateway's wire protocol.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, o *Order) (token string, ref string, err error)
}

type CheckoutRequest struct {
	ShippingAddress pricing.Address       `json:"shipping_address"`
	PaymentMethod   pricing.PaymentMethod `json:"payment_method"`
}

type CheckoutResult struct {
	Order        *Order `json:"order"`
	PaymentToken string `json:"payment_token,omitempty"`
}

type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
}

type service struct {
	repo       Repository
	carts      cart.Service
	catalog    catalog.Client
	rates      pricing.RateClient
	engine     pricing.Engine
	gateway    PaymentGateway
	originCity string
}

func NewService(repo Repository, carts cart.Service, cat catalog.Client, rates pricing.RateClient, engine pricing.Engine, gateway PaymentGateway, originCity string) Service {
	return &service{
		repo:       repo,
		carts:      carts,
		catalog:    cat,
		rates:      rates,
		engine:     engine,
		gateway:    gateway,
		originCity: originCity,
	}
}

// Checkout turns the session's mutable cart into an immutable priced order in
// PENDING_PAYMENT. Prices and stock are re-read from the catalog at creation
// time; the cart itself is only cleared later, on a confirmed payment.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResult, error) {
	// Local validation first: nothing below runs for an invalid submission.
	c, err := s.carts.Get(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("service: failed to load cart for checkout: %w", err)
	}
	if c.IsEmpty() {
		log.Warn().Stringer("user_id", userID).Msg("service: attempt to check out an empty cart")
		return nil, &pricing.ValidationError{Fields: []pricing.FieldError{
			{Field: "items", Message: "cart is empty"},
		}}
	}
	if !req.PaymentMethod.Valid() {
		return nil, &pricing.ValidationError{Fields: []pricing.FieldError{
			{Field: "payment_method", Message: "unknown payment method"},
		}}
	}
	if vErr := pricing.ValidateAddress(req.ShippingAddress); vErr != nil {
		return nil, vErr
	}

	// Snapshot items against the live catalog. Stock is checked, not
	// reserved: two buyers can still race for the last unit.
	items := make([]Item, 0, len(c.Lines))
	priced := &cart.Cart{SessionID: c.SessionID}
	totalWeight := 0
	for _, line := range c.Lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, fmt.Errorf("service: product %s no longer in catalog: %w", line.ProductID, err)
			}
			return nil, fmt.Errorf("service: failed to read catalog for product %s: %w", line.ProductID, err)
		}

		if available := product.StockFor(line.Size); line.Quantity > available {
			return nil, &StockError{
				ProductID: line.ProductID,
				Size:      line.Size,
				Requested: line.Quantity,
				Available: available,
			}
		}

		items = append(items, Item{
			ProductID: line.ProductID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
			Size:      line.Size,
		})
		priced.Lines = append(priced.Lines, cart.Line{
			ProductID:   line.ProductID,
			Name:        product.Name,
			UnitPrice:   product.Price,
			Size:        line.Size,
			Quantity:    line.Quantity,
			WeightGrams: product.WeightGrams,
		})
		totalWeight += product.WeightGrams * line.Quantity
	}

	shippingQuote, err := s.rates.Quote(ctx, s.originCity, req.ShippingAddress.City, totalWeight)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch shipping quote: %w", err)
	}

	quote := s.engine.Price(priced, shippingQuote, req.PaymentMethod)

	o := &Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      quote.ItemsPrice,
		ShippingPrice:   quote.ShippingPrice,
		AdminFee:        quote.AdminFee,
		Discount:        quote.Discount,
		TotalPrice:      quote.TotalPrice,
		Status:          StatusPendingPayment,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	result := &CheckoutResult{Order: o}

	// COD orders bypass the gateway entirely; an operator confirms funds.
	if req.PaymentMethod == pricing.MethodOnlineVA {
		token, ref, err := s.gateway.CreateTransaction(ctx, o)
		if err != nil {
			log.Error().Err(err).Stringer("order_id", o.ID).Msg("service: gateway failed to issue transaction token")
			return nil, fmt.Errorf("service: order %s created but token issuance failed: %w: %w", o.ID, ErrGatewayUnavailable, err)
		}
		if err := s.repo.SetTransactionRef(ctx, o.ID, ref); err != nil {
			return nil, fmt.Errorf("service: failed to store transaction ref: %w", err)
		}
		o.TransactionRef = &ref
		result.PaymentToken = token
	}

	log.Info().Stringer("order_id", o.ID).Stringer("user_id", userID).Str("payment_method", req.PaymentMethod.String()).Msg("service: order created")

	return result, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return o, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders in repository")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}
