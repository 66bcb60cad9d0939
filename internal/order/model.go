package order

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/gerai/storefront/internal/pricing"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	StatusProcessing     OrderStatus = "PROCESSING"
	StatusShipped        OrderStatus = "SHIPPED"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

func (os OrderStatus) String() string {
	return string(os)
}

// Terminal reports whether no further transition is legal from this status.
func (os OrderStatus) Terminal() bool {
	return os == StatusDelivered || os == StatusCancelled
}

// Item is a snapshot of a catalog product at creation time, decoupled from
// the live catalog afterwards.
type Item struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Size      string    `json:"size" db:"size"`
}

// Order is immutable once created except for Status and TransactionRef. The
// price breakdown is computed exactly once at checkout and never revisited.
type Order struct {
	ID              uuid.UUID             `json:"id" db:"id"`
	UserID          uuid.UUID             `json:"user_id" db:"user_id"`
	Items           []Item                `json:"items" db:"-"`
	ShippingAddress pricing.Address       `json:"shipping_address" db:"-"`
	PaymentMethod   pricing.PaymentMethod `json:"payment_method" db:"payment_method"`
	ItemsPrice      float64               `json:"items_price" db:"items_price"`
	ShippingPrice   float64               `json:"shipping_price" db:"shipping_price"`
	AdminFee        float64               `json:"admin_fee" db:"admin_fee"`
	Discount        float64               `json:"discount" db:"discount"`
	TotalPrice      float64               `json:"total_price" db:"total_price"`
	Status          OrderStatus           `json:"status" db:"status"`
	TransactionRef  *string               `json:"transaction_ref" db:"transaction_ref"`
	CreatedAt       time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at" db:"updated_at"`
}

// StockError is returned when a requested quantity exceeds the stock the
// catalog reported at order time. Stock is not reserved ahead of payment, so
// this is a best-effort check, not a transactional guarantee.
type StockError struct {
	ProductID uuid.UUID
	Size      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s size %s: requested %d, available %d",
		e.ProductID, e.Size, e.Requested, e.Available)
}
