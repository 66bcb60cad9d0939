package pricing

import (
	"github.com/gerai/storefront/internal/cart"
)

type PaymentMethod string

const (
	MethodOnlineVA       PaymentMethod = "ONLINE_VA"
	MethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Valid() bool {
	return m == MethodOnlineVA || m == MethodCashOnDelivery
}

// ShippingQuote is the ephemeral answer from the shipping-rate service. It is
// recomputed whenever destination or weight changes and only becomes part of
// an order through a checkout.
type ShippingQuote struct {
	Cost         float64 `json:"cost"`
	ServiceLevel string  `json:"service_level"`
	ETADays      int     `json:"eta_days"`
}

// Quote is the priced breakdown for one checkout attempt.
type Quote struct {
	ItemsPrice    float64 `json:"items_price"`
	ShippingPrice float64 `json:"shipping_price"`
	AdminFee      float64 `json:"admin_fee"`
	Discount      float64 `json:"discount"`
	TotalPrice    float64 `json:"total_price"`
}

type Config struct {
	CODFee          float64
	OnlineDiscount  float64
	FreeShippingMin float64 // subtotal at or above this ships free; 0 disables the rule
}

// Engine computes order totals. It is a pure function of the cart, the
// shipping quote and the payment method; nothing here touches storage.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) Engine {
	return Engine{cfg: cfg}
}

// Price computes the full breakdown. COD carries the fixed admin fee and no
// discount; online VA carries the fixed discount and no fee. The total is
// floored at zero.
func (e Engine) Price(c *cart.Cart, quote ShippingQuote, method PaymentMethod) Quote {
	q := Quote{
		ItemsPrice:    c.Subtotal(),
		ShippingPrice: quote.Cost,
	}

	if e.cfg.FreeShippingMin > 0 && q.ItemsPrice >= e.cfg.FreeShippingMin {
		q.ShippingPrice = 0
	}

	switch method {
	case MethodCashOnDelivery:
		q.AdminFee = e.cfg.CODFee
	case MethodOnlineVA:
		q.Discount = e.cfg.OnlineDiscount
	}

	q.TotalPrice = q.ItemsPrice + q.ShippingPrice + q.AdminFee - q.Discount
	if q.TotalPrice < 0 {
		q.TotalPrice = 0
	}

	return q
}
