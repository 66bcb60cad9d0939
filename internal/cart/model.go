package cart

import (
	"time"

	"github.com/gofrs/uuid"
)

// Line is a single cart position, unique per (product, size).
type Line struct {
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	UnitPrice   float64   `json:"unit_price"` // float64 for money, consistent with the order tables
	Size        string    `json:"size"`
	Quantity    int       `json:"quantity"`
	WeightGrams int       `json:"weight_grams"`
}

// Key identifies a line inside its cart.
func (l Line) Key() string {
	return l.ProductID.String() + ":" + l.Size
}

// Cart is the mutable pre-checkout aggregate for one session.
type Cart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Subtotal() float64 {
	total := 0.0
	for _, l := range c.Lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

func (c *Cart) TotalWeightGrams() int {
	total := 0
	for _, l := range c.Lines {
		total += l.WeightGrams * l.Quantity
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// lineIndex returns the position of the line with the given key, or -1.
func (c *Cart) lineIndex(key string) int {
	for i := range c.Lines {
		if c.Lines[i].Key() == key {
			return i
		}
	}
	return -1
}
