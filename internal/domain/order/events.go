package order

import (
	"time"

	"github.com/example/ec-stripe-checkout/internal/domain/payment"
)

const (
	EventOrderPlaced       = "OrderPlaced"
	EventPaymentAuthorized = "PaymentAuthorized"
	EventPaymentSettled    = "PaymentSettled"
	EventLinesShipped      = "LinesShipped"
	EventNoteAdded         = "OrderNoteAdded"
)

// Line is an order line item. UnitPriceInclTax is in minor currency units.
type Line struct {
	ID               string `json:"id"`
	ProductID        string `json:"product_id"`
	Quantity         int    `json:"quantity"`
	UnitPriceInclTax int64  `json:"unit_price_incl_tax"`
}

type OrderPlaced struct {
	OrderID         string    `json:"order_id"`
	UserID          string    `json:"user_id"`
	Lines           []Line    `json:"lines"`
	Currency        string    `json:"currency"`
	TotalInclTax    int64     `json:"total_incl_tax"`
	ShippingInclTax int64     `json:"shipping_incl_tax"`
	PlacedAt        time.Time `json:"placed_at"`
}

// PaymentAuthorized records the authorization hold taken at checkout.
// No funds move here; the processor-side hold already exists for the token.
type PaymentAuthorized struct {
	OrderID         string             `json:"order_id"`
	EventID         string             `json:"event_id"`
	SourceType      payment.SourceType `json:"source_type"`
	Currency        string             `json:"currency"`
	AmountAllocated int64              `json:"amount_allocated"`
	Reference       string             `json:"reference"`
	AuthorizedAt    time.Time          `json:"authorized_at"`
}

type PaymentSettled struct {
	OrderID    string                 `json:"order_id"`
	EventID    string                 `json:"event_id"`
	SourceType payment.SourceType     `json:"source_type"`
	Amount     int64                  `json:"amount"`
	Lines      []payment.LineQuantity `json:"lines"`
	Reference  string                 `json:"reference"`
	SettledAt  time.Time              `json:"settled_at"`
}

type LinesShipped struct {
	OrderID        string                    `json:"order_id"`
	EventID        string                    `json:"event_id"`
	EventType      payment.ShippingEventType `json:"event_type"`
	Lines          []payment.LineQuantity    `json:"lines"`
	PaymentEventID string                    `json:"payment_event_id,omitempty"`
	Reference      string                    `json:"reference,omitempty"`
	ShippedAt      time.Time                 `json:"shipped_at"`
}

type OrderNoteAdded struct {
	OrderID   string    `json:"order_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
