package payment

import (
	"errors"
	"time"
)

var (
	ErrDebitExceedsAllocation = errors.New("debit exceeds amount allocated")
	ErrInvalidDebitAmount     = errors.New("debit amount must be positive")
)

// Source records an authorization hold against an external payment method.
// AmountAllocated is the authorized maximum, AmountDebited the cumulative
// settled amount. Amounts are minor currency units.
type Source struct {
	Type            SourceType `json:"type"`
	Currency        string     `json:"currency"`
	AmountAllocated int64      `json:"amount_allocated"`
	AmountDebited   int64      `json:"amount_debited"`
	Reference       string     `json:"reference"`
}

// Balance returns the remaining settleable allocation.
func (s *Source) Balance() int64 {
	return s.AmountAllocated - s.AmountDebited
}

// Debit settles amount against the allocation and records the charge
// reference of the most recent settlement. The allocation is a hard cap.
func (s *Source) Debit(amount int64, reference string) error {
	if amount <= 0 {
		return ErrInvalidDebitAmount
	}
	if s.AmountDebited+amount > s.AmountAllocated {
		return ErrDebitExceedsAllocation
	}
	s.AmountDebited += amount
	s.Reference = reference
	return nil
}

// LineQuantity names a line and the quantity a payment or shipping event
// covers.
type LineQuantity struct {
	LineID   string `json:"line_id"`
	Quantity int    `json:"quantity"`
}

// Event is an immutable audit record of a payment action.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Amount    int64          `json:"amount"`
	Lines     []LineQuantity `json:"lines,omitempty"`
	Reference string         `json:"reference"`
	CreatedAt time.Time      `json:"created_at"`
}

// ShippingEvent links a shipment action to the lines shipped and,
// optionally, to the payment event it produced.
type ShippingEvent struct {
	ID             string            `json:"id"`
	Type           ShippingEventType `json:"type"`
	Lines          []LineQuantity    `json:"lines"`
	PaymentEventID string            `json:"payment_event_id,omitempty"`
	Reference      string            `json:"reference,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
