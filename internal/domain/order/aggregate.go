package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-stripe-checkout/internal/domain/aggregate"
	"github.com/example/ec-stripe-checkout/internal/domain/payment"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending          Status = "pending"
	StatusAuthorized       Status = "authorized"
	StatusPartiallyShipped Status = "partially_shipped"
	StatusShipped          Status = "shipped"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrEmptyOrder          = errors.New("order must have at least one line")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrMissingReference    = errors.New("payment reference is required")
	ErrNoPaymentSource     = errors.New("order has no payment source of this type")
	ErrUnknownLine         = errors.New("line does not belong to this order")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrQuantityOvershipped = errors.New("quantity exceeds unshipped quantity")
	ErrEmptyNote           = errors.New("note message is required")
)

// Note is a free-text audit entry on an order.
type Note struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Order aggregates the purchased lines with the payment and shipping audit
// trail. Sources are mutated by settlement debits; payment and shipping
// events are append-only. Amounts are minor currency units.
type Order struct {
	ID              string                  `json:"id"`
	UserID          string                  `json:"user_id"`
	Lines           []Line                  `json:"lines"`
	Currency        string                  `json:"currency"`
	TotalInclTax    int64                   `json:"total_incl_tax"`
	ShippingInclTax int64                   `json:"shipping_incl_tax"`
	Status          Status                  `json:"status"`
	Sources         []payment.Source        `json:"sources"`
	PaymentEvents   []payment.Event         `json:"payment_events"`
	ShippingEvents  []payment.ShippingEvent `json:"shipping_events"`
	Notes           []Note                  `json:"notes"`
	ShippedQty      map[string]int          `json:"shipped_qty"` // lineID -> quantity shipped
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	Version         int                     `json:"version"`
}

// Aggregate interface implementation
func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// SourceOfType returns the order's payment source for the given processor.
func (o *Order) SourceOfType(t payment.SourceType) (*payment.Source, bool) {
	for i := range o.Sources {
		if o.Sources[i].Type == t {
			return &o.Sources[i], true
		}
	}
	return nil, false
}

// SettleEventCount returns the number of "Settle" payment events recorded so
// far. A count of zero marks the next settlement as the first one, which is
// the one that carries the shipping charge.
func (o *Order) SettleEventCount() int {
	n := 0
	for _, e := range o.PaymentEvents {
		if e.Type == payment.EventTypeSettle {
			n++
		}
	}
	return n
}

// SettledTotal returns the sum of all "Settle" payment event amounts.
func (o *Order) SettledTotal() int64 {
	var total int64
	for _, e := range o.PaymentEvents {
		if e.Type == payment.EventTypeSettle {
			total += e.Amount
		}
	}
	return total
}

// LineByID looks a line up by its id.
func (o *Order) LineByID(id string) (*Line, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// UnshippedQuantity returns how many units of a line remain to be shipped.
func (o *Order) UnshippedQuantity(lineID string) int {
	line, ok := o.LineByID(lineID)
	if !ok {
		return 0
	}
	return line.Quantity - o.ShippedQty[lineID]
}

func (o *Order) fullyShipped() bool {
	for _, line := range o.Lines {
		if o.ShippedQty[line.ID] < line.Quantity {
			return false
		}
	}
	return true
}

// ApplyEvent applies a single event to the order state (implements aggregate.Aggregate)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.UserID = data.UserID
		o.Lines = data.Lines
		o.Currency = data.Currency
		o.TotalInclTax = data.TotalInclTax
		o.ShippingInclTax = data.ShippingInclTax
		o.Status = StatusPending
		o.ShippedQty = make(map[string]int)
		o.CreatedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventPaymentAuthorized:
		var data PaymentAuthorized
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		// Reuse an existing source of the same type (latest allocation
		// wins); a source is created at most once per processor.
		if src, ok := o.SourceOfType(data.SourceType); ok {
			src.Currency = data.Currency
			src.AmountAllocated = data.AmountAllocated
			src.Reference = data.Reference
		} else {
			o.Sources = append(o.Sources, payment.Source{
				Type:            data.SourceType,
				Currency:        data.Currency,
				AmountAllocated: data.AmountAllocated,
				Reference:       data.Reference,
			})
		}
		o.PaymentEvents = append(o.PaymentEvents, payment.Event{
			ID:        data.EventID,
			Type:      payment.EventTypePreAuth,
			Amount:    data.AmountAllocated,
			Reference: data.Reference,
			CreatedAt: data.AuthorizedAt,
		})
		o.Status = StatusAuthorized
		o.UpdatedAt = data.AuthorizedAt
	case EventPaymentSettled:
		var data PaymentSettled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if src, ok := o.SourceOfType(data.SourceType); ok {
			if err := src.Debit(data.Amount, data.Reference); err != nil {
				return err
			}
		}
		o.PaymentEvents = append(o.PaymentEvents, payment.Event{
			ID:        data.EventID,
			Type:      payment.EventTypeSettle,
			Amount:    data.Amount,
			Lines:     data.Lines,
			Reference: data.Reference,
			CreatedAt: data.SettledAt,
		})
		o.UpdatedAt = data.SettledAt
	case EventLinesShipped:
		var data LinesShipped
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ShippingEvents = append(o.ShippingEvents, payment.ShippingEvent{
			ID:             data.EventID,
			Type:           data.EventType,
			Lines:          data.Lines,
			PaymentEventID: data.PaymentEventID,
			Reference:      data.Reference,
			CreatedAt:      data.ShippedAt,
		})
		if data.EventType == payment.ShippingEventShipped {
			if o.ShippedQty == nil {
				o.ShippedQty = make(map[string]int)
			}
			for _, lq := range data.Lines {
				o.ShippedQty[lq.LineID] += lq.Quantity
			}
			if o.fullyShipped() {
				o.Status = StatusShipped
			} else {
				o.Status = StatusPartiallyShipped
			}
		}
		o.UpdatedAt = data.ShippedAt
	case EventNoteAdded:
		var data OrderNoteAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Notes = append(o.Notes, Note{
			Message:   data.Message,
			CreatedAt: data.CreatedAt,
		})
		o.UpdatedAt = data.CreatedAt
	}
	o.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Get loads an order by replaying events, using snapshot if available
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	order, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Place creates an order from the given lines. Totals are tax-inclusive.
// The caller may supply orderID when the number was allocated earlier in the
// submission pipeline; an empty id gets a fresh one.
func (s *Service) Place(ctx context.Context, orderID, userID string, lines []Line, currency string, shippingInclTax int64) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	if orderID == "" {
		orderID = uuid.New().String()
	}
	now := time.Now()

	var total int64
	for i := range lines {
		if lines[i].Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if lines[i].ID == "" {
			lines[i].ID = uuid.New().String()
		}
		total += int64(lines[i].Quantity) * lines[i].UnitPriceInclTax
	}
	total += shippingInclTax

	event := OrderPlaced{
		OrderID:         orderID,
		UserID:          userID,
		Lines:           lines,
		Currency:        currency,
		TotalInclTax:    total,
		ShippingInclTax: shippingInclTax,
		PlacedAt:        now,
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderPlaced, event)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:              orderID,
		UserID:          userID,
		Lines:           lines,
		Currency:        currency,
		TotalInclTax:    total,
		ShippingInclTax: shippingInclTax,
		Status:          StatusPending,
		ShippedQty:      make(map[string]int),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if storedEvent != nil {
		order.Version = storedEvent.Version
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, order, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", order.ID, err)
	}

	return order, nil
}

// Authorize registers an authorization hold on the order: a payment source
// for the full allocated amount plus a "pre-auth" payment event. It performs
// no external call; the hold exists processor-side already.
func (s *Service) Authorize(ctx context.Context, orderID string, sourceType payment.SourceType, amount int64, reference string) (*payment.Event, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if reference == "" {
		return nil, ErrMissingReference
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	event := PaymentAuthorized{
		OrderID:         orderID,
		EventID:         uuid.New().String(),
		SourceType:      sourceType,
		Currency:        order.Currency,
		AmountAllocated: amount,
		Reference:       reference,
		AuthorizedAt:    time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventPaymentAuthorized, event)
	if err != nil {
		return nil, err
	}

	if err := order.ApplyEvent(*storedEvent); err != nil {
		return nil, err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, order, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", order.ID, err)
	}

	return &payment.Event{
		ID:        event.EventID,
		Type:      payment.EventTypePreAuth,
		Amount:    amount,
		Reference: reference,
		CreatedAt: event.AuthorizedAt,
	}, nil
}

// Settle debits the order's payment source for an executed settlement charge
// and appends the "Settle" payment event. The source's remaining allocation
// is a hard cap; exceeding it is rejected before any event is written.
func (s *Service) Settle(ctx context.Context, orderID string, sourceType payment.SourceType, amount int64, lines []payment.LineQuantity, chargeRef string) (*payment.Event, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if chargeRef == "" {
		return nil, ErrMissingReference
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	src, ok := order.SourceOfType(sourceType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPaymentSource, sourceType)
	}
	// Dry-run the debit against a copy so a cap violation leaves no event.
	check := *src
	if err := check.Debit(amount, chargeRef); err != nil {
		return nil, err
	}

	event := PaymentSettled{
		OrderID:    orderID,
		EventID:    uuid.New().String(),
		SourceType: sourceType,
		Amount:     amount,
		Lines:      lines,
		Reference:  chargeRef,
		SettledAt:  time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventPaymentSettled, event)
	if err != nil {
		return nil, err
	}

	if err := order.ApplyEvent(*storedEvent); err != nil {
		return nil, err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, order, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", order.ID, err)
	}

	return &payment.Event{
		ID:        event.EventID,
		Type:      payment.EventTypeSettle,
		Amount:    amount,
		Lines:     lines,
		Reference: chargeRef,
		CreatedAt: event.SettledAt,
	}, nil
}

// RecordShipment appends a shipping event for the given line quantities,
// optionally linked to the payment event the shipment produced. Quantities
// are validated against what remains unshipped.
func (s *Service) RecordShipment(ctx context.Context, orderID string, eventType payment.ShippingEventType, lines []payment.LineQuantity, paymentEventID, reference string) (*payment.ShippingEvent, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.ValidateShipment(eventType, lines); err != nil {
		return nil, err
	}

	event := LinesShipped{
		OrderID:        orderID,
		EventID:        uuid.New().String(),
		EventType:      eventType,
		Lines:          lines,
		PaymentEventID: paymentEventID,
		Reference:      reference,
		ShippedAt:      time.Now(),
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventLinesShipped, event)
	if err != nil {
		return nil, err
	}

	if err := order.ApplyEvent(*storedEvent); err != nil {
		return nil, err
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, order, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", order.ID, err)
	}

	return &payment.ShippingEvent{
		ID:             event.EventID,
		Type:           eventType,
		Lines:          lines,
		PaymentEventID: paymentEventID,
		Reference:      reference,
		CreatedAt:      event.ShippedAt,
	}, nil
}

// ValidateShipment checks that every line belongs to the order and that the
// quantities make sense for the event type: a shipment cannot exceed what
// remains unshipped, a return cannot exceed what has shipped.
func (o *Order) ValidateShipment(eventType payment.ShippingEventType, lines []payment.LineQuantity) error {
	if len(lines) == 0 {
		return ErrEmptyOrder
	}
	for _, lq := range lines {
		if _, ok := o.LineByID(lq.LineID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownLine, lq.LineID)
		}
		if lq.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		switch eventType {
		case payment.ShippingEventShipped:
			if lq.Quantity > o.UnshippedQuantity(lq.LineID) {
				return fmt.Errorf("%w: line %s", ErrQuantityOvershipped, lq.LineID)
			}
		case payment.ShippingEventReturned:
			if lq.Quantity > o.ShippedQty[lq.LineID] {
				return fmt.Errorf("%w: line %s", ErrQuantityOvershipped, lq.LineID)
			}
		}
	}
	return nil
}

// AddNote appends a free-text note to the order's audit trail.
func (s *Service) AddNote(ctx context.Context, orderID, message string) error {
	if message == "" {
		return ErrEmptyNote
	}
	if _, err := s.Get(ctx, orderID); err != nil {
		return err
	}

	event := OrderNoteAdded{
		OrderID:   orderID,
		Message:   message,
		CreatedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, orderID, AggregateType, EventNoteAdded, event)
	return err
}
