package fulfillment

import (
	"context"
	"fmt"
	"log"

	"github.com/example/ec-stripe-checkout/internal/domain/inventory"
	"github.com/example/ec-stripe-checkout/internal/domain/order"
	"github.com/example/ec-stripe-checkout/internal/domain/payment"
	"github.com/example/ec-stripe-checkout/internal/gateway/stripe"
)

// Charger executes settlement charges against the payment processor.
type Charger interface {
	CreateCharge(ctx context.Context, params stripe.ChargeParams) (*stripe.Charge, error)
}

// Config carries the handler's explicit settlement settings. Currency is
// fixed per deployment; multi-currency settlement is out of scope.
type Config struct {
	Currency    string
	Description string
}

// Handler settles payment on shipping events. It composes with the order
// and inventory services and invokes them explicitly per event; it performs
// no retries of its own.
type Handler struct {
	orders    *order.Service
	inventory *inventory.Service
	charger   Charger
	types     payment.TypeRegistry
	cfg       Config
}

func NewHandler(orders *order.Service, inv *inventory.Service, charger Charger, types payment.TypeRegistry, cfg Config) *Handler {
	return &Handler{
		orders:    orders,
		inventory: inv,
		charger:   charger,
		types:     types,
		cfg:       cfg,
	}
}

// HandleShippingEvent processes one shipping event for an order. For a
// "Shipped" event it takes payment for the shipped lines and consumes their
// stock allocations; every event type is recorded as a shipping event,
// linked to the payment event it produced, if any.
func (h *Handler) HandleShippingEvent(ctx context.Context, orderID, eventTypeName string, lines []payment.LineQuantity, reference string) (*payment.ShippingEvent, error) {
	eventType, err := h.types.ShippingEventType(eventTypeName)
	if err != nil {
		return nil, err
	}

	o, err := h.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.ValidateShipment(eventType, lines); err != nil {
		return nil, err
	}

	var paymentEventID string
	if eventType == payment.ShippingEventShipped {
		paymentEvent, err := h.takePaymentForLines(ctx, o, lines)
		if err != nil {
			return nil, err
		}
		paymentEventID = paymentEvent.ID

		for _, lq := range lines {
			line, _ := o.LineByID(lq.LineID)
			if err := h.inventory.Consume(ctx, line.ProductID, orderID, lq.Quantity); err != nil {
				// Payment already settled; stock bookkeeping is repairable
				// by an operator, so log and carry on.
				log.Printf("[Fulfillment] Failed to consume stock for order %s line %s: %v", orderID, lq.LineID, err)
			}
		}
	}

	return h.orders.RecordShipment(ctx, orderID, eventType, lines, paymentEventID, reference)
}

// takePaymentForLines executes the settlement charge for the shipped lines
// and records the outcome on the order. A processor failure is noted on the
// order and re-raised untouched; retrying is the caller's problem.
func (h *Handler) takePaymentForLines(ctx context.Context, o *order.Order, lines []payment.LineQuantity) (*payment.Event, error) {
	amount, err := h.calculateAmountToSettle(o, lines)
	if err != nil {
		return nil, err
	}

	src, ok := o.SourceOfType(payment.SourceTypeStripe)
	if !ok {
		// Checkout always records the source, so its absence is a data
		// integrity problem, not something a caller can recover from.
		return nil, fmt.Errorf("%w: order %s has no %s source", order.ErrNoPaymentSource, o.ID, payment.SourceTypeStripe)
	}

	charge, err := h.charger.CreateCharge(ctx, stripe.ChargeParams{
		Amount:      amount,
		Currency:    h.cfg.Currency,
		Card:        src.Reference,
		Description: h.cfg.Description,
	})
	if err != nil {
		msg := fmt.Sprintf("Attempt to settle %s failed: %v", payment.FormatAmount(amount), err)
		if noteErr := h.orders.AddNote(ctx, o.ID, msg); noteErr != nil {
			log.Printf("[Fulfillment] Failed to record failure note on order %s: %v", o.ID, noteErr)
		}
		return nil, err
	}

	msg := fmt.Sprintf("Payment of %s settled using reference '%s' from initial transaction",
		payment.FormatAmount(amount), charge.ID)
	if err := h.orders.AddNote(ctx, o.ID, msg); err != nil {
		log.Printf("[Fulfillment] Failed to record settlement note on order %s: %v", o.ID, err)
	}

	return h.orders.Settle(ctx, o.ID, payment.SourceTypeStripe, amount, lines, charge.ID)
}

// calculateAmountToSettle sums the tax-inclusive line prices for the shipped
// quantities. The order's shipping charge rides on the first settlement
// only; "first" means no prior "Settle" payment event exists. Two shipping
// events racing for the same order could both observe zero prior
// settlements; serializing events per order is the event store's job.
func (h *Handler) calculateAmountToSettle(o *order.Order, lines []payment.LineQuantity) (int64, error) {
	var amount int64
	for _, lq := range lines {
		line, ok := o.LineByID(lq.LineID)
		if !ok {
			return 0, fmt.Errorf("%w: %s", order.ErrUnknownLine, lq.LineID)
		}
		amount += int64(lq.Quantity) * line.UnitPriceInclTax
	}
	if o.SettleEventCount() == 0 {
		amount += o.ShippingInclTax
	}
	return amount, nil
}
