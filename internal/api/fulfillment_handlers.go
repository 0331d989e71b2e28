package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/ec-stripe-checkout/internal/domain/order"
	"github.com/example/ec-stripe-checkout/internal/domain/payment"
	"github.com/example/ec-stripe-checkout/internal/fulfillment"
	"github.com/example/ec-stripe-checkout/internal/gateway/stripe"
)

// FulfillmentHandlers exposes shipping-event recording. Warehouse tooling
// posts here when lines leave the building; settlement happens as a side
// effect for "Shipped" events.
type FulfillmentHandlers struct {
	handler *fulfillment.Handler
}

func NewFulfillmentHandlers(handler *fulfillment.Handler) *FulfillmentHandlers {
	return &FulfillmentHandlers{handler: handler}
}

type shippingEventRequest struct {
	EventType string `json:"event_type"`
	Lines     []struct {
		LineID   string `json:"line_id"`
		Quantity int    `json:"quantity"`
	} `json:"lines"`
	Reference string `json:"reference"`
}

// CreateShippingEvent handles POST /orders/{id}/shipping-events.
func (h *FulfillmentHandlers) CreateShippingEvent(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/shipping-events")

	var req shippingEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lines := make([]payment.LineQuantity, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = payment.LineQuantity{LineID: l.LineID, Quantity: l.Quantity}
	}

	event, err := h.handler.HandleShippingEvent(r.Context(), orderID, req.EventType, lines, req.Reference)
	if err != nil {
		http.Error(w, err.Error(), shippingEventStatus(err))
		return
	}

	respondJSON(w, http.StatusCreated, event)
}

func shippingEventStatus(err error) int {
	var cardErr *stripe.CardError
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, payment.ErrUnknownShippingEventType),
		errors.Is(err, order.ErrUnknownLine),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrQuantityOvershipped):
		return http.StatusBadRequest
	case errors.As(err, &cardErr):
		// The order carries a note about the failed attempt; the caller
		// retries the shipping event once the card issue is resolved.
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
