package notification

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/example/ec-stripe-checkout/internal/domain/order"
	"github.com/example/ec-stripe-checkout/internal/email"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
	"github.com/example/ec-stripe-checkout/internal/readmodel"
)

// Handler processes events for sending notifications
type Handler struct {
	emailService *email.Service
	readStore    store.ReadStoreInterface
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service, readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		emailService: emailSvc,
		readStore:    readStore,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(event)
	case order.EventNoteAdded:
		return h.handleOrderNote(event)
	}

	return nil
}

func (h *Handler) handleOrderPlaced(event store.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", e.OrderID, e.UserID)

	userData, exists := h.readStore.Get("users", e.UserID)
	if !exists {
		log.Printf("[Notifier] User not found: %s", e.UserID)
		return nil
	}
	user, ok := userData.(*readmodel.UserReadModel)
	if !ok {
		log.Printf("[Notifier] Invalid user data type for user: %s", e.UserID)
		return nil
	}

	emailItems := make([]email.OrderItem, len(e.Lines))
	for i, line := range e.Lines {
		productName := line.ProductID
		if productData, exists := h.readStore.Get("products", line.ProductID); exists {
			if product, ok := productData.(*readmodel.ProductReadModel); ok {
				productName = product.Name
			}
		}

		emailItems[i] = email.OrderItem{
			ProductID:    line.ProductID,
			Name:         productName,
			Quantity:     line.Quantity,
			PriceInclTax: line.UnitPriceInclTax,
		}
	}

	if err := h.emailService.SendOrderConfirmation(user.Email, e.OrderID, e.Currency, e.TotalInclTax, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", user.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", user.Email, e.OrderID)
	return nil
}

// handleOrderNote forwards failed settlement notes to operations. Notes are
// free text; failed attempts are recognized by their fixed prefix.
func (h *Handler) handleOrderNote(event store.Event) error {
	var e order.OrderNoteAdded
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderNoteAdded event: %v", err)
		return err
	}

	if !strings.HasPrefix(e.Message, "Attempt to settle") {
		return nil
	}

	log.Printf("[Notifier] Forwarding settlement alert for order %s", e.OrderID)
	if err := h.emailService.SendSettlementAlert(e.OrderID, e.Message); err != nil {
		log.Printf("[Notifier] Failed to send settlement alert for order %s: %v", e.OrderID, err)
		return err
	}
	return nil
}
