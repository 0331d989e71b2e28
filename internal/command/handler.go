package command

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/example/ec-stripe-checkout/internal/checkout"
	"github.com/example/ec-stripe-checkout/internal/domain/cart"
	"github.com/example/ec-stripe-checkout/internal/domain/inventory"
	"github.com/example/ec-stripe-checkout/internal/domain/order"
	"github.com/example/ec-stripe-checkout/internal/domain/product"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
	"github.com/example/ec-stripe-checkout/internal/readmodel"
)

// PaymentHandler performs the payment leg of an order submission. It must
// leave no trace when it fails: the pipeline only starts writing order state
// after a successful return.
type PaymentHandler interface {
	HandlePayment(orderNumber string, totalInclTax int64, paymentArgs map[string]string) (*checkout.Authorization, error)
}

// Config carries the submission-time pricing knobs.
type Config struct {
	Currency        string
	ShippingInclTax int64
}

type Handler struct {
	productSvc   *product.Service
	cartSvc      *cart.Service
	orderSvc     *order.Service
	inventorySvc *inventory.Service
	payments     PaymentHandler
	readStore    store.ReadStoreInterface
	cfg          Config
}

func NewHandler(
	productSvc *product.Service,
	cartSvc *cart.Service,
	orderSvc *order.Service,
	inventorySvc *inventory.Service,
	payments PaymentHandler,
	readStore store.ReadStoreInterface,
	cfg Config,
) *Handler {
	return &Handler{
		productSvc:   productSvc,
		cartSvc:      cartSvc,
		orderSvc:     orderSvc,
		inventorySvc: inventorySvc,
		payments:     payments,
		readStore:    readStore,
		cfg:          cfg,
	}
}

// CreateProduct creates a new product (async projection - updates via Kafka)
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	p, err := h.productSvc.Create(ctx, cmd.Name, cmd.Description, cmd.PriceInclTax, cmd.Stock)
	if err != nil {
		return nil, err
	}

	if err := h.inventorySvc.Add(ctx, p.ID, cmd.Stock); err != nil {
		return nil, err
	}

	// Read store is updated asynchronously via the Kafka consumer
	return p, nil
}

// UpdateProduct updates a product
func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	return h.productSvc.Update(ctx, cmd.ProductID, cmd.Name, cmd.Description, cmd.PriceInclTax)
}

// AddToCart adds an item to cart at the product's current price
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) error {
	p, ok := h.readStore.Get("products", cmd.ProductID)
	if !ok {
		return product.ErrProductNotFound
	}
	prod := p.(*readmodel.ProductReadModel)

	return h.cartSvc.AddItem(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity, prod.PriceInclTax)
}

// RemoveFromCart removes an item from cart
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) error {
	return h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.ProductID)
}

// ClearCart clears all items from cart
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.cartSvc.Clear(ctx, cmd.UserID)
}

// Submit runs the order-submission pipeline for a confirmed checkout. The
// payment leg goes first: if it fails, the submission aborts before a single
// order event exists, so the customer can retry from a clean slate.
func (h *Handler) Submit(ctx context.Context, sub checkout.Submission) (*order.Order, error) {
	cartID := cart.GetCartID(sub.UserID)
	c, ok := h.readStore.Get("carts", cartID)
	if !ok {
		return nil, order.ErrEmptyOrder
	}
	cartModel := c.(*readmodel.CartReadModel)
	if len(cartModel.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}

	var lines []order.Line
	var total int64
	for _, item := range cartModel.Items {
		lines = append(lines, order.Line{
			ProductID:        item.ProductID,
			Quantity:         item.Quantity,
			UnitPriceInclTax: item.PriceInclTax,
		})
		total += int64(item.Quantity) * item.PriceInclTax
	}
	total += h.cfg.ShippingInclTax

	// The order number is allocated up front so the authorization can name
	// it even though no order events exist yet.
	orderID := uuid.New().String()

	auth, err := h.payments.HandlePayment(orderID, total, sub.PaymentArgs)
	if err != nil {
		return nil, err
	}

	o, err := h.orderSvc.Place(ctx, orderID, sub.UserID, lines, h.cfg.Currency, h.cfg.ShippingInclTax)
	if err != nil {
		return nil, err
	}

	if _, err := h.orderSvc.Authorize(ctx, o.ID, auth.SourceType, auth.AmountAllocated, auth.Reference); err != nil {
		return nil, err
	}

	for _, line := range o.Lines {
		if err := h.inventorySvc.Reserve(ctx, line.ProductID, o.ID, line.Quantity); err != nil {
			// The order is already placed and authorized. Leave an audit
			// note on it so the partial state is visible to operators, and
			// keep the cart intact for the retry.
			note := fmt.Sprintf("Stock reservation for product %s failed: %v", line.ProductID, err)
			if noteErr := h.orderSvc.AddNote(ctx, o.ID, note); noteErr != nil {
				log.Printf("[Command] Failed to note reservation failure on order %s: %v", o.ID, noteErr)
			}
			return nil, err
		}
	}

	if err := h.cartSvc.Clear(ctx, sub.UserID); err != nil {
		return nil, err
	}

	return h.orderSvc.Get(ctx, o.ID)
}
