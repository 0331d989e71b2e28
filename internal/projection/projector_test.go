package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/ec-stripe-checkout/internal/domain/cart"
	"github.com/example/ec-stripe-checkout/internal/domain/inventory"
	"github.com/example/ec-stripe-checkout/internal/domain/order"
	"github.com/example/ec-stripe-checkout/internal/domain/payment"
	"github.com/example/ec-stripe-checkout/internal/domain/product"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store/mocks"
	"github.com/example/ec-stripe-checkout/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project feeds one domain event through the projector the way the Kafka
// consumer would: as a marshaled store.Event.
func project(t *testing.T, p *Projector, aggregateID, aggregateType, eventType string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	value, err := json.Marshal(store.Event{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          payload,
	})
	require.NoError(t, err)
	require.NoError(t, p.HandleEvent(context.Background(), []byte(aggregateID), value))
}

// ============================================
// Product Projection Tests
// ============================================

func TestProjector_ProductLifecycle(t *testing.T) {
	rs := mocks.NewMockReadStore()
	p := NewProjector(rs)
	now := time.Now()

	project(t, p, "prod-1", product.AggregateType, product.EventProductCreated, product.ProductCreated{
		ProductID:    "prod-1",
		Name:         "Widget",
		PriceInclTax: 4500,
		Stock:        10,
		CreatedAt:    now,
	})
	project(t, p, "prod-1", product.AggregateType, product.EventProductUpdated, product.ProductUpdated{
		ProductID:    "prod-1",
		Name:         "Widget v2",
		PriceInclTax: 4900,
		UpdatedAt:    now,
	})

	got, ok := rs.Get("products", "prod-1")
	require.True(t, ok)
	prod := got.(*readmodel.ProductReadModel)
	assert.Equal(t, "Widget v2", prod.Name)
	assert.Equal(t, int64(4900), prod.PriceInclTax)
	assert.Equal(t, 10, prod.Stock)
}

// ============================================
// Cart Projection Tests
// ============================================

func TestProjector_CartLifecycle(t *testing.T) {
	rs := mocks.NewMockReadStore()
	p := NewProjector(rs)

	project(t, p, "cart-u1", cart.AggregateType, cart.EventItemAdded, cart.ItemAddedToCart{
		CartID: "cart-u1", UserID: "u1", ProductID: "prod-1", Quantity: 2, PriceInclTax: 4500,
	})
	project(t, p, "cart-u1", cart.AggregateType, cart.EventItemAdded, cart.ItemAddedToCart{
		CartID: "cart-u1", UserID: "u1", ProductID: "prod-2", Quantity: 1, PriceInclTax: 2000,
	})

	got, _ := rs.Get("carts", "cart-u1")
	c := got.(*readmodel.CartReadModel)
	require.Len(t, c.Items, 2)
	assert.Equal(t, int64(11000), c.Total)

	project(t, p, "cart-u1", cart.AggregateType, cart.EventItemRemoved, cart.ItemRemovedFromCart{
		CartID: "cart-u1", ProductID: "prod-1",
	})

	got, _ = rs.Get("carts", "cart-u1")
	c = got.(*readmodel.CartReadModel)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(2000), c.Total)

	project(t, p, "cart-u1", cart.AggregateType, cart.EventCartCleared, cart.CartCleared{CartID: "cart-u1"})

	got, _ = rs.Get("carts", "cart-u1")
	c = got.(*readmodel.CartReadModel)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.Total)
	assert.Equal(t, "u1", c.UserID)
}

// ============================================
// Order Projection Tests
// ============================================

func TestProjector_OrderSettlementFlow(t *testing.T) {
	rs := mocks.NewMockReadStore()
	p := NewProjector(rs)
	now := time.Now()

	project(t, p, "order-1", order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID: "order-1",
		UserID:  "u1",
		Lines: []order.Line{
			{ID: "line-1", ProductID: "prod-1", Quantity: 1, UnitPriceInclTax: 4500},
			{ID: "line-2", ProductID: "prod-2", Quantity: 1, UnitPriceInclTax: 4500},
		},
		Currency:        "USD",
		TotalInclTax:    10000,
		ShippingInclTax: 1000,
		PlacedAt:        now,
	})
	project(t, p, "order-1", order.AggregateType, order.EventPaymentAuthorized, order.PaymentAuthorized{
		OrderID:         "order-1",
		EventID:         "pe-1",
		SourceType:      payment.SourceTypeStripe,
		Currency:        "USD",
		AmountAllocated: 10000,
		Reference:       "tok_visa",
		AuthorizedAt:    now,
	})

	got, _ := rs.Get("orders", "order-1")
	o := got.(*readmodel.OrderReadModel)
	assert.Equal(t, "authorized", o.Status)
	require.Len(t, o.Sources, 1)
	assert.Equal(t, int64(10000), o.Sources[0].AmountAllocated)
	assert.Equal(t, int64(0), o.Sources[0].AmountDebited)
	require.Len(t, o.PaymentEvents, 1)
	assert.Equal(t, "pre-auth", o.PaymentEvents[0].Type)

	// Partial shipment settles the shipped line plus shipping.
	project(t, p, "order-1", order.AggregateType, order.EventPaymentSettled, order.PaymentSettled{
		OrderID:    "order-1",
		EventID:    "pe-2",
		SourceType: payment.SourceTypeStripe,
		Amount:     5500,
		Lines:      []payment.LineQuantity{{LineID: "line-1", Quantity: 1}},
		Reference:  "ch_1",
		SettledAt:  now,
	})
	project(t, p, "order-1", order.AggregateType, order.EventLinesShipped, order.LinesShipped{
		OrderID:        "order-1",
		EventID:        "se-1",
		EventType:      payment.ShippingEventShipped,
		Lines:          []payment.LineQuantity{{LineID: "line-1", Quantity: 1}},
		PaymentEventID: "pe-2",
		Reference:      "track-1",
		ShippedAt:      now,
	})

	got, _ = rs.Get("orders", "order-1")
	o = got.(*readmodel.OrderReadModel)
	assert.Equal(t, "partially_shipped", o.Status)
	assert.Equal(t, int64(5500), o.Sources[0].AmountDebited)
	assert.Equal(t, "ch_1", o.Sources[0].Reference)
	assert.Equal(t, 1, o.Lines[0].ShippedQuantity)
	assert.Equal(t, 0, o.Lines[1].ShippedQuantity)
	require.Len(t, o.ShippingEvents, 1)
	assert.Equal(t, "pe-2", o.ShippingEvents[0].PaymentEventID)

	// Second shipment completes the order; no shipping charge this time.
	project(t, p, "order-1", order.AggregateType, order.EventPaymentSettled, order.PaymentSettled{
		OrderID:    "order-1",
		EventID:    "pe-3",
		SourceType: payment.SourceTypeStripe,
		Amount:     4500,
		Lines:      []payment.LineQuantity{{LineID: "line-2", Quantity: 1}},
		Reference:  "ch_2",
		SettledAt:  now,
	})
	project(t, p, "order-1", order.AggregateType, order.EventLinesShipped, order.LinesShipped{
		OrderID:        "order-1",
		EventID:        "se-2",
		EventType:      payment.ShippingEventShipped,
		Lines:          []payment.LineQuantity{{LineID: "line-2", Quantity: 1}},
		PaymentEventID: "pe-3",
		ShippedAt:      now,
	})

	got, _ = rs.Get("orders", "order-1")
	o = got.(*readmodel.OrderReadModel)
	assert.Equal(t, "shipped", o.Status)
	assert.Equal(t, int64(10000), o.Sources[0].AmountDebited)
	require.Len(t, o.PaymentEvents, 3)
}

func TestProjector_OrderNote(t *testing.T) {
	rs := mocks.NewMockReadStore()
	p := NewProjector(rs)
	now := time.Now()

	project(t, p, "order-1", order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID:  "order-1",
		UserID:   "u1",
		Lines:    []order.Line{{ID: "line-1", ProductID: "prod-1", Quantity: 1, UnitPriceInclTax: 100}},
		Currency: "USD",
		PlacedAt: now,
	})
	project(t, p, "order-1", order.AggregateType, order.EventNoteAdded, order.OrderNoteAdded{
		OrderID:   "order-1",
		Message:   "Attempt to settle 55.00 failed: card declined",
		CreatedAt: now,
	})

	got, _ := rs.Get("orders", "order-1")
	o := got.(*readmodel.OrderReadModel)
	require.Len(t, o.Notes, 1)
	assert.Contains(t, o.Notes[0].Message, "Attempt to settle")
}

func TestProjector_ReturnedEventDoesNotShip(t *testing.T) {
	rs := mocks.NewMockReadStore()
	p := NewProjector(rs)
	now := time.Now()

	project(t, p, "order-1", order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID:  "order-1",
		UserID:   "u1",
		Lines:    []order.Line{{ID: "line-1", ProductID: "prod-1", Quantity: 1, UnitPriceInclTax: 100}},
		Currency: "USD",
		PlacedAt: now,
	})
	project(t, p, "order-1", order.AggregateType, order.EventLinesShipped, order.LinesShipped{
		OrderID:   "order-1",
		EventID:   "se-1",
		EventType: payment.ShippingEventReturned,
		Lines:     []payment.LineQuantity{{LineID: "line-1", Quantity: 1}},
		ShippedAt: now,
	})

	got, _ := rs.Get("orders", "order-1")
	o := got.(*readmodel.OrderReadModel)
	require.Len(t, o.ShippingEvents, 1)
	// A return is recorded but never advances shipped quantities or status.
	assert.Equal(t, 0, o.Lines[0].ShippedQuantity)
	assert.Equal(t, "pending", o.Status)
}

// ============================================
// Inventory Projection Tests
// ============================================

func TestProjector_InventoryFlow(t *testing.T) {
	rs := mocks.NewMockReadStore()
	p := NewProjector(rs)
	now := time.Now()

	project(t, p, "prod-1", product.AggregateType, product.EventProductCreated, product.ProductCreated{
		ProductID: "prod-1", Name: "Widget", PriceInclTax: 4500, CreatedAt: now,
	})
	project(t, p, "prod-1", inventory.AggregateType, inventory.EventStockAdded, inventory.StockAdded{
		ProductID: "prod-1", Quantity: 10, AddedAt: now,
	})
	project(t, p, "prod-1", inventory.AggregateType, inventory.EventStockReserved, inventory.StockReserved{
		ProductID: "prod-1", OrderID: "order-1", Quantity: 3, ReservedAt: now,
	})
	project(t, p, "prod-1", inventory.AggregateType, inventory.EventStockConsumed, inventory.StockConsumed{
		ProductID: "prod-1", OrderID: "order-1", Quantity: 2, ConsumedAt: now,
	})

	got, _ := rs.Get("inventory", "prod-1")
	inv := got.(*readmodel.InventoryReadModel)
	assert.Equal(t, 8, inv.TotalStock)
	assert.Equal(t, 1, inv.ReservedStock)
	assert.Equal(t, 7, inv.AvailableStock)

	// The product read model mirrors available stock.
	gotProd, _ := rs.Get("products", "prod-1")
	assert.Equal(t, 7, gotProd.(*readmodel.ProductReadModel).Stock)
}

// ============================================
// Event Handling Tests
// ============================================

func TestProjector_IgnoresUnknownAggregates(t *testing.T) {
	p := NewProjector(mocks.NewMockReadStore())

	value, err := json.Marshal(store.Event{AggregateType: "Mystery", EventType: "Happened"})
	require.NoError(t, err)
	assert.NoError(t, p.HandleEvent(context.Background(), nil, value))
}

func TestProjector_RejectsMalformedPayload(t *testing.T) {
	p := NewProjector(mocks.NewMockReadStore())
	assert.Error(t, p.HandleEvent(context.Background(), nil, []byte("not json")))
}
