package order

import (
	"context"
	"errors"
	"testing"

	"github.com/example/ec-stripe-checkout/internal/domain/payment"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

// placeTestOrder creates a two-line order with shipping: 2x4500 + 1000 = 10000.
func placeTestOrder(t *testing.T, service *Service) *Order {
	t.Helper()
	ctx := context.Background()

	lines := []Line{
		{ID: "line-1", ProductID: "prod-1", Quantity: 1, UnitPriceInclTax: 4500},
		{ID: "line-2", ProductID: "prod-2", Quantity: 1, UnitPriceInclTax: 4500},
	}
	o, err := service.Place(ctx, "", "user-123", lines, "USD", 1000)
	require.NoError(t, err)
	return o
}

func authorizeTestOrder(t *testing.T, service *Service, o *Order) {
	t.Helper()
	_, err := service.Authorize(context.Background(), o.ID, payment.SourceTypeStripe, o.TotalInclTax, "tok_visa")
	require.NoError(t, err)
}

// ============================================
// Place Order Tests
// ============================================

func TestService_Place_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	lines := []Line{
		{ProductID: "prod-1", Quantity: 2, UnitPriceInclTax: 1000},
		{ProductID: "prod-2", Quantity: 1, UnitPriceInclTax: 2000},
	}

	o, err := service.Place(ctx, "", "user-123", lines, "USD", 500)

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "user-123", o.UserID)
	assert.Equal(t, int64(4500), o.TotalInclTax) // 2*1000 + 1*2000 + 500 shipping
	assert.Equal(t, int64(500), o.ShippingInclTax)
	assert.Equal(t, StatusPending, o.Status)
	for _, line := range o.Lines {
		assert.NotEmpty(t, line.ID)
	}

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventOrderPlaced, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
}

func TestService_Place_WithPreallocatedID(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	lines := []Line{{ProductID: "prod-1", Quantity: 1, UnitPriceInclTax: 1000}}
	o, err := service.Place(ctx, "order-preallocated", "user-123", lines, "USD", 0)

	require.NoError(t, err)
	assert.Equal(t, "order-preallocated", o.ID)
}

func TestService_Place_EmptyLines(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	o, err := service.Place(ctx, "", "user-123", nil, "USD", 0)

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Nil(t, o)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Place_InvalidQuantity(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	lines := []Line{{ProductID: "prod-1", Quantity: 0, UnitPriceInclTax: 1000}}
	_, err := service.Place(ctx, "", "user-123", lines, "USD", 0)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Authorize Tests
// ============================================

func TestService_Authorize_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	o := placeTestOrder(t, service)

	event, err := service.Authorize(context.Background(), o.ID, payment.SourceTypeStripe, 10000, "tok_visa")

	require.NoError(t, err)
	assert.Equal(t, payment.EventTypePreAuth, event.Type)
	assert.Equal(t, int64(10000), event.Amount)
	assert.Equal(t, "tok_visa", event.Reference)

	loaded, err := service.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAuthorized, loaded.Status)

	src, ok := loaded.SourceOfType(payment.SourceTypeStripe)
	require.True(t, ok)
	assert.Equal(t, int64(10000), src.AmountAllocated)
	assert.Equal(t, int64(0), src.AmountDebited)
	assert.Equal(t, "tok_visa", src.Reference)

	require.Len(t, loaded.PaymentEvents, 1)
	assert.Equal(t, payment.EventTypePreAuth, loaded.PaymentEvents[0].Type)

	assert.Equal(t, EventPaymentAuthorized, eventStore.AppendCalls[1].EventType)
}

func TestService_Authorize_ReusesSourceOfSameType(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)

	_, err := service.Authorize(context.Background(), o.ID, payment.SourceTypeStripe, 10000, "tok_first")
	require.NoError(t, err)
	_, err = service.Authorize(context.Background(), o.ID, payment.SourceTypeStripe, 12000, "tok_second")
	require.NoError(t, err)

	loaded, err := service.Get(context.Background(), o.ID)
	require.NoError(t, err)

	// One source per processor; the latest allocation wins.
	require.Len(t, loaded.Sources, 1)
	assert.Equal(t, int64(12000), loaded.Sources[0].AmountAllocated)
	assert.Equal(t, "tok_second", loaded.Sources[0].Reference)

	// Both authorizations remain in the audit trail.
	assert.Len(t, loaded.PaymentEvents, 2)
}

func TestService_Authorize_InvalidAmount(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)

	_, err := service.Authorize(context.Background(), o.ID, payment.SourceTypeStripe, 0, "tok_visa")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestService_Authorize_MissingReference(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)

	_, err := service.Authorize(context.Background(), o.ID, payment.SourceTypeStripe, 10000, "")
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestService_Authorize_OrderNotFound(t *testing.T) {
	service, _ := newTestOrderService()

	_, err := service.Authorize(context.Background(), "missing", payment.SourceTypeStripe, 10000, "tok_visa")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// ============================================
// Settle Tests
// ============================================

func TestService_Settle_Success(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)

	lines := []payment.LineQuantity{{LineID: "line-1", Quantity: 1}}
	event, err := service.Settle(context.Background(), o.ID, payment.SourceTypeStripe, 5500, lines, "ch_1")

	require.NoError(t, err)
	assert.Equal(t, payment.EventTypeSettle, event.Type)
	assert.Equal(t, int64(5500), event.Amount)
	assert.Equal(t, lines, event.Lines)

	loaded, err := service.Get(context.Background(), o.ID)
	require.NoError(t, err)
	src, _ := loaded.SourceOfType(payment.SourceTypeStripe)
	assert.Equal(t, int64(5500), src.AmountDebited)
	assert.Equal(t, int64(4500), src.Balance())
	assert.Equal(t, "ch_1", src.Reference)
	assert.Equal(t, 1, loaded.SettleEventCount())
	assert.Equal(t, int64(5500), loaded.SettledTotal())
}

func TestService_Settle_NeverExceedsAllocation(t *testing.T) {
	service, eventStore := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)

	eventsBefore := len(eventStore.GetEvents(o.ID))

	lines := []payment.LineQuantity{{LineID: "line-1", Quantity: 1}}
	_, err := service.Settle(context.Background(), o.ID, payment.SourceTypeStripe, 10001, lines, "ch_1")

	assert.ErrorIs(t, err, payment.ErrDebitExceedsAllocation)
	// The rejected settlement must leave no trace in the event stream.
	assert.Len(t, eventStore.GetEvents(o.ID), eventsBefore)

	loaded, err := service.Get(context.Background(), o.ID)
	require.NoError(t, err)
	src, _ := loaded.SourceOfType(payment.SourceTypeStripe)
	assert.Equal(t, int64(0), src.AmountDebited)
	assert.Equal(t, 0, loaded.SettleEventCount())
}

func TestService_Settle_SequentialUpToAllocation(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)

	ctx := context.Background()
	_, err := service.Settle(ctx, o.ID, payment.SourceTypeStripe, 5500, []payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "ch_1")
	require.NoError(t, err)
	_, err = service.Settle(ctx, o.ID, payment.SourceTypeStripe, 4500, []payment.LineQuantity{{LineID: "line-2", Quantity: 1}}, "ch_2")
	require.NoError(t, err)

	loaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), loaded.SettledTotal())
	src, _ := loaded.SourceOfType(payment.SourceTypeStripe)
	assert.Equal(t, int64(0), src.Balance())

	// A third settlement has nothing left to take.
	_, err = service.Settle(ctx, o.ID, payment.SourceTypeStripe, 1, []payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "ch_3")
	assert.ErrorIs(t, err, payment.ErrDebitExceedsAllocation)
}

func TestService_Settle_NoSource(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)

	_, err := service.Settle(context.Background(), o.ID, payment.SourceTypeStripe, 1000, nil, "ch_1")
	assert.ErrorIs(t, err, ErrNoPaymentSource)
}

func TestService_Settle_InvalidInputs(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)

	_, err := service.Settle(context.Background(), o.ID, payment.SourceTypeStripe, 0, nil, "ch_1")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = service.Settle(context.Background(), o.ID, payment.SourceTypeStripe, 1000, nil, "")
	assert.ErrorIs(t, err, ErrMissingReference)
}

// ============================================
// Shipment Recording Tests
// ============================================

func TestService_RecordShipment_PartialThenComplete(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)
	ctx := context.Background()

	_, err := service.RecordShipment(ctx, o.ID, payment.ShippingEventShipped,
		[]payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "pe-1", "track-1")
	require.NoError(t, err)

	loaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyShipped, loaded.Status)
	assert.Equal(t, 0, loaded.UnshippedQuantity("line-1"))
	assert.Equal(t, 1, loaded.UnshippedQuantity("line-2"))

	_, err = service.RecordShipment(ctx, o.ID, payment.ShippingEventShipped,
		[]payment.LineQuantity{{LineID: "line-2", Quantity: 1}}, "pe-2", "track-2")
	require.NoError(t, err)

	loaded, err = service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, loaded.Status)
	require.Len(t, loaded.ShippingEvents, 2)
	assert.Equal(t, "pe-1", loaded.ShippingEvents[0].PaymentEventID)
}

func TestService_RecordShipment_Overship(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)
	ctx := context.Background()

	_, err := service.RecordShipment(ctx, o.ID, payment.ShippingEventShipped,
		[]payment.LineQuantity{{LineID: "line-1", Quantity: 2}}, "", "")
	assert.ErrorIs(t, err, ErrQuantityOvershipped)
}

func TestService_RecordShipment_AlreadyShippedLine(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)
	ctx := context.Background()

	_, err := service.RecordShipment(ctx, o.ID, payment.ShippingEventShipped,
		[]payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "", "")
	require.NoError(t, err)

	_, err = service.RecordShipment(ctx, o.ID, payment.ShippingEventShipped,
		[]payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "", "")
	assert.ErrorIs(t, err, ErrQuantityOvershipped)
}

func TestService_RecordShipment_UnknownLine(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	ctx := context.Background()

	_, err := service.RecordShipment(ctx, o.ID, payment.ShippingEventShipped,
		[]payment.LineQuantity{{LineID: "line-x", Quantity: 1}}, "", "")
	assert.ErrorIs(t, err, ErrUnknownLine)
}

func TestService_RecordShipment_ReturnedDoesNotAffectStatus(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)
	ctx := context.Background()

	_, err := service.RecordShipment(ctx, o.ID, payment.ShippingEventShipped,
		[]payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "", "")
	require.NoError(t, err)

	_, err = service.RecordShipment(ctx, o.ID, payment.ShippingEventReturned,
		[]payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "", "rma-1")
	require.NoError(t, err)

	loaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyShipped, loaded.Status)
	require.Len(t, loaded.ShippingEvents, 2)
	assert.Equal(t, payment.ShippingEventReturned, loaded.ShippingEvents[1].Type)
}

// ============================================
// Note Tests
// ============================================

func TestService_AddNote(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	ctx := context.Background()

	err := service.AddNote(ctx, o.ID, "Payment of 55.00 settled using reference 'ch_1' from initial transaction")
	require.NoError(t, err)

	loaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Notes, 1)
	assert.Contains(t, loaded.Notes[0].Message, "55.00")
}

func TestService_AddNote_Empty(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)

	err := service.AddNote(context.Background(), o.ID, "")
	assert.ErrorIs(t, err, ErrEmptyNote)
}

// ============================================
// Replay Tests
// ============================================

func TestService_Get_ReplaysFullHistory(t *testing.T) {
	service, _ := newTestOrderService()
	o := placeTestOrder(t, service)
	authorizeTestOrder(t, service, o)
	ctx := context.Background()

	_, err := service.Settle(ctx, o.ID, payment.SourceTypeStripe, 5500,
		[]payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "ch_1")
	require.NoError(t, err)
	_, err = service.RecordShipment(ctx, o.ID, payment.ShippingEventShipped,
		[]payment.LineQuantity{{LineID: "line-1", Quantity: 1}}, "pe-1", "track-1")
	require.NoError(t, err)

	loaded, err := service.Get(ctx, o.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusPartiallyShipped, loaded.Status)
	assert.Equal(t, int64(5500), loaded.SettledTotal())
	assert.Len(t, loaded.PaymentEvents, 2) // pre-auth + Settle
	assert.Len(t, loaded.ShippingEvents, 1)
	src, _ := loaded.SourceOfType(payment.SourceTypeStripe)
	assert.Equal(t, int64(4500), src.Balance())
}

func TestService_Get_NotFound(t *testing.T) {
	service, _ := newTestOrderService()

	_, err := service.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}
