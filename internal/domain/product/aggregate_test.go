package product

import (
	"context"
	"testing"

	"github.com/example/ec-stripe-checkout/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Create Tests
// ============================================

func TestService_Create(t *testing.T) {
	es := mocks.NewMockEventStore()
	svc := NewService(es)

	p, err := svc.Create(context.Background(), "Widget", "A widget", 4500, 10)

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, int64(4500), p.PriceInclTax)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 1, p.Version)

	require.Len(t, es.AppendCalls, 1)
	assert.Equal(t, EventProductCreated, es.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, es.AppendCalls[0].AggregateType)
}

func TestService_Create_Validation(t *testing.T) {
	es := mocks.NewMockEventStore()
	svc := NewService(es)
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "desc", 100, 1)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Create(ctx, "Widget", "desc", -1, 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	assert.Empty(t, es.AppendCalls)
}

// ============================================
// Update Tests
// ============================================

func TestService_Update(t *testing.T) {
	es := mocks.NewMockEventStore()
	svc := NewService(es)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Widget", "A widget", 4500, 10)
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, p.ID, "Widget v2", "Better widget", 4900))

	events := es.GetEvents(p.ID)
	require.Len(t, events, 2)
	assert.Equal(t, EventProductUpdated, events[1].EventType)

	// Replay confirms the update lands on the aggregate.
	var replayed Product
	for _, e := range events {
		require.NoError(t, replayed.ApplyEvent(e))
	}
	assert.Equal(t, "Widget v2", replayed.Name)
	assert.Equal(t, int64(4900), replayed.PriceInclTax)
	assert.Equal(t, 10, replayed.Stock)
}

func TestService_Update_NotFound(t *testing.T) {
	svc := NewService(mocks.NewMockEventStore())

	err := svc.Update(context.Background(), "missing", "Widget", "desc", 100)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_Update_Validation(t *testing.T) {
	svc := NewService(mocks.NewMockEventStore())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Update(ctx, "prod-1", "", "desc", 100), ErrInvalidName)
	assert.ErrorIs(t, svc.Update(ctx, "prod-1", "Widget", "desc", -5), ErrInvalidPrice)
}
