package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotThreshold(t *testing.T) {
	assert.Equal(t, 10, SnapshotThreshold)
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	state, err := json.Marshal(map[string]interface{}{
		"id":             "order-123",
		"status":         "authorized",
		"total_incl_tax": 10000,
	})
	require.NoError(t, err)

	original := Snapshot{
		AggregateID:   "order-123",
		AggregateType: "Order",
		Version:       10,
		State:         state,
		CreatedAt:     time.Now().Truncate(time.Second),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored Snapshot
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, original.AggregateID, restored.AggregateID)
	assert.Equal(t, original.AggregateType, restored.AggregateType)
	assert.Equal(t, original.Version, restored.Version)
	assert.JSONEq(t, string(original.State), string(restored.State))
}

func TestSnapshot_StateContainsValidJSON(t *testing.T) {
	snapshot := Snapshot{
		AggregateID:   "order-123",
		AggregateType: "Order",
		Version:       10,
		State:         json.RawMessage(`{"id":"order-123","settled_total":10000}`),
		CreatedAt:     time.Now(),
	}

	assert.True(t, json.Valid(snapshot.State))
}
