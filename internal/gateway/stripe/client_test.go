package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Client Construction Tests
// ============================================

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	c, err := NewClient("sk_test_123")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

// ============================================
// Charge Tests
// ============================================

func TestCreateCharge_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5500", r.PostForm.Get("amount"))
		assert.Equal(t, "USD", r.PostForm.Get("currency"))
		assert.Equal(t, "tok_visa", r.PostForm.Get("card"))
		assert.Equal(t, "Order settlement", r.PostForm.Get("description"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"ch_123","amount":5500,"currency":"usd","captured":true,"status":"succeeded"}`))
	}))
	defer server.Close()

	client, err := NewClient("sk_test_123", WithBaseURL(server.URL))
	require.NoError(t, err)

	charge, err := client.CreateCharge(context.Background(), ChargeParams{
		Amount:      5500,
		Currency:    "USD",
		Card:        "tok_visa",
		Description: "Order settlement",
	})

	require.NoError(t, err)
	assert.Equal(t, "ch_123", charge.ID)
	assert.Equal(t, int64(5500), charge.Amount)
	assert.True(t, charge.Captured)
}

func TestCreateCharge_CardDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	client, err := NewClient("sk_test_123", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.CreateCharge(context.Background(), ChargeParams{Amount: 100, Currency: "USD", Card: "tok_chargeDeclined"})

	var cardErr *CardError
	require.ErrorAs(t, err, &cardErr)
	assert.Equal(t, "card_declined", cardErr.Code)
	assert.Equal(t, "Your card was declined.", cardErr.Message)
}

func TestCreateCharge_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`))
	}))
	defer server.Close()

	client, err := NewClient("sk_bad", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.CreateCharge(context.Background(), ChargeParams{Amount: 100, Currency: "USD", Card: "tok_visa"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
}

func TestCreateCharge_UnreadableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, err := NewClient("sk_test_123", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.CreateCharge(context.Background(), ChargeParams{Amount: 100, Currency: "USD", Card: "tok_visa"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestCreateCharge_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client, err := NewClient("sk_test_123", WithBaseURL(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.CreateCharge(ctx, ChargeParams{Amount: 100, Currency: "USD", Card: "tok_visa"})
	assert.Error(t, err)
}
