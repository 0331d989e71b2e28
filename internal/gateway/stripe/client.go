package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultBaseURL = "https://api.stripe.com"

var ErrMissingAPIKey = errors.New("stripe api key is required")

// Client is a thin client for the hosted charges endpoint. It performs a
// single synchronous call per charge: no retry, no circuit breaker. Timeouts
// belong to the injected http.Client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// ChargeParams describes a settlement charge. Amount is in minor currency
// units. Card is the token or card reference the authorization was taken
// against.
type ChargeParams struct {
	Amount      int64
	Currency    string
	Card        string
	Description string
}

// Charge is the processor's record of an executed charge
type Charge struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Captured bool   `json:"captured"`
	Status   string `json:"status"`
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCharge executes a charge against the API. Declines come back as
// *CardError, everything else as *APIError.
func (c *Client) CreateCharge(ctx context.Context, params ChargeParams) (*Charge, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", params.Currency)
	form.Set("card", params.Card)
	if params.Description != "" {
		form.Set("description", params.Description)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "unreadable error response"}
		}
		if envelope.Error.Type == "card_error" {
			return nil, &CardError{Code: envelope.Error.Code, Message: envelope.Error.Message}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Type:       envelope.Error.Type,
			Message:    envelope.Error.Message,
		}
	}

	var charge Charge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}
	return &charge, nil
}
