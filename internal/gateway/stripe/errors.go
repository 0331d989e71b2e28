package stripe

import "fmt"

// CardError is returned when the processor declines the card behind a
// token (insufficient funds, expired card, and so on). It is a normal
// business outcome, not an infrastructure failure.
type CardError struct {
	Code    string
	Message string
}

func (e *CardError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("card declined (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("card declined: %s", e.Message)
}

// APIError is returned for every other processor-side failure: bad
// request, authentication, rate limiting, or a 5xx from the API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe api error (%d %s): %s", e.StatusCode, e.Type, e.Message)
}
