package payment

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSourceType        = errors.New("unknown payment source type")
	ErrUnknownEventType         = errors.New("unknown payment event type")
	ErrUnknownShippingEventType = errors.New("unknown shipping event type")
)

// SourceType identifies the payment processor behind a source.
type SourceType string

const (
	SourceTypeStripe SourceType = "Stripe"
)

// EventType classifies a payment event.
type EventType string

const (
	EventTypePreAuth EventType = "pre-auth"
	EventTypeSettle  EventType = "Settle"
)

// ShippingEventType classifies a shipping event.
type ShippingEventType string

const (
	ShippingEventShipped  ShippingEventType = "Shipped"
	ShippingEventReturned ShippingEventType = "Returned"
)

// TypeRegistry resolves inbound type names to the known enumerated types.
// Unknown names are rejected instead of being created on the fly.
type TypeRegistry interface {
	SourceType(name string) (SourceType, error)
	EventType(name string) (EventType, error)
	ShippingEventType(name string) (ShippingEventType, error)
}

// Registry is the default TypeRegistry over the fixed sets above.
type Registry struct{}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) SourceType(name string) (SourceType, error) {
	switch SourceType(name) {
	case SourceTypeStripe:
		return SourceType(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSourceType, name)
}

func (r *Registry) EventType(name string) (EventType, error) {
	switch EventType(name) {
	case EventTypePreAuth, EventTypeSettle:
		return EventType(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEventType, name)
}

func (r *Registry) ShippingEventType(name string) (ShippingEventType, error) {
	switch ShippingEventType(name) {
	case ShippingEventShipped, ShippingEventReturned:
		return ShippingEventType(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShippingEventType, name)
}

// FormatAmount renders an amount in minor currency units as "D.CC" for
// order notes and email bodies.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
