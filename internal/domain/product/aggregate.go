package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Product"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidName     = errors.New("product name is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

// Product is a catalogue entry. PriceInclTax is in minor currency units.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceInclTax int64     `json:"price_incl_tax"`
	Stock        int       `json:"stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// ApplyEvent applies a single event to the product state
func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.ID = data.ProductID
		p.Name = data.Name
		p.Description = data.Description
		p.PriceInclTax = data.PriceInclTax
		p.Stock = data.Stock
		p.CreatedAt = data.CreatedAt
		p.UpdatedAt = data.CreatedAt
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Name = data.Name
		p.Description = data.Description
		p.PriceInclTax = data.PriceInclTax
		p.UpdatedAt = data.UpdatedAt
	}
	p.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Create adds a product to the catalogue
func (s *Service) Create(ctx context.Context, name, description string, priceInclTax int64, stock int) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if priceInclTax < 0 {
		return nil, ErrInvalidPrice
	}

	productID := uuid.New().String()
	now := time.Now()

	event := ProductCreated{
		ProductID:    productID,
		Name:         name,
		Description:  description,
		PriceInclTax: priceInclTax,
		Stock:        stock,
		CreatedAt:    now,
	}

	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, event)
	if err != nil {
		return nil, err
	}

	product := &Product{
		ID:           productID,
		Name:         name,
		Description:  description,
		PriceInclTax: priceInclTax,
		Stock:        stock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if storedEvent != nil {
		product.Version = storedEvent.Version
	}
	return product, nil
}

// Update changes a product's catalogue details
func (s *Service) Update(ctx context.Context, productID, name, description string, priceInclTax int64) error {
	if name == "" {
		return ErrInvalidName
	}
	if priceInclTax < 0 {
		return ErrInvalidPrice
	}
	if len(s.eventStore.GetEvents(productID)) == 0 {
		return ErrProductNotFound
	}

	event := ProductUpdated{
		ProductID:    productID,
		Name:         name,
		Description:  description,
		PriceInclTax: priceInclTax,
		UpdatedAt:    time.Now(),
	}
	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductUpdated, event)
	return err
}
