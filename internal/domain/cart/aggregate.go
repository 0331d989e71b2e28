package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/ec-stripe-checkout/internal/domain/aggregate"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
)

type CartItem struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PriceInclTax int64  `json:"price_incl_tax"`
}

type Cart struct {
	ID      string              `json:"id"`
	UserID  string              `json:"user_id"`
	Items   map[string]CartItem `json:"items"` // productID -> item
	Version int                 `json:"version"`
}

// GetCartID returns the cart ID for a user (using userID as cartID for simplicity)
func GetCartID(userID string) string {
	return "cart-" + userID
}

// Aggregate interface implementation
func (c *Cart) GetID() string    { return c.ID }
func (c *Cart) GetVersion() int  { return c.Version }
func (c *Cart) SetVersion(v int) { c.Version = v }

// ApplyEvent applies a single event to the cart state
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if c.Items == nil {
			c.Items = make(map[string]CartItem)
		}
		c.ID = data.CartID
		c.UserID = data.UserID
		if existing, ok := c.Items[data.ProductID]; ok {
			existing.Quantity += data.Quantity
			existing.PriceInclTax = data.PriceInclTax
			c.Items[data.ProductID] = existing
		} else {
			c.Items[data.ProductID] = CartItem{
				ProductID:    data.ProductID,
				Quantity:     data.Quantity,
				PriceInclTax: data.PriceInclTax,
			}
		}
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		delete(c.Items, data.ProductID)
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.Items = make(map[string]CartItem)
	}
	c.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Get loads a user's cart by replaying events
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	cartID := GetCartID(userID)
	c, _, err := aggregate.LoadAggregate(ctx, s.eventStore, cartID, func() *Cart {
		return &Cart{ID: cartID, UserID: userID, Items: make(map[string]CartItem)}
	})
	if err != nil {
		return nil, err
	}
	c.ID = cartID
	c.UserID = userID
	return c, nil
}

// AddItem adds a product to the user's cart
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int, priceInclTax int64) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	event := ItemAddedToCart{
		CartID:       GetCartID(userID),
		UserID:       userID,
		ProductID:    productID,
		Quantity:     quantity,
		PriceInclTax: priceInclTax,
		AddedAt:      time.Now(),
	}
	_, err := s.eventStore.Append(ctx, event.CartID, AggregateType, EventItemAdded, event)
	return err
}

// RemoveItem removes a product from the user's cart
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return ErrInvalidProduct
	}

	event := ItemRemovedFromCart{
		CartID:    GetCartID(userID),
		ProductID: productID,
		RemovedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, event.CartID, AggregateType, EventItemRemoved, event)
	return err
}

// Clear empties the user's cart
func (s *Service) Clear(ctx context.Context, userID string) error {
	event := CartCleared{
		CartID:    GetCartID(userID),
		ClearedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, event.CartID, AggregateType, EventCartCleared, event)
	return err
}
