package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-stripe-checkout/internal/domain/aggregate"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
)

const AggregateType = "Inventory"

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNothingReserved   = errors.New("no reserved stock for this order")
)

// Inventory tracks stock per product. Reservations are made per order at
// placement and consumed per shipment.
type Inventory struct {
	ProductID     string         `json:"product_id"`
	TotalStock    int            `json:"total_stock"`
	ReservedStock int            `json:"reserved_stock"`
	Reservations  map[string]int `json:"reservations"` // orderID -> quantity
	Version       int            `json:"version"`
}

func (i *Inventory) AvailableStock() int {
	return i.TotalStock - i.ReservedStock
}

// Aggregate interface implementation
func (i *Inventory) GetID() string    { return i.ProductID }
func (i *Inventory) GetVersion() int  { return i.Version }
func (i *Inventory) SetVersion(v int) { i.Version = v }

// ApplyEvent applies a single event to the inventory state
func (i *Inventory) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventStockAdded:
		var data StockAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ProductID = data.ProductID
		i.TotalStock += data.Quantity
	case EventStockReserved:
		var data StockReserved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i.Reservations == nil {
			i.Reservations = make(map[string]int)
		}
		i.ReservedStock += data.Quantity
		i.Reservations[data.OrderID] += data.Quantity
	case EventStockConsumed:
		var data StockConsumed
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.TotalStock -= data.Quantity
		i.ReservedStock -= data.Quantity
		if i.Reservations != nil {
			i.Reservations[data.OrderID] -= data.Quantity
			if i.Reservations[data.OrderID] <= 0 {
				delete(i.Reservations, data.OrderID)
			}
		}
		if i.TotalStock < 0 {
			i.TotalStock = 0
		}
		if i.ReservedStock < 0 {
			i.ReservedStock = 0
		}
	}
	i.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) load(ctx context.Context, productID string) (*Inventory, error) {
	inv, _, err := aggregate.LoadAggregate(ctx, s.eventStore, productID, func() *Inventory {
		return &Inventory{ProductID: productID}
	})
	if err != nil {
		return nil, err
	}
	inv.ProductID = productID
	return inv, nil
}

// Add increases total stock for a product
func (s *Service) Add(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}

	event := StockAdded{
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	}
	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventStockAdded, event)
	if err != nil {
		return err
	}

	s.snapshotAfter(ctx, inv, storedEvent)
	return nil
}

// Reserve allocates stock to an order at placement time
func (s *Service) Reserve(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if inv.AvailableStock() < quantity {
		return fmt.Errorf("%w: product %s has %d available", ErrInsufficientStock, productID, inv.AvailableStock())
	}

	event := StockReserved{
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   quantity,
		ReservedAt: time.Now(),
	}
	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventStockReserved, event)
	if err != nil {
		return err
	}

	s.snapshotAfter(ctx, inv, storedEvent)
	return nil
}

// Consume removes shipped stock from an order's reservation
func (s *Service) Consume(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.load(ctx, productID)
	if err != nil {
		return err
	}
	if inv.Reservations[orderID] < quantity {
		return fmt.Errorf("%w: order %s reserved %d of product %s", ErrNothingReserved, orderID, inv.Reservations[orderID], productID)
	}

	event := StockConsumed{
		ProductID:  productID,
		OrderID:    orderID,
		Quantity:   quantity,
		ConsumedAt: time.Now(),
	}
	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventStockConsumed, event)
	if err != nil {
		return err
	}

	s.snapshotAfter(ctx, inv, storedEvent)
	return nil
}

func (s *Service) snapshotAfter(ctx context.Context, inv *Inventory, storedEvent *store.Event) {
	if storedEvent == nil {
		return
	}
	if err := inv.ApplyEvent(*storedEvent); err != nil {
		log.Printf("[Inventory] Failed to apply event for product %s: %v", inv.ProductID, err)
		return
	}
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, inv, AggregateType); err != nil {
		log.Printf("[Inventory] Failed to create snapshot for product %s: %v", inv.ProductID, err)
	}
}
