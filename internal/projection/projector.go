package projection

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/ec-stripe-checkout/internal/domain/cart"
	"github.com/example/ec-stripe-checkout/internal/domain/inventory"
	"github.com/example/ec-stripe-checkout/internal/domain/order"
	"github.com/example/ec-stripe-checkout/internal/domain/payment"
	"github.com/example/ec-stripe-checkout/internal/domain/product"
	"github.com/example/ec-stripe-checkout/internal/domain/user"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
	"github.com/example/ec-stripe-checkout/internal/readmodel"
)

type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	switch event.AggregateType {
	case product.AggregateType:
		return p.handleProductEvent(event)
	case cart.AggregateType:
		return p.handleCartEvent(event)
	case order.AggregateType:
		return p.handleOrderEvent(event)
	case inventory.AggregateType:
		return p.handleInventoryEvent(event)
	case user.AggregateType:
		return p.handleUserEvent(event)
	}

	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("products", e.ProductID, &readmodel.ProductReadModel{
			ID:           e.ProductID,
			Name:         e.Name,
			Description:  e.Description,
			PriceInclTax: e.PriceInclTax,
			Stock:        e.Stock,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Name = e.Name
			prod.Description = e.Description
			prod.PriceInclTax = e.PriceInclTax
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})
	}

	return nil
}

func (p *Projector) handleCartEvent(event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}

		_, ok := p.readStore.Get("carts", e.CartID)
		if !ok {
			p.readStore.Set("carts", e.CartID, &readmodel.CartReadModel{
				ID:     e.CartID,
				UserID: e.UserID,
				Items: []readmodel.CartItemReadModel{
					{ProductID: e.ProductID, Quantity: e.Quantity, PriceInclTax: e.PriceInclTax},
				},
				Total: e.PriceInclTax * int64(e.Quantity),
			})
		} else {
			p.readStore.Update("carts", e.CartID, func(current any) any {
				c := current.(*readmodel.CartReadModel)
				found := false
				for i, item := range c.Items {
					if item.ProductID == e.ProductID {
						c.Items[i].Quantity += e.Quantity
						c.Items[i].PriceInclTax = e.PriceInclTax
						found = true
						break
					}
				}
				if !found {
					c.Items = append(c.Items, readmodel.CartItemReadModel{
						ProductID:    e.ProductID,
						Quantity:     e.Quantity,
						PriceInclTax: e.PriceInclTax,
					})
				}
				c.Total = calculateCartTotal(c.Items)
				return c
			})
		}

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("carts", e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			newItems := make([]readmodel.CartItemReadModel, 0)
			for _, item := range c.Items {
				if item.ProductID != e.ProductID {
					newItems = append(newItems, item)
				}
			}
			c.Items = newItems
			c.Total = calculateCartTotal(c.Items)
			return c
		})

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("carts", e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			c.Items = []readmodel.CartItemReadModel{}
			c.Total = 0
			return c
		})
	}

	return nil
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		lines := make([]readmodel.OrderLineReadModel, len(e.Lines))
		for i, line := range e.Lines {
			lines[i] = readmodel.OrderLineReadModel{
				ID:               line.ID,
				ProductID:        line.ProductID,
				Quantity:         line.Quantity,
				UnitPriceInclTax: line.UnitPriceInclTax,
			}
		}
		p.readStore.Set("orders", e.OrderID, &readmodel.OrderReadModel{
			ID:              e.OrderID,
			UserID:          e.UserID,
			Lines:           lines,
			Currency:        e.Currency,
			TotalInclTax:    e.TotalInclTax,
			ShippingInclTax: e.ShippingInclTax,
			Status:          string(order.StatusPending),
			CreatedAt:       e.PlacedAt,
			UpdatedAt:       e.PlacedAt,
		})

	case order.EventPaymentAuthorized:
		var e order.PaymentAuthorized
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			found := false
			for i := range o.Sources {
				if o.Sources[i].Type == string(e.SourceType) {
					o.Sources[i].Currency = e.Currency
					o.Sources[i].AmountAllocated = e.AmountAllocated
					o.Sources[i].Reference = e.Reference
					found = true
					break
				}
			}
			if !found {
				o.Sources = append(o.Sources, readmodel.PaymentSourceReadModel{
					Type:            string(e.SourceType),
					Currency:        e.Currency,
					AmountAllocated: e.AmountAllocated,
					Reference:       e.Reference,
				})
			}
			o.PaymentEvents = append(o.PaymentEvents, readmodel.PaymentEventReadModel{
				ID:        e.EventID,
				Type:      string(payment.EventTypePreAuth),
				Amount:    e.AmountAllocated,
				Reference: e.Reference,
				CreatedAt: e.AuthorizedAt,
			})
			o.Status = string(order.StatusAuthorized)
			o.UpdatedAt = e.AuthorizedAt
			return o
		})

	case order.EventPaymentSettled:
		var e order.PaymentSettled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			for i := range o.Sources {
				if o.Sources[i].Type == string(e.SourceType) {
					o.Sources[i].AmountDebited += e.Amount
					o.Sources[i].Reference = e.Reference
					break
				}
			}
			o.PaymentEvents = append(o.PaymentEvents, readmodel.PaymentEventReadModel{
				ID:        e.EventID,
				Type:      string(payment.EventTypeSettle),
				Amount:    e.Amount,
				Reference: e.Reference,
				CreatedAt: e.SettledAt,
			})
			o.UpdatedAt = e.SettledAt
			return o
		})

	case order.EventLinesShipped:
		var e order.LinesShipped
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.ShippingEvents = append(o.ShippingEvents, readmodel.ShippingEventReadModel{
				ID:             e.EventID,
				Type:           string(e.EventType),
				PaymentEventID: e.PaymentEventID,
				Reference:      e.Reference,
				CreatedAt:      e.ShippedAt,
			})
			if e.EventType == payment.ShippingEventShipped {
				for _, lq := range e.Lines {
					for i := range o.Lines {
						if o.Lines[i].ID == lq.LineID {
							o.Lines[i].ShippedQuantity += lq.Quantity
							break
						}
					}
				}
				o.Status = string(order.StatusShipped)
				for _, line := range o.Lines {
					if line.ShippedQuantity < line.Quantity {
						o.Status = string(order.StatusPartiallyShipped)
						break
					}
				}
			}
			o.UpdatedAt = e.ShippedAt
			return o
		})

	case order.EventNoteAdded:
		var e order.OrderNoteAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Notes = append(o.Notes, readmodel.OrderNoteReadModel{
				Message:   e.Message,
				CreatedAt: e.CreatedAt,
			})
			o.UpdatedAt = e.CreatedAt
			return o
		})
	}

	return nil
}

func (p *Projector) handleInventoryEvent(event store.Event) error {
	switch event.EventType {
	case inventory.EventStockAdded:
		var e inventory.StockAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		existing, ok := p.readStore.Get("inventory", e.ProductID)
		if !ok {
			p.readStore.Set("inventory", e.ProductID, &readmodel.InventoryReadModel{
				ProductID:      e.ProductID,
				TotalStock:     e.Quantity,
				ReservedStock:  0,
				AvailableStock: e.Quantity,
			})
		} else {
			inv := existing.(*readmodel.InventoryReadModel)
			inv.TotalStock += e.Quantity
			inv.AvailableStock = inv.TotalStock - inv.ReservedStock
			p.readStore.Set("inventory", e.ProductID, inv)
		}

		p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Stock += e.Quantity
			prod.UpdatedAt = time.Now()
			return prod
		})

	case inventory.EventStockReserved:
		var e inventory.StockReserved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("inventory", e.ProductID, func(current any) any {
			inv := current.(*readmodel.InventoryReadModel)
			inv.ReservedStock += e.Quantity
			inv.AvailableStock = inv.TotalStock - inv.ReservedStock
			return inv
		})
		p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Stock -= e.Quantity
			prod.UpdatedAt = time.Now()
			return prod
		})

	case inventory.EventStockConsumed:
		var e inventory.StockConsumed
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		// Consumption releases the reservation and removes the stock for good.
		p.readStore.Update("inventory", e.ProductID, func(current any) any {
			inv := current.(*readmodel.InventoryReadModel)
			inv.TotalStock -= e.Quantity
			inv.ReservedStock -= e.Quantity
			inv.AvailableStock = inv.TotalStock - inv.ReservedStock
			return inv
		})
	}

	return nil
}

func (p *Projector) handleUserEvent(event store.Event) error {
	switch event.EventType {
	case user.EventUserRegistered:
		var e user.UserRegistered
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("users", e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Name:         e.Name,
			CreatedAt:    e.RegisteredAt,
		})
	}

	return nil
}

func calculateCartTotal(items []readmodel.CartItemReadModel) int64 {
	var total int64
	for _, item := range items {
		total += item.PriceInclTax * int64(item.Quantity)
	}
	return total
}
