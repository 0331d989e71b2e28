package query

import (
	"github.com/example/ec-stripe-checkout/internal/domain/cart"
	"github.com/example/ec-stripe-checkout/internal/infrastructure/store"
	"github.com/example/ec-stripe-checkout/internal/readmodel"
)

type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// Products
func (h *Handler) GetProduct(id string) (*readmodel.ProductReadModel, bool) {
	data, ok := h.readStore.Get("products", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.ProductReadModel), true
}

func (h *Handler) ListProducts() []*readmodel.ProductReadModel {
	items := h.readStore.GetAll("products")
	products := make([]*readmodel.ProductReadModel, 0, len(items))
	for _, item := range items {
		products = append(products, item.(*readmodel.ProductReadModel))
	}
	return products
}

// Cart
func (h *Handler) GetCart(userID string) *readmodel.CartReadModel {
	cartID := cart.GetCartID(userID)
	data, ok := h.readStore.Get("carts", cartID)
	if !ok {
		return &readmodel.CartReadModel{
			ID:     cartID,
			UserID: userID,
			Items:  []readmodel.CartItemReadModel{},
			Total:  0,
		}
	}
	return data.(*readmodel.CartReadModel)
}

// Orders
func (h *Handler) GetOrder(id string) (*readmodel.OrderReadModel, bool) {
	data, ok := h.readStore.Get("orders", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.OrderReadModel), true
}

func (h *Handler) ListOrdersByUser(userID string) []*readmodel.OrderReadModel {
	items := h.readStore.GetAll("orders")
	orders := make([]*readmodel.OrderReadModel, 0)
	for _, item := range items {
		o := item.(*readmodel.OrderReadModel)
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders
}

// ListAllOrders returns all orders (for admin use)
func (h *Handler) ListAllOrders() []*readmodel.OrderReadModel {
	items := h.readStore.GetAll("orders")
	orders := make([]*readmodel.OrderReadModel, 0, len(items))
	for _, item := range items {
		orders = append(orders, item.(*readmodel.OrderReadModel))
	}
	return orders
}

// Inventory
func (h *Handler) GetInventory(productID string) (*readmodel.InventoryReadModel, bool) {
	data, ok := h.readStore.Get("inventory", productID)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.InventoryReadModel), true
}

// Users
func (h *Handler) GetUser(id string) (*readmodel.UserReadModel, bool) {
	data, ok := h.readStore.Get("users", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.UserReadModel), true
}

// GetUserByEmail scans the users collection for a matching email. The
// Postgres read store answers this with an indexed lookup instead.
func (h *Handler) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	if pg, ok := h.readStore.(*store.PostgresReadStore); ok {
		return pg.GetUserByEmail(email)
	}
	for _, item := range h.readStore.GetAll("users") {
		u := item.(*readmodel.UserReadModel)
		if u.Email == email {
			return u, true
		}
	}
	return nil, false
}
