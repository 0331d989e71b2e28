package readmodel

import "time"

// ProductReadModel is the read model for products
type ProductReadModel struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceInclTax int64     `json:"price_incl_tax"`
	Stock        int       `json:"stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CartItemReadModel represents an item in the cart
type CartItemReadModel struct {
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	PriceInclTax int64  `json:"price_incl_tax"`
}

// CartReadModel is the read model for shopping carts
type CartReadModel struct {
	ID     string              `json:"id"`
	UserID string              `json:"user_id"`
	Items  []CartItemReadModel `json:"items"`
	Total  int64               `json:"total"`
}

// OrderLineReadModel represents a line of an order
type OrderLineReadModel struct {
	ID               string `json:"id"`
	ProductID        string `json:"product_id"`
	Quantity         int    `json:"quantity"`
	ShippedQuantity  int    `json:"shipped_quantity"`
	UnitPriceInclTax int64  `json:"unit_price_incl_tax"`
}

// PaymentSourceReadModel mirrors an order's payment source
type PaymentSourceReadModel struct {
	Type            string `json:"type"`
	Currency        string `json:"currency"`
	AmountAllocated int64  `json:"amount_allocated"`
	AmountDebited   int64  `json:"amount_debited"`
	Reference       string `json:"reference"`
}

// PaymentEventReadModel mirrors an order's payment event
type PaymentEventReadModel struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// ShippingEventReadModel mirrors an order's shipping event
type ShippingEventReadModel struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	PaymentEventID string    `json:"payment_event_id,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderNoteReadModel mirrors an order note
type OrderNoteReadModel struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderReadModel is the read model for orders, including the settlement
// audit trail so operators can inspect it without replaying events.
type OrderReadModel struct {
	ID              string                   `json:"id"`
	UserID          string                   `json:"user_id"`
	Lines           []OrderLineReadModel     `json:"lines"`
	Currency        string                   `json:"currency"`
	TotalInclTax    int64                    `json:"total_incl_tax"`
	ShippingInclTax int64                    `json:"shipping_incl_tax"`
	Status          string                   `json:"status"`
	Sources         []PaymentSourceReadModel `json:"sources"`
	PaymentEvents   []PaymentEventReadModel  `json:"payment_events"`
	ShippingEvents  []ShippingEventReadModel `json:"shipping_events"`
	Notes           []OrderNoteReadModel     `json:"notes"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// InventoryReadModel is the read model for inventory
type InventoryReadModel struct {
	ProductID      string `json:"product_id"`
	TotalStock     int    `json:"total_stock"`
	ReservedStock  int    `json:"reserved_stock"`
	AvailableStock int    `json:"available_stock"`
}

// UserReadModel is the read model for users
type UserReadModel struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}
