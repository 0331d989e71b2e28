package product

import "time"

const (
	EventProductCreated = "ProductCreated"
	EventProductUpdated = "ProductUpdated"
)

type ProductCreated struct {
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceInclTax int64     `json:"price_incl_tax"`
	Stock        int       `json:"stock"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProductUpdated struct {
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceInclTax int64     `json:"price_incl_tax"`
	UpdatedAt    time.Time `json:"updated_at"`
}
