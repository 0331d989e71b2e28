package command

// Product Commands
type CreateProduct struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceInclTax int64  `json:"price_incl_tax"`
	Stock        int    `json:"stock"`
}

type UpdateProduct struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceInclTax int64  `json:"price_incl_tax"`
}

// Cart Commands
type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}
