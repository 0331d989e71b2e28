package store

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"

	"github.com/example/ec-stripe-checkout/internal/readmodel"
)

// PostgresReadStore implements ReadStoreInterface using PostgreSQL.
// Complex order sub-records (lines, sources, events, notes) are stored as
// JSONB columns; they are always read and written as a whole.
type PostgresReadStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	switch collection {
	case "products":
		rs.setProduct(id, data.(*readmodel.ProductReadModel))
	case "carts":
		rs.setCart(id, data.(*readmodel.CartReadModel))
	case "orders":
		rs.setOrder(id, data.(*readmodel.OrderReadModel))
	case "inventory":
		rs.setInventory(id, data.(*readmodel.InventoryReadModel))
	case "users":
		rs.setUser(id, data.(*readmodel.UserReadModel))
	}
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	switch collection {
	case "products":
		return rs.getProduct(id)
	case "carts":
		return rs.getCart(id)
	case "orders":
		return rs.getOrder(id)
	case "inventory":
		return rs.getInventory(id)
	case "users":
		return rs.getUser(id)
	}
	return nil, false
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) []any {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	switch collection {
	case "products":
		return rs.getAllProducts()
	case "carts":
		return rs.getAllCarts()
	case "orders":
		return rs.getAllOrders()
	case "inventory":
		return rs.getAllInventory()
	case "users":
		return rs.getAllUsers()
	}
	return nil
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	table, ok := map[string]string{
		"products":  "read_products",
		"carts":     "read_carts",
		"orders":    "read_orders",
		"inventory": "read_inventory",
		"users":     "read_users",
	}[collection]
	if !ok {
		return
	}

	if _, err := rs.db.Exec("DELETE FROM "+table+" WHERE id = $1", id); err != nil {
		log.Printf("[ReadStore] Failed to delete %s/%s: %v", collection, id, err)
	}
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	current, ok := rs.Get(collection, id)
	if !ok {
		return false
	}
	rs.Set(collection, id, updateFn(current))
	return true
}

// Products

func (rs *PostgresReadStore) setProduct(id string, p *readmodel.ProductReadModel) {
	_, err := rs.db.Exec(
		`INSERT INTO read_products (id, name, description, price_incl_tax, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   name = $2, description = $3, price_incl_tax = $4, stock = $5, updated_at = $7`,
		id, p.Name, p.Description, p.PriceInclTax, p.Stock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set product %s: %v", id, err)
	}
}

func (rs *PostgresReadStore) getProduct(id string) (any, bool) {
	p := &readmodel.ProductReadModel{}
	err := rs.db.QueryRow(
		`SELECT id, name, description, price_incl_tax, stock, created_at, updated_at
		 FROM read_products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.PriceInclTax, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, false
	}
	return p, true
}

func (rs *PostgresReadStore) getAllProducts() []any {
	rows, err := rs.db.Query(
		`SELECT id, name, description, price_incl_tax, stock, created_at, updated_at
		 FROM read_products ORDER BY created_at`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		p := &readmodel.ProductReadModel{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceInclTax, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			continue
		}
		items = append(items, p)
	}
	return items
}

// Carts

func (rs *PostgresReadStore) setCart(id string, c *readmodel.CartReadModel) {
	items, err := json.Marshal(c.Items)
	if err != nil {
		log.Printf("[ReadStore] Failed to marshal cart items %s: %v", id, err)
		return
	}
	_, err = rs.db.Exec(
		`INSERT INTO read_carts (id, user_id, items, total)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET user_id = $2, items = $3, total = $4`,
		id, c.UserID, items, c.Total,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set cart %s: %v", id, err)
	}
}

func (rs *PostgresReadStore) getCart(id string) (any, bool) {
	c := &readmodel.CartReadModel{}
	var items []byte
	err := rs.db.QueryRow(
		`SELECT id, user_id, items, total FROM read_carts WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &items, &c.Total)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, false
	}
	return c, true
}

func (rs *PostgresReadStore) getAllCarts() []any {
	rows, err := rs.db.Query(`SELECT id, user_id, items, total FROM read_carts`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var result []any
	for rows.Next() {
		c := &readmodel.CartReadModel{}
		var items []byte
		if err := rows.Scan(&c.ID, &c.UserID, &items, &c.Total); err != nil {
			continue
		}
		if err := json.Unmarshal(items, &c.Items); err != nil {
			continue
		}
		result = append(result, c)
	}
	return result
}

// Orders

func (rs *PostgresReadStore) setOrder(id string, o *readmodel.OrderReadModel) {
	lines, err1 := json.Marshal(o.Lines)
	sources, err2 := json.Marshal(o.Sources)
	paymentEvents, err3 := json.Marshal(o.PaymentEvents)
	shippingEvents, err4 := json.Marshal(o.ShippingEvents)
	notes, err5 := json.Marshal(o.Notes)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			log.Printf("[ReadStore] Failed to marshal order %s: %v", id, err)
			return
		}
	}

	_, err := rs.db.Exec(
		`INSERT INTO read_orders (id, user_id, lines, currency, total_incl_tax, shipping_incl_tax,
		   status, sources, payment_events, shipping_events, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   lines = $3, status = $7, sources = $8, payment_events = $9,
		   shipping_events = $10, notes = $11, updated_at = $13`,
		id, o.UserID, lines, o.Currency, o.TotalInclTax, o.ShippingInclTax,
		o.Status, sources, paymentEvents, shippingEvents, notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set order %s: %v", id, err)
	}
}

func (rs *PostgresReadStore) getOrder(id string) (any, bool) {
	o := &readmodel.OrderReadModel{}
	var lines, sources, paymentEvents, shippingEvents, notes []byte
	err := rs.db.QueryRow(
		`SELECT id, user_id, lines, currency, total_incl_tax, shipping_incl_tax,
		   status, sources, payment_events, shipping_events, notes, created_at, updated_at
		 FROM read_orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.UserID, &lines, &o.Currency, &o.TotalInclTax, &o.ShippingInclTax,
		&o.Status, &sources, &paymentEvents, &shippingEvents, &notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, false
	}
	if err := unmarshalOrderParts(o, lines, sources, paymentEvents, shippingEvents, notes); err != nil {
		return nil, false
	}
	return o, true
}

func (rs *PostgresReadStore) getAllOrders() []any {
	rows, err := rs.db.Query(
		`SELECT id, user_id, lines, currency, total_incl_tax, shipping_incl_tax,
		   status, sources, payment_events, shipping_events, notes, created_at, updated_at
		 FROM read_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var result []any
	for rows.Next() {
		o := &readmodel.OrderReadModel{}
		var lines, sources, paymentEvents, shippingEvents, notes []byte
		if err := rows.Scan(&o.ID, &o.UserID, &lines, &o.Currency, &o.TotalInclTax, &o.ShippingInclTax,
			&o.Status, &sources, &paymentEvents, &shippingEvents, &notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			continue
		}
		if err := unmarshalOrderParts(o, lines, sources, paymentEvents, shippingEvents, notes); err != nil {
			continue
		}
		result = append(result, o)
	}
	return result
}

func unmarshalOrderParts(o *readmodel.OrderReadModel, lines, sources, paymentEvents, shippingEvents, notes []byte) error {
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return err
	}
	if err := json.Unmarshal(sources, &o.Sources); err != nil {
		return err
	}
	if err := json.Unmarshal(paymentEvents, &o.PaymentEvents); err != nil {
		return err
	}
	if err := json.Unmarshal(shippingEvents, &o.ShippingEvents); err != nil {
		return err
	}
	return json.Unmarshal(notes, &o.Notes)
}

// Inventory

func (rs *PostgresReadStore) setInventory(id string, inv *readmodel.InventoryReadModel) {
	_, err := rs.db.Exec(
		`INSERT INTO read_inventory (id, total_stock, reserved_stock, available_stock)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   total_stock = $2, reserved_stock = $3, available_stock = $4`,
		id, inv.TotalStock, inv.ReservedStock, inv.AvailableStock,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set inventory %s: %v", id, err)
	}
}

func (rs *PostgresReadStore) getInventory(id string) (any, bool) {
	inv := &readmodel.InventoryReadModel{}
	err := rs.db.QueryRow(
		`SELECT id, total_stock, reserved_stock, available_stock
		 FROM read_inventory WHERE id = $1`, id,
	).Scan(&inv.ProductID, &inv.TotalStock, &inv.ReservedStock, &inv.AvailableStock)
	if err != nil {
		return nil, false
	}
	return inv, true
}

func (rs *PostgresReadStore) getAllInventory() []any {
	rows, err := rs.db.Query(
		`SELECT id, total_stock, reserved_stock, available_stock FROM read_inventory`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var result []any
	for rows.Next() {
		inv := &readmodel.InventoryReadModel{}
		if err := rows.Scan(&inv.ProductID, &inv.TotalStock, &inv.ReservedStock, &inv.AvailableStock); err != nil {
			continue
		}
		result = append(result, inv)
	}
	return result
}

// Users

func (rs *PostgresReadStore) setUser(id string, u *readmodel.UserReadModel) {
	_, err := rs.db.Exec(
		`INSERT INTO read_users (id, email, password_hash, name, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET email = $2, password_hash = $3, name = $4`,
		id, u.Email, u.PasswordHash, u.Name, u.CreatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set user %s: %v", id, err)
	}
}

func (rs *PostgresReadStore) getUser(id string) (any, bool) {
	u := &readmodel.UserReadModel{}
	err := rs.db.QueryRow(
		`SELECT id, email, password_hash, name, created_at FROM read_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, false
	}
	return u, true
}

func (rs *PostgresReadStore) getAllUsers() []any {
	rows, err := rs.db.Query(`SELECT id, email, password_hash, name, created_at FROM read_users`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var result []any
	for rows.Next() {
		u := &readmodel.UserReadModel{}
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt); err != nil {
			continue
		}
		result = append(result, u)
	}
	return result
}

// GetUserByEmail looks a user up by email address (used by login)
func (rs *PostgresReadStore) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	u := &readmodel.UserReadModel{}
	err := rs.db.QueryRow(
		`SELECT id, email, password_hash, name, created_at FROM read_users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, false
	}
	return u, true
}
