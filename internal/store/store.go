// Package store provides product and order storage operations.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product is a catalog record. Name is the lookup key used by the
// assistant, but it is not declared unique: lookups return the first match.
type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         int64     `json:"price"` // cents
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	StockQuantity int32     `json:"stock"`
	Version       int32     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
}

// Order references a product and starts in status "pending".
type Order struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	Status    string    `json:"status"`
	Version   int32     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderStatusPending is the initial status of every order.
const OrderStatusPending = "pending"

// ProductCreateParams carries the fields of a new catalog record.
type ProductCreateParams struct {
	Name        string
	Price       int64
	Description string
	Category    string
	Stock       int32
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByName retrieves the first product whose name equals the given
	// string. Returns ErrProductNotFound if no product matches.
	FindByName(ctx context.Context, name string) (*Product, error)

	// Create adds a new product to the catalog.
	Create(ctx context.Context, params ProductCreateParams) (*Product, error)
}

// OrderStore is an interface for order storage operations.
type OrderStore interface {
	// FindByID retrieves a single order by its unique identifier.
	// Returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// CreateForProduct decrements the product's stock by quantity and
	// creates the order in a single transaction. The decrement is
	// conditional on sufficient stock, so concurrent calls can never
	// over-sell. Returns ErrProductNotFound if the product is gone and
	// ErrOutOfStock if the remaining stock is insufficient; in both cases
	// nothing is mutated.
	CreateForProduct(ctx context.Context, productID uuid.UUID, quantity int32) (*Order, error)
}
