// Package service implements the product/order workflow used by the REST
// transport and the assistant tools.
package service

import (
	"context"
	"log/slog"
	"time"

	shoperrors "github.com/abgdnv/shopbot/internal/errors"
	"github.com/abgdnv/shopbot/internal/store"
	"github.com/abgdnv/shopbot/pkg/messaging"
	"github.com/abgdnv/shopbot/pkg/messaging/events"
	"github.com/google/uuid"
)

// ShopService defines the workflow operations.
// Lookup misses and insufficient stock are expected outcomes, reported via
// the sentinel errors in internal/errors so every caller can turn them into
// a user-facing message instead of a failure.
type ShopService interface {
	// GetProductInfo retrieves the first product with the given name.
	// Returns ErrProductNotFound if no product matches.
	GetProductInfo(ctx context.Context, name string) (*ProductDto, error)

	// CheckOrderStatus retrieves an order by its identifier. A value that
	// is not a well-formed identifier is treated the same as an unknown
	// one. Returns ErrOrderNotFound on a miss.
	CheckOrderStatus(ctx context.Context, orderID string) (*OrderDto, error)

	// CreateOrder places an order for quantity units of the named product.
	// The stock decrement and the order insert are atomic: on
	// ErrOutOfStock or ErrProductNotFound nothing has been mutated.
	CreateOrder(ctx context.Context, productName string, quantity int32) (*OrderDto, error)

	// CreateProduct adds a product to the catalog. Used by the seed
	// command; the assistant has no tool for it.
	CreateProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error)
}

// Service implements ShopService on top of the store layer.
type Service struct {
	productStore store.ProductStore
	orderStore   store.OrderStore
	publisher    messaging.Publisher
}

// NewService creates a new Service with the provided stores and event publisher.
func NewService(productStore store.ProductStore, orderStore store.OrderStore, publisher messaging.Publisher) *Service {
	return &Service{
		productStore: productStore,
		orderStore:   orderStore,
		publisher:    publisher,
	}
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"` // cents
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Stock       int32     `json:"stock"`
	CreatedAt   string    `json:"created_at"`
}

// OrderDto represents the data transfer object for an order.
type OrderDto struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt string    `json:"created_at"`
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Price       int64  `json:"price"       validate:"required,min=0"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category"    validate:"max=100"`
	Stock       int32  `json:"stock"       validate:"min=0"`
}

// OrderCreateDto represents the data transfer object for creating a new order.
type OrderCreateDto struct {
	ProductName string `json:"product_name" validate:"required,max=100"`
	Quantity    int32  `json:"quantity"     validate:"required,min=1"`
}

// GetProductInfo retrieves a product by name and returns it as a ProductDto.
func (s *Service) GetProductInfo(ctx context.Context, name string) (*ProductDto, error) {
	product, err := s.productStore.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return toProductDto(product), nil
}

// CheckOrderStatus retrieves an order by its identifier.
func (s *Service) CheckOrderStatus(ctx context.Context, orderID string) (*OrderDto, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		// A malformed identifier cannot name an existing order.
		return nil, shoperrors.ErrOrderNotFound
	}
	order, err := s.orderStore.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrderDto(order), nil
}

// CreateOrder looks up the product by name and delegates the atomic
// decrement-and-insert to the store. An OrderCreatedEvent is published
// after the transaction commits; publish failures are logged, not returned,
// because the order already exists.
func (s *Service) CreateOrder(ctx context.Context, productName string, quantity int32) (*OrderDto, error) {
	if quantity <= 0 {
		return nil, shoperrors.ErrInvalidQuantity
	}

	product, err := s.productStore.FindByName(ctx, productName)
	if err != nil {
		return nil, err
	}

	order, err := s.orderStore.CreateForProduct(ctx, product.ID, quantity)
	if err != nil {
		return nil, err
	}

	event := events.OrderCreatedEvent{
		OrderID:   order.ID,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
		CreatedAt: order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish OrderCreatedEvent", "order_id", order.ID, "error", err)
	}

	return toOrderDto(order), nil
}

// CreateProduct adds a product to the catalog and returns it as a ProductDto.
func (s *Service) CreateProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	created, err := s.productStore.Create(ctx, store.ProductCreateParams{
		Name:        product.Name,
		Price:       product.Price,
		Description: product.Description,
		Category:    product.Category,
		Stock:       product.Stock,
	})
	if err != nil {
		return nil, err
	}
	return toProductDto(created), nil
}

func toProductDto(p *store.Product) *ProductDto {
	if p == nil {
		return nil
	}
	return &ProductDto{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Stock:       p.StockQuantity,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

func toOrderDto(o *store.Order) *OrderDto {
	if o == nil {
		return nil
	}
	return &OrderDto{
		ID:        o.ID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Status:    o.Status,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
}
