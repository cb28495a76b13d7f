package store

import (
	"context"
	"errors"
	"fmt"

	shoperrors "github.com/abgdnv/shopbot/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abgdnv/shopbot/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements ProductStore and OrderStore on PostgreSQL.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a store on top of the shared database handle.
func NewPgStore(handle *database.Handle) *PgStore {
	return &PgStore{
		db: handle.Pool(),
	}
}

const productColumns = `id, name, price, description, category, stock_quantity, version, created_at`
const orderColumns = `id, product_id, quantity, status, version, created_at`

// FindByName retrieves the first product whose name equals the given string.
// Returns ErrProductNotFound if no product matches.
func (p *PgStore) FindByName(ctx context.Context, name string) (*Product, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE name = $1 ORDER BY created_at LIMIT 1`,
		name,
	)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shoperrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	return product, nil
}

// Create adds a new product to the catalog.
func (p *PgStore) Create(ctx context.Context, params ProductCreateParams) (*Product, error) {
	row := p.db.QueryRow(ctx,
		`INSERT INTO products (name, price, description, category, stock_quantity)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+productColumns,
		params.Name, params.Price, params.Description, params.Category, params.Stock,
	)
	product, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shoperrors.ErrCreateProduct, err)
	}
	return product, nil
}

// FindByID retrieves a single order by its unique identifier.
// Returns ErrOrderNotFound if no order exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`,
		id,
	)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shoperrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return order, nil
}

// CreateForProduct performs the stock decrement and the order insert in one
// transaction. The decrement is a single conditional UPDATE, so two
// concurrent orders for the last items cannot both pass a stale stock
// check: at most one of them matches the WHERE clause.
func (p *PgStore) CreateForProduct(ctx context.Context, productID uuid.UUID, quantity int32) (*Order, error) {
	var created *Order

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE products
			 SET stock_quantity = stock_quantity - $2, version = version + 1
			 WHERE id = $1 AND stock_quantity >= $2`,
			productID, quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Distinguish a vanished product from insufficient stock.
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check product existence: %w", err)
			}
			if !exists {
				return shoperrors.ErrProductNotFound
			}
			return shoperrors.ErrOutOfStock
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO orders (product_id, quantity, status)
			 VALUES ($1, $2, $3)
			 RETURNING `+orderColumns,
			productID, quantity, OrderStatusPending,
		)
		order, err := scanOrder(row)
		if err != nil {
			return fmt.Errorf("%w: %w", shoperrors.ErrCreateOrder, err)
		}
		created = order
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return created, nil
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return shoperrors.ErrTransactionBegin
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return shoperrors.ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return shoperrors.ErrTransactionCommit
	}
	return nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Category, &p.StockQuantity, &p.Version, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.ProductID, &o.Quantity, &o.Status, &o.Version, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
