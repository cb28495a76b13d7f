package store

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/abgdnv/shopbot/internal/database"
	shoperrors "github.com/abgdnv/shopbot/internal/errors"
	pkgconfig "github.com/abgdnv/shopbot/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "SHOPBOT_SKIP_INTEGRATION_TESTS"

// PgStoreSuite exercises PgStore against a real PostgreSQL instance.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	manager     *database.Manager
	store       *PgStore
	logger      *slog.Logger
	ctx         context.Context
}

func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "shopbot_db"
	dbUser := "user"
	dbPassword := "password"

	// The knowledge migration needs the vector extension, so the test runs
	// on the pgvector build of the postgres image.
	s.pgContainer, err = postgres.Run(s.ctx,
		"pgvector/pgvector:pg17",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	require.NoError(s.T(), Migrate(connStr), "Failed to apply migrations")

	s.manager = database.NewManager(pkgconfig.DatabaseConfig{
		URL:     connStr,
		Schema:  "public",
		Timeout: 30 * time.Second,
	})
	handle, err := s.manager.Get(s.ctx)
	require.NoError(s.T(), err, "Failed to get database handle")
	s.store = NewPgStore(handle)
}

func (s *PgStoreSuite) TearDownSuite() {
	if s.manager != nil {
		s.manager.Close()
	}
	if s.pgContainer != nil {
		require.NoError(s.T(), s.pgContainer.Terminate(s.ctx), "Failed to terminate PostgreSQL container")
	}
}

func TestPgStoreSuite(t *testing.T) {
	if os.Getenv(skipIntegrationTests) != "" {
		t.Skipf("skipping integration tests: %s is set", skipIntegrationTests)
	}
	suite.Run(t, new(PgStoreSuite))
}

func (s *PgStoreSuite) mustCreateProduct(name string, stock int32) *Product {
	product, err := s.store.Create(s.ctx, ProductCreateParams{
		Name:        name,
		Price:       1999,
		Description: "A comfortable and stylish t-shirt.",
		Category:    "Apparel",
		Stock:       stock,
	})
	require.NoError(s.T(), err)
	return product
}

func (s *PgStoreSuite) TestCreateAndFindByName() {
	created := s.mustCreateProduct("Classic T-Shirt", 100)
	assert.NotEqual(s.T(), uuid.Nil, created.ID)
	assert.Equal(s.T(), int32(1), created.Version)

	found, err := s.store.FindByName(s.ctx, "Classic T-Shirt")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ID, found.ID)
	assert.Equal(s.T(), int64(1999), found.Price)
	assert.Equal(s.T(), int32(100), found.StockQuantity)
}

func (s *PgStoreSuite) TestFindByNameNotFound() {
	_, err := s.store.FindByName(s.ctx, "no such product")
	assert.ErrorIs(s.T(), err, shoperrors.ErrProductNotFound)
}

func (s *PgStoreSuite) TestFindOrderByIDNotFound() {
	_, err := s.store.FindByID(s.ctx, uuid.New())
	assert.ErrorIs(s.T(), err, shoperrors.ErrOrderNotFound)
}

func (s *PgStoreSuite) TestCreateForProduct() {
	product := s.mustCreateProduct("Hoodie", 100)

	order, err := s.store.CreateForProduct(s.ctx, product.ID, 5)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), OrderStatusPending, order.Status)
	assert.Equal(s.T(), int32(5), order.Quantity)
	assert.Equal(s.T(), product.ID, order.ProductID)

	found, err := s.store.FindByID(s.ctx, order.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), order.ID, found.ID)

	after, err := s.store.FindByName(s.ctx, "Hoodie")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int32(95), after.StockQuantity)
}

func (s *PgStoreSuite) TestCreateForProductOutOfStock() {
	product := s.mustCreateProduct("Beanie", 3)

	_, err := s.store.CreateForProduct(s.ctx, product.ID, 4)
	assert.ErrorIs(s.T(), err, shoperrors.ErrOutOfStock)

	// No mutation on failure.
	after, err := s.store.FindByName(s.ctx, "Beanie")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int32(3), after.StockQuantity)
}

func (s *PgStoreSuite) TestCreateForProductUnknownProduct() {
	_, err := s.store.CreateForProduct(s.ctx, uuid.New(), 1)
	assert.ErrorIs(s.T(), err, shoperrors.ErrProductNotFound)
}

// The conditional UPDATE has to hold up against real concurrent
// transactions, not just the fake used in the service tests.
func (s *PgStoreSuite) TestConcurrentOrdersNeverOversell() {
	const (
		initialStock = int32(10)
		perOrder     = int32(3)
		callers      = 20
	)
	product := s.mustCreateProduct("Limited Sneaker", initialStock)

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.CreateForProduct(s.ctx, product.ID, perOrder)
			results[i] = err
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(s.T(), err, shoperrors.ErrOutOfStock)
		}
	}
	assert.Equal(s.T(), int(initialStock/perOrder), succeeded)

	after, err := s.store.FindByName(s.ctx, "Limited Sneaker")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), initialStock-int32(succeeded)*perOrder, after.StockQuantity)
}
