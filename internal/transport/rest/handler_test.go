package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	shoperrors "github.com/abgdnv/shopbot/internal/errors"
	"github.com/abgdnv/shopbot/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockShopService is a mock implementation of the ShopService interface
type mockShopService struct {
	product *service.ProductDto
	order   *service.OrderDto
	err     error
}

func (m *mockShopService) GetProductInfo(_ context.Context, _ string) (*service.ProductDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *mockShopService) CheckOrderStatus(_ context.Context, _ string) (*service.OrderDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockShopService) CreateOrder(_ context.Context, _ string, _ int32) (*service.OrderDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockShopService) CreateProduct(_ context.Context, _ service.ProductCreateDto) (*service.ProductDto, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func newTestRouter(svc service.ShopService) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := chi.NewRouter()
	NewHandler(svc, logger).RegisterRoutes(mux)
	return mux
}

func Test_GetProductInfo(t *testing.T) {
	productID := uuid.New()
	tests := []struct {
		name       string
		target     string
		svc        *mockShopService
		wantStatus int
		wantBody   string
	}{
		{
			name:   "found",
			target: "/api/v1/products?name=Classic+T-Shirt",
			svc: &mockShopService{product: &service.ProductDto{
				ID: productID, Name: "Classic T-Shirt", Price: 1999, Stock: 100,
			}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			target:     "/api/v1/products?name=unknown",
			svc:        &mockShopService{err: shoperrors.ErrProductNotFound},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Product \"unknown\" not found"}`,
		},
		{
			name:       "missing name parameter",
			target:     "/api/v1/products",
			svc:        &mockShopService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store failure",
			target:     "/api/v1/products?name=x",
			svc:        &mockShopService{err: assert.AnError},
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(tt.svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func Test_CheckOrderStatus(t *testing.T) {
	orderID := uuid.New()
	t.Run("found", func(t *testing.T) {
		svc := &mockShopService{order: &service.OrderDto{ID: orderID, Quantity: 5, Status: "pending"}}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got service.OrderDto
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, orderID, got.ID)
		assert.Equal(t, "pending", got.Status)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockShopService{err: shoperrors.ErrOrderNotFound}
		rec := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/nonexistent-id", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_CreateOrder(t *testing.T) {
	orderID := uuid.New()
	tests := []struct {
		name       string
		body       string
		svc        *mockShopService
		wantStatus int
	}{
		{
			name: "created",
			body: `{"product_name": "Classic T-Shirt", "quantity": 5}`,
			svc: &mockShopService{order: &service.OrderDto{
				ID: orderID, Quantity: 5, Status: "pending",
			}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "product not found",
			body:       `{"product_name": "unknown", "quantity": 1}`,
			svc:        &mockShopService{err: shoperrors.ErrProductNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "out of stock",
			body:       `{"product_name": "Classic T-Shirt", "quantity": 5000}`,
			svc:        &mockShopService{err: shoperrors.ErrOutOfStock},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "validation failure on quantity",
			body:       `{"product_name": "Classic T-Shirt", "quantity": 0}`,
			svc:        &mockShopService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation failure on missing name",
			body:       `{"quantity": 1}`,
			svc:        &mockShopService{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"product_name": `,
			svc:        &mockShopService{},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			newTestRouter(tt.svc).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func Test_HealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&mockShopService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
