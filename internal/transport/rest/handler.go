// Package rest provides HTTP handlers for the shop workflow.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	shoperrors "github.com/abgdnv/shopbot/internal/errors"
	"github.com/abgdnv/shopbot/internal/service"
	"github.com/abgdnv/shopbot/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.ShopService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler with the provided service.
func NewHandler(service service.ShopService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the shop workflow.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.GetProductInfo)
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/{id}", h.CheckOrderStatus)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// GetProductInfo retrieves a product by the name query parameter.
func (h *Handler) GetProductInfo(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	name := r.URL.Query().Get("name")
	if name == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, "name url parameter is required")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by name", "name", name)
	found, err := h.service.GetProductInfo(r.Context(), name)
	if err != nil {
		if errors.Is(err, shoperrors.ErrProductNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "name", name)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product %q not found", name))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "name", name, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product %q", name))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// CheckOrderStatus retrieves an order by its ID.
func (h *Handler) CheckOrderStatus(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	mLogger.DebugContext(r.Context(), "Received request to check order status", "ID", id)
	found, err := h.service.CheckOrderStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, shoperrors.ErrOrderNotFound) {
			mLogger.WarnContext(r.Context(), "Order not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Order with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving order", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve order with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// CreateOrder handles the creation of a new order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.OrderCreateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create order", "order", dto)
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.CreateOrder(r.Context(), dto.ProductName, dto.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, shoperrors.ErrProductNotFound):
			mLogger.WarnContext(r.Context(), "Product not found", "name", dto.ProductName)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product %q not found", dto.ProductName))
		case errors.Is(err, shoperrors.ErrOutOfStock):
			mLogger.WarnContext(r.Context(), "Product out of stock", "name", dto.ProductName, "quantity", dto.Quantity)
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Product %q is out of stock", dto.ProductName))
		case errors.Is(err, shoperrors.ErrInvalidQuantity):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Quantity must be a positive integer")
		default:
			mLogger.ErrorContext(r.Context(), "Error creating order", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully created order", slog.String("ID", created.ID.String()))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// HealthCheck responds with 200 OK.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggerWithReqID returns a logger bound to the request id.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	if reqID, ok := web.GetRequestID(r.Context()); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
