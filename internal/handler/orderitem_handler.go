package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/rs/zerolog"
)

// OrderItemHandler handles order-item HTTP requests.
type OrderItemHandler struct {
	service service.OrderItemService
	logger  zerolog.Logger
}

// NewOrderItemHandler creates a new order-item handler.
func NewOrderItemHandler(service service.OrderItemService, logger zerolog.Logger) *OrderItemHandler {
	return &OrderItemHandler{
		service: service,
		logger:  logger.With().Str("handler", "orderitem").Logger(),
	}
}

// Create handles POST /api/order-items requests.
func (h *OrderItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	item, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, "Create OrderItem Success", item)
}

// List handles GET /api/order-items requests with filtering and pagination.
func (h *OrderItemHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.OrderItemFilter
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		quantity, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid quantity parameter", h.logger)
			return
		}
		filter.MaxQuantity = &quantity
	}

	opts, err := listOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	items, err := h.service.List(r.Context(), filter, opts)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, "Get OrderItems Success", items)
}

// GetByID handles GET /api/order-items/{id} requests.
func (h *OrderItemHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	item, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, "Get OrderItem Success", item)
}

// Update handles PATCH /api/order-items/{id} requests.
func (h *OrderItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	var req model.OrderItemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	item, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, "Update OrderItem Success", item)
}

// Delete handles DELETE /api/order-items/{id} requests.
func (h *OrderItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	if _, err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, "Delete OrderItem Success", nil)
}

// listOptions parses the shared take/page/sort query parameters.
func listOptions(r *http.Request) (model.ListOptions, error) {
	opts := model.ListOptions{Take: 10, Page: 1, Sort: r.URL.Query().Get("sort")}

	if raw := r.URL.Query().Get("take"); raw != "" {
		take, err := strconv.Atoi(raw)
		if err != nil {
			return opts, errInvalidParam("take")
		}
		opts.Take = take
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return opts, errInvalidParam("page")
		}
		opts.Page = page
	}

	return opts, nil
}
