package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"canteen/internal/auth"
	"canteen/internal/domain"
	"canteen/internal/dto"
	apperrors "canteen/internal/errors"
	"canteen/internal/order/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, actor auth.Identity, req dto.CreateOrderRequest) (*domain.Order, error)
	UpdateStatus(ctx context.Context, actor auth.Identity, orderRef, requested string) (*domain.Order, error)
	Cancel(ctx context.Context, actor auth.Identity, orderRef string) (*domain.Order, error)
	Track(ctx context.Context, token string) (*domain.Order, error)
	Get(ctx context.Context, actor auth.Identity, orderRef string) (*domain.Order, error)
	Archive(ctx context.Context, actor auth.Identity, orderRef string) error
	List(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, int, error)
	ListMine(ctx context.Context, actor auth.Identity, filter repository.ListFilter) ([]*domain.Order, int, error)
}

type OrderController struct {
	service OrderService
	logger  *zap.Logger
}

func NewOrderController(service OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{service: service, logger: logger}
}

func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	order, err := c.service.PlaceOrder(r.Context(), *actor, req)
	if err != nil {
		c.handleServiceError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.OrderFromDomain(order))
}

func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	order, err := c.service.UpdateStatus(r.Context(), *actor, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		c.handleServiceError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	order, err := c.service.Cancel(r.Context(), *actor, chi.URLParam(r, "id"))
	if err != nil {
		c.handleServiceError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

func (c *OrderController) Track(w http.ResponseWriter, r *http.Request) {
	c.track(w, r, chi.URLParam(r, "token"))
}

// TrackLatest serves the no-token fallback: the most recent active order.
// Documented weak guarantee for a UI that lost its reference.
func (c *OrderController) TrackLatest(w http.ResponseWriter, r *http.Request) {
	c.track(w, r, "")
}

func (c *OrderController) track(w http.ResponseWriter, r *http.Request, token string) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	order, err := c.service.Track(r.Context(), token)
	if err != nil {
		c.handleServiceError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	order, err := c.service.Get(r.Context(), *actor, chi.URLParam(r, "id"))
	if err != nil {
		c.handleServiceError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

func (c *OrderController) Archive(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	if err := c.service.Archive(r.Context(), *actor, chi.URLParam(r, "id")); err != nil {
		c.handleServiceError(w, traceID, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	filter := filterFromQuery(r)
	orders, total, err := c.service.List(r.Context(), filter)
	if err != nil {
		c.handleServiceError(w, traceID, err, logger)
		return
	}

	c.writeListResponse(w, filter, orders, total)
}

func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	actor, ok := auth.FromContext(r.Context())
	if !ok {
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	filter := filterFromQuery(r)
	orders, total, err := c.service.ListMine(r.Context(), *actor, filter)
	if err != nil {
		c.handleServiceError(w, traceID, err, logger)
		return
	}

	c.writeListResponse(w, filter, orders, total)
}

// filterFromQuery clamps page and limit to the same bounds the service
// enforces, so the pagination envelope always describes the page that was
// actually served.
func filterFromQuery(r *http.Request) repository.ListFilter {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}
	return repository.ListFilter{
		Status: r.URL.Query().Get("status"),
		Page:   page,
		Limit:  limit,
	}
}

func (c *OrderController) writeListResponse(w http.ResponseWriter, filter repository.ListFilter, orders []*domain.Order, total int) {
	out := make([]dto.OrderDTO, 0, len(orders))
	for _, order := range orders {
		out = append(out, dto.OrderFromDomain(order))
	}

	pages := 0
	if filter.Limit > 0 {
		pages = (total + filter.Limit - 1) / filter.Limit
	}

	c.writeJSON(w, http.StatusOK, dto.ListOrdersResponse{
		Orders: out,
		Pagination: dto.Pagination{
			Page:  filter.Page,
			Limit: filter.Limit,
			Total: total,
			Pages: pages,
		},
	})
}

func (c *OrderController) handleServiceError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}
	if _, ok := apperrors.IsInvalidTransitionError(err); ok {
		c.writeError(w, traceID, http.StatusBadRequest, "INVALID_TRANSITION", err.Error())
		return
	}
	if _, ok := apperrors.IsItemUnavailableError(err); ok {
		c.writeError(w, traceID, http.StatusBadRequest, "ITEM_UNAVAILABLE", err.Error())
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeError(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if _, ok := apperrors.IsForbiddenError(err); ok {
		c.writeError(w, traceID, http.StatusForbidden, "FORBIDDEN", err.Error())
		return
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		c.writeError(w, traceID, http.StatusConflict, "CONFLICT", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

type errorResponse struct {
	TraceID   string    `json:"traceId"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (c *OrderController) writeError(w http.ResponseWriter, traceID string, status int, code, message string) {
	c.writeJSON(w, status, errorResponse{
		TraceID:   traceID,
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

type validationErrorResponse struct {
	TraceID string                       `json:"traceId"`
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
