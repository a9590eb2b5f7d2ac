package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"canteen/internal/auth"
	"canteen/internal/config"
	"canteen/internal/domain"
	"canteen/internal/dto"
	apperrors "canteen/internal/errors"
	"canteen/internal/order/repository"
	"canteen/internal/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxSpecialInstructionsLen = 500

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	TransitionStatus(ctx context.Context, id, expectedCurrent, next string) (*domain.Order, error)
	FindByIDOrNumber(ctx context.Context, token string) (*domain.Order, error)
	FindLatestActive(ctx context.Context) (*domain.Order, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, int, error)
	Deactivate(ctx context.Context, id string) error
}

// MenuLookup resolves the authoritative current price and availability of
// a menu item. Client-supplied prices are never trusted.
type MenuLookup interface {
	GetItem(ctx context.Context, id string) (*domain.MenuItem, error)
}

type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

// Publisher fans an event out to a topic. Delivery is best-effort: the
// implementation must not fail the caller, and a committed order is never
// rolled back because a publish went nowhere.
type Publisher interface {
	Publish(topic, event string, payload interface{})
}

type OrderService struct {
	repo      OrderRepository
	menu      MenuLookup
	numbers   NumberGenerator
	publisher Publisher
	cfg       config.OrderConfig
	logger    *zap.Logger
}

func NewOrderService(
	repo OrderRepository,
	menu MenuLookup,
	numbers NumberGenerator,
	publisher Publisher,
	cfg config.OrderConfig,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		repo:      repo,
		menu:      menu,
		numbers:   numbers,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// PlaceOrder resolves every requested line against the menu, computes the
// totals and the ready-time estimate, persists the order and broadcasts a
// new-order snapshot to the staff and customer topics.
func (s *OrderService) PlaceOrder(ctx context.Context, actor auth.Identity, req dto.CreateOrderRequest) (*domain.Order, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" {
		customerName = actor.Name
	}
	if customerName == "" {
		customerName = "Guest"
	}

	lines := make([]domain.OrderLine, 0, len(req.Items))
	subtotal := 0.0
	for _, reqLine := range req.Items {
		item, err := s.menu.GetItem(ctx, reqLine.MenuItemID)
		if err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok {
				return nil, apperrors.NewNotFoundError("menu item " + reqLine.MenuItemID + " not found")
			}
			return nil, err
		}
		if !item.IsAvailable {
			return nil, apperrors.NewItemUnavailableError(item.ID)
		}

		lineSubtotal := item.Price * float64(reqLine.Quantity)
		subtotal += lineSubtotal
		lines = append(lines, domain.OrderLine{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   reqLine.Quantity,
			UnitPrice:  item.Price,
			Subtotal:   lineSubtotal,
		})
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:                  uuid.NewString(),
		CustomerRef:         actor.PrincipalID,
		CustomerName:        customerName,
		Lines:               lines,
		Subtotal:            subtotal,
		ServiceFee:          s.cfg.ServiceFee,
		Total:               subtotal + s.cfg.ServiceFee,
		Status:              domain.OrderStatusPlaced,
		PaymentStatus:       domain.PaymentStatusUnpaid,
		SpecialInstructions: req.SpecialInstructions,
		EstimatedReadyAt:    now.Add(s.cfg.EstimateBase + time.Duration(len(lines))*s.cfg.EstimatePerItem),
		IsActive:            true,
	}

	persisted, err := s.createWithRetry(ctx, order)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("orderId", persisted.ID),
		zap.String("orderNumber", persisted.OrderNumber),
		zap.Float64("total", persisted.Total),
		zap.Int("itemCount", len(persisted.Lines)))

	s.broadcast(realtime.EventNewOrder, persisted)
	return persisted, nil
}

// createWithRetry obtains an order number and persists. A number collision
// (possible after a degraded-mode fallback) is retried once with a fresh
// number before the conflict is surfaced.
func (s *OrderService) createWithRetry(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	for attempt := 0; attempt < 2; attempt++ {
		orderNumber, err := s.numbers.Next(ctx)
		if err != nil {
			return nil, apperrors.NewInternalError("generating order number", err)
		}
		order.OrderNumber = orderNumber

		err = s.repo.Create(ctx, order)
		if err == nil {
			return s.repo.FindByIDOrNumber(ctx, order.ID)
		}
		if _, ok := apperrors.IsConflictError(err); ok && attempt == 0 {
			s.logger.Warn("order number collision, regenerating", zap.String("orderNumber", orderNumber))
			continue
		}
		return nil, err
	}
	return nil, apperrors.NewConflictError("could not allocate a unique order number")
}

// UpdateStatus validates the requested transition against the status
// machine, applies it through the store's compare-and-set update and
// broadcasts the updated snapshot. Customers may only cancel their own
// orders; every other transition needs a staff or admin role.
func (s *OrderService) UpdateStatus(ctx context.Context, actor auth.Identity, orderRef, requested string) (*domain.Order, error) {
	if !domain.IsValidStatus(requested) {
		return nil, apperrors.NewValidationError("invalid status value", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be one of placed, accepted, preparing, ready, completed, cancelled",
		})
	}

	current, err := s.repo.FindByIDOrNumber(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	if !actor.IsStaff() {
		if requested != domain.OrderStatusCancelled {
			return nil, apperrors.NewForbiddenError("only staff may change order status")
		}
		if current.CustomerRef != actor.PrincipalID {
			return nil, apperrors.NewForbiddenError("customers may only cancel their own orders")
		}
	}

	next, err := domain.Transition(current.Status, requested)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.TransitionStatus(ctx, current.ID, current.Status, next)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("orderId", updated.ID),
		zap.String("orderNumber", updated.OrderNumber),
		zap.String("from", current.Status),
		zap.String("to", updated.Status),
		zap.String("changedBy", actor.PrincipalID))

	s.broadcast(realtime.EventOrderStatusUpdated, updated)
	return updated, nil
}

// Cancel is sugar over UpdateStatus targeting cancelled.
func (s *OrderService) Cancel(ctx context.Context, actor auth.Identity, orderRef string) (*domain.Order, error) {
	return s.UpdateStatus(ctx, actor, orderRef, domain.OrderStatusCancelled)
}

// Track resolves a reconnecting client's token to the current order
// snapshot. The token may be an id or an order number, with or without a
// leading "#". An empty token falls back to the most recently created
// active order; that fallback is best-effort and ambiguous with multiple
// concurrent customers.
func (s *OrderService) Track(ctx context.Context, token string) (*domain.Order, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "#"))
	if token == "" {
		return s.repo.FindLatestActive(ctx)
	}
	return s.repo.FindByIDOrNumber(ctx, token)
}

// Get returns a single order. Customers can only see their own; the order
// existing at all is not revealed to others.
func (s *OrderService) Get(ctx context.Context, actor auth.Identity, orderRef string) (*domain.Order, error) {
	order, err := s.repo.FindByIDOrNumber(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && order.CustomerRef != actor.PrincipalID {
		return nil, apperrors.NewNotFoundError("order " + orderRef + " not found")
	}
	return order, nil
}

// List returns a page of orders for the staff view.
func (s *OrderService) List(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, int, error) {
	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return nil, 0, apperrors.NewValidationError("invalid status filter", apperrors.ValidationDetail{
			Field:   "status",
			Message: "unknown status value",
		})
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// Archive soft-deletes an order: it disappears from every read path and
// from tracking, but the row is kept. Admin-only, enforced at the route.
func (s *OrderService) Archive(ctx context.Context, actor auth.Identity, orderRef string) error {
	order, err := s.repo.FindByIDOrNumber(ctx, orderRef)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, order.ID); err != nil {
		return err
	}

	s.logger.Info("order archived",
		zap.String("orderId", order.ID),
		zap.String("orderNumber", order.OrderNumber),
		zap.String("archivedBy", actor.PrincipalID))
	return nil
}

// ListMine scopes the listing to the calling customer.
func (s *OrderService) ListMine(ctx context.Context, actor auth.Identity, filter repository.ListFilter) ([]*domain.Order, int, error) {
	filter.CustomerRef = actor.PrincipalID
	return s.List(ctx, filter)
}

// broadcast pushes the snapshot to both topics. Failures inside the hub
// never reach here: the order is already committed and the tracking
// endpoint covers any client that missed the event.
func (s *OrderService) broadcast(event string, order *domain.Order) {
	snapshot := dto.OrderFromDomain(order)
	s.publisher.Publish(realtime.TopicStaff, event, snapshot)
	s.publisher.Publish(realtime.TopicCustomer, event, snapshot)
}

func validateCreateRequest(req dto.CreateOrderRequest) error {
	var details []apperrors.ValidationDetail

	if len(req.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "order must contain at least one item",
		})
	}

	for idx, item := range req.Items {
		if strings.TrimSpace(item.MenuItemID) == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].menuItemId",
				Message: "menuItemId is required",
			})
		}
		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(idx) + "].quantity",
				Message: "quantity must be at least 1",
			})
		}
	}

	if req.SpecialInstructions != nil && len(*req.SpecialInstructions) > maxSpecialInstructionsLen {
		details = append(details, apperrors.ValidationDetail{
			Field:   "specialInstructions",
			Message: "specialInstructions exceeds maximum length of 500",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
