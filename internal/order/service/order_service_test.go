package service

import (
	"context"
	"testing"
	"time"

	"canteen/internal/auth"
	"canteen/internal/config"
	"canteen/internal/domain"
	"canteen/internal/dto"
	apperrors "canteen/internal/errors"
	"canteen/internal/order/repository"
	"canteen/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock implementations

type mockOrderRepository struct {
	CreateFunc           func(ctx context.Context, order *domain.Order) error
	TransitionStatusFunc func(ctx context.Context, id, expectedCurrent, next string) (*domain.Order, error)
	FindByIDOrNumberFunc func(ctx context.Context, token string) (*domain.Order, error)
	FindLatestActiveFunc func(ctx context.Context) (*domain.Order, error)
	ListFunc             func(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, int, error)
	DeactivateFunc       func(ctx context.Context, id string) error
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return m.CreateFunc(ctx, order)
}

func (m *mockOrderRepository) TransitionStatus(ctx context.Context, id, expectedCurrent, next string) (*domain.Order, error) {
	return m.TransitionStatusFunc(ctx, id, expectedCurrent, next)
}

func (m *mockOrderRepository) FindByIDOrNumber(ctx context.Context, token string) (*domain.Order, error) {
	return m.FindByIDOrNumberFunc(ctx, token)
}

func (m *mockOrderRepository) FindLatestActive(ctx context.Context) (*domain.Order, error) {
	return m.FindLatestActiveFunc(ctx)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, int, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockOrderRepository) Deactivate(ctx context.Context, id string) error {
	return m.DeactivateFunc(ctx, id)
}

type mockMenuLookup struct {
	GetItemFunc func(ctx context.Context, id string) (*domain.MenuItem, error)
}

func (m *mockMenuLookup) GetItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	return m.GetItemFunc(ctx, id)
}

type mockNumberGenerator struct {
	numbers []string
	calls   int
}

func (m *mockNumberGenerator) Next(ctx context.Context) (string, error) {
	n := m.numbers[m.calls%len(m.numbers)]
	m.calls++
	return n, nil
}

type publishedEvent struct {
	Topic   string
	Event   string
	Payload interface{}
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Publish(topic, event string, payload interface{}) {
	m.events = append(m.events, publishedEvent{Topic: topic, Event: event, Payload: payload})
}

// Helpers

func testOrderConfig() config.OrderConfig {
	return config.OrderConfig{
		NumberPrefix:    "MRC",
		ServiceFee:      5,
		EstimateBase:    15 * time.Minute,
		EstimatePerItem: 2 * time.Minute,
	}
}

func testMenu() *mockMenuLookup {
	items := map[string]*domain.MenuItem{
		"item-a": {ID: "item-a", Name: "Fried Rice", Price: 100, IsAvailable: true},
		"item-b": {ID: "item-b", Name: "Iced Tea", Price: 50, IsAvailable: true},
		"item-off": {ID: "item-off", Name: "Seasonal Soup", Price: 30, IsAvailable: false},
	}
	return &mockMenuLookup{
		GetItemFunc: func(ctx context.Context, id string) (*domain.MenuItem, error) {
			item, ok := items[id]
			if !ok {
				return nil, apperrors.NewNotFoundError("menu item " + id + " not found")
			}
			return item, nil
		},
	}
}

// echoRepo persists the created order in memory and echoes it back.
func echoRepo() (*mockOrderRepository, *domain.Order) {
	saved := &domain.Order{}
	repo := &mockOrderRepository{}
	repo.CreateFunc = func(ctx context.Context, order *domain.Order) error {
		*saved = *order
		return nil
	}
	repo.FindByIDOrNumberFunc = func(ctx context.Context, token string) (*domain.Order, error) {
		if saved.ID == "" {
			return nil, apperrors.NewNotFoundError("order " + token + " not found")
		}
		return saved, nil
	}
	return repo, saved
}

func newTestService(
	repo *mockOrderRepository,
	menu *mockMenuLookup,
	gen *mockNumberGenerator,
	pub *mockPublisher,
) *OrderService {
	return NewOrderService(repo, menu, gen, pub, testOrderConfig(), zap.NewNop())
}

var (
	customerActor = auth.Identity{PrincipalID: "cust-1", Name: "John Doe", Role: auth.RoleCustomer}
	staffActor    = auth.Identity{PrincipalID: "staff-1", Name: "Sam", Role: auth.RoleStaff}
)

// PlaceOrder

func TestPlaceOrder_ComputesTotalsFromAuthoritativePrices(t *testing.T) {
	repo, _ := echoRepo()
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"MRC000001"}}, pub)

	order, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{
		CustomerName: "John Doe",
		Items: []dto.CreateOrderLine{
			{MenuItemID: "item-a", Quantity: 2},
			{MenuItemID: "item-b", Quantity: 1},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 250.0, order.Subtotal)
	assert.Equal(t, 5.0, order.ServiceFee)
	assert.Equal(t, 255.0, order.Total)
	assert.Equal(t, "MRC000001", order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPlaced, order.Status)
	assert.Equal(t, "cust-1", order.CustomerRef)

	require.Len(t, order.Lines, 2)
	assert.Equal(t, 200.0, order.Lines[0].Subtotal)
	assert.Equal(t, 100.0, order.Lines[0].UnitPrice)
	assert.Equal(t, "Fried Rice", order.Lines[0].Name)
}

func TestPlaceOrder_EstimatedReadyTime(t *testing.T) {
	repo, _ := echoRepo()
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"MRC000001"}}, &mockPublisher{})

	order, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{
		Items: []dto.CreateOrderLine{
			{MenuItemID: "item-a", Quantity: 1},
			{MenuItemID: "item-b", Quantity: 3},
		},
	})

	require.NoError(t, err)
	// base 15m + 2 lines * 2m
	expected := time.Now().UTC().Add(19 * time.Minute)
	assert.WithinDuration(t, expected, order.EstimatedReadyAt, 5*time.Second)
}

func TestPlaceOrder_EmptyItems_NothingPersistedOrPublished(t *testing.T) {
	created := false
	repo := &mockOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) error {
			created = true
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"MRC000001"}}, pub)

	_, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{})

	require.Error(t, err)
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "items", ve.Details[0].Field)
	assert.False(t, created)
	assert.Empty(t, pub.events)
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	repo, _ := echoRepo()
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"MRC000001"}}, &mockPublisher{})

	_, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{
		Items: []dto.CreateOrderLine{{MenuItemID: "item-a", Quantity: 0}},
	})

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestPlaceOrder_UnavailableItem(t *testing.T) {
	repo, _ := echoRepo()
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"MRC000001"}}, pub)

	_, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{
		Items: []dto.CreateOrderLine{{MenuItemID: "item-off", Quantity: 1}},
	})

	require.Error(t, err)
	iue, ok := apperrors.IsItemUnavailableError(err)
	require.True(t, ok)
	assert.Equal(t, "item-off", iue.ItemID)
	assert.Empty(t, pub.events)
}

func TestPlaceOrder_UnknownItem(t *testing.T) {
	repo, _ := echoRepo()
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"MRC000001"}}, &mockPublisher{})

	_, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{
		Items: []dto.CreateOrderLine{{MenuItemID: "item-ghost", Quantity: 1}},
	})

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestPlaceOrder_PublishesNewOrderToBothTopics(t *testing.T) {
	repo, _ := echoRepo()
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"MRC000001"}}, pub)

	_, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{
		Items: []dto.CreateOrderLine{{MenuItemID: "item-a", Quantity: 1}},
	})

	require.NoError(t, err)
	require.Len(t, pub.events, 2)
	assert.Equal(t, realtime.TopicStaff, pub.events[0].Topic)
	assert.Equal(t, realtime.TopicCustomer, pub.events[1].Topic)
	for _, ev := range pub.events {
		assert.Equal(t, realtime.EventNewOrder, ev.Event)
		snapshot, ok := ev.Payload.(dto.OrderDTO)
		require.True(t, ok)
		assert.Equal(t, "MRC000001", snapshot.OrderNumber)
	}
}

func TestPlaceOrder_NumberCollisionRetriedOnce(t *testing.T) {
	saved := &domain.Order{}
	attempts := 0
	repo := &mockOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) error {
			attempts++
			if attempts == 1 {
				return apperrors.NewConflictError("order number MRC000001 already exists")
			}
			*saved = *order
			return nil
		},
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return saved, nil
		},
	}
	gen := &mockNumberGenerator{numbers: []string{"MRC000001", "MRC000002"}}
	svc := newTestService(repo, testMenu(), gen, &mockPublisher{})

	order, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{
		Items: []dto.CreateOrderLine{{MenuItemID: "item-a", Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, "MRC000002", order.OrderNumber)
}

func TestPlaceOrder_SecondCollisionSurfacesConflict(t *testing.T) {
	repo := &mockOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) error {
			return apperrors.NewConflictError("order number already exists")
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"MRC000001"}}, pub)

	_, err := svc.PlaceOrder(context.Background(), customerActor, dto.CreateOrderRequest{
		Items: []dto.CreateOrderLine{{MenuItemID: "item-a", Quantity: 1}},
	})

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Empty(t, pub.events)
}

// UpdateStatus

func storedOrder(status string) *domain.Order {
	return &domain.Order{
		ID:          "order-1",
		OrderNumber: "MRC000001",
		CustomerRef: "cust-1",
		Status:      status,
		IsActive:    true,
	}
}

func TestUpdateStatus_StaffAdvancesAndBroadcasts(t *testing.T) {
	current := storedOrder(domain.OrderStatusPlaced)
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return current, nil
		},
		TransitionStatusFunc: func(ctx context.Context, id, expectedCurrent, next string) (*domain.Order, error) {
			assert.Equal(t, "order-1", id)
			assert.Equal(t, domain.OrderStatusPlaced, expectedCurrent)
			assert.Equal(t, domain.OrderStatusAccepted, next)
			updated := *current
			updated.Status = next
			return &updated, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, pub)

	order, err := svc.UpdateStatus(context.Background(), staffActor, "order-1", domain.OrderStatusAccepted)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAccepted, order.Status)

	require.Len(t, pub.events, 2)
	assert.Equal(t, realtime.TopicStaff, pub.events[0].Topic)
	assert.Equal(t, realtime.TopicCustomer, pub.events[1].Topic)
	for _, ev := range pub.events {
		assert.Equal(t, realtime.EventOrderStatusUpdated, ev.Event)
	}
}

func TestUpdateStatus_InvalidStatusValue(t *testing.T) {
	repo := &mockOrderRepository{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	_, err := svc.UpdateStatus(context.Background(), staffActor, "order-1", "confirmed")

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestUpdateStatus_BackwardTransitionRejectedBeforeStore(t *testing.T) {
	transitioned := false
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return storedOrder(domain.OrderStatusReady), nil
		},
		TransitionStatusFunc: func(ctx context.Context, id, expectedCurrent, next string) (*domain.Order, error) {
			transitioned = true
			return nil, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, pub)

	_, err := svc.UpdateStatus(context.Background(), staffActor, "order-1", domain.OrderStatusPreparing)

	require.Error(t, err)
	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
	assert.False(t, transitioned)
	assert.Empty(t, pub.events)
}

func TestUpdateStatus_CustomerMayNotAdvance(t *testing.T) {
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return storedOrder(domain.OrderStatusPlaced), nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	_, err := svc.UpdateStatus(context.Background(), customerActor, "order-1", domain.OrderStatusAccepted)

	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestUpdateStatus_CustomerCancelsOwnOrder(t *testing.T) {
	current := storedOrder(domain.OrderStatusPlaced)
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return current, nil
		},
		TransitionStatusFunc: func(ctx context.Context, id, expectedCurrent, next string) (*domain.Order, error) {
			updated := *current
			updated.Status = next
			return &updated, nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	order, err := svc.Cancel(context.Background(), customerActor, "order-1")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
}

func TestUpdateStatus_CustomerCannotCancelOthersOrder(t *testing.T) {
	other := storedOrder(domain.OrderStatusPlaced)
	other.CustomerRef = "cust-2"
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return other, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, pub)

	_, err := svc.Cancel(context.Background(), customerActor, "order-1")

	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)
	assert.Empty(t, pub.events)
}

func TestUpdateStatus_LostRaceSurfacesConflict(t *testing.T) {
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return storedOrder(domain.OrderStatusAccepted), nil
		},
		TransitionStatusFunc: func(ctx context.Context, id, expectedCurrent, next string) (*domain.Order, error) {
			return nil, apperrors.NewConflictError("order order-1 is no longer in status accepted")
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, pub)

	_, err := svc.UpdateStatus(context.Background(), staffActor, "order-1", domain.OrderStatusPreparing)

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Empty(t, pub.events)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return nil, apperrors.NewNotFoundError("order " + token + " not found")
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	_, err := svc.UpdateStatus(context.Background(), staffActor, "missing", domain.OrderStatusAccepted)

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

// Track

func TestTrack_StripsDisplayMarker(t *testing.T) {
	var seen string
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			seen = token
			return storedOrder(domain.OrderStatusReady), nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	_, err := svc.Track(context.Background(), " #MRC000001 ")

	require.NoError(t, err)
	assert.Equal(t, "MRC000001", seen)
}

func TestTrack_EmptyTokenFallsBackToLatestActive(t *testing.T) {
	latest := storedOrder(domain.OrderStatusPreparing)
	repo := &mockOrderRepository{
		FindLatestActiveFunc: func(ctx context.Context) (*domain.Order, error) {
			return latest, nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	order, err := svc.Track(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, latest.ID, order.ID)
}

// Get / List

func TestGet_CustomerCannotSeeOthersOrder(t *testing.T) {
	other := storedOrder(domain.OrderStatusPlaced)
	other.CustomerRef = "cust-2"
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return other, nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	_, err := svc.Get(context.Background(), customerActor, "order-1")

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestGet_StaffSeesAnyOrder(t *testing.T) {
	other := storedOrder(domain.OrderStatusPlaced)
	other.CustomerRef = "cust-2"
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return other, nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	order, err := svc.Get(context.Background(), staffActor, "order-1")

	require.NoError(t, err)
	assert.Equal(t, "cust-2", order.CustomerRef)
}

func TestList_InvalidStatusFilter(t *testing.T) {
	repo := &mockOrderRepository{}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	_, _, err := svc.List(context.Background(), repository.ListFilter{Status: "confirmed"})

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestList_NormalizesPagination(t *testing.T) {
	var seen repository.ListFilter
	repo := &mockOrderRepository{
		ListFunc: func(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, int, error) {
			seen = filter
			return nil, 0, nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	_, _, err := svc.List(context.Background(), repository.ListFilter{Page: 0, Limit: 1000})

	require.NoError(t, err)
	assert.Equal(t, 1, seen.Page)
	assert.Equal(t, 50, seen.Limit)
}

func TestArchive_DeactivatesResolvedOrder(t *testing.T) {
	var deactivated string
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			assert.Equal(t, "MRC000001", token)
			return storedOrder(domain.OrderStatusCompleted), nil
		},
		DeactivateFunc: func(ctx context.Context, id string) error {
			deactivated = id
			return nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	err := svc.Archive(context.Background(), staffActor, "MRC000001")

	require.NoError(t, err)
	assert.Equal(t, "order-1", deactivated)
}

func TestArchive_MissingOrderIsNotFound(t *testing.T) {
	repo := &mockOrderRepository{
		FindByIDOrNumberFunc: func(ctx context.Context, token string) (*domain.Order, error) {
			return nil, apperrors.NewNotFoundError("order " + token + " not found")
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	err := svc.Archive(context.Background(), staffActor, "missing")

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestListMine_ScopesToActor(t *testing.T) {
	var seen repository.ListFilter
	repo := &mockOrderRepository{
		ListFunc: func(ctx context.Context, filter repository.ListFilter) ([]*domain.Order, int, error) {
			seen = filter
			return nil, 0, nil
		},
	}
	svc := newTestService(repo, testMenu(), &mockNumberGenerator{numbers: []string{"x"}}, &mockPublisher{})

	_, _, err := svc.ListMine(context.Background(), customerActor, repository.ListFilter{Page: 1, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, "cust-1", seen.CustomerRef)
}
