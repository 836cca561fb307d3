package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/workhive/workhive-server/internal/domain/query"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

// fakeOrderRepo is an in-memory OrderRepository enforcing the status
// precondition the way the SQL repository does.
type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*Order

	// beforeUpdate runs at the start of UpdateStatus, simulating a
	// concurrent writer slipping in between read and write.
	beforeUpdate func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byID: make(map[uint]*Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	clone := *order
	r.byID[order.ID] = &clone
	return nil
}

func (r *fakeOrderRepo) FindByPublicID(ctx context.Context, publicID string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.byID {
		if order.PublicID == publicID {
			clone := *order
			return &clone, nil
		}
	}
	return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "order not found")
}

func (r *fakeOrderRepo) FindByFilter(ctx context.Context, filter OrderFilter, pagination *query.Pagination) ([]*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Order
	for _, order := range r.byID {
		if filter.Participant != nil && order.BuyerID != *filter.Participant && order.SellerID != *filter.Participant {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.GigID != nil && order.GigID != *filter.GigID {
			continue
		}
		clone := *order
		result = append(result, &clone)
	}
	return result, nil
}

func (r *fakeOrderRepo) Count(ctx context.Context, filter OrderFilter) (int64, error) {
	orders, err := r.FindByFilter(ctx, filter, nil)
	return int64(len(orders)), err
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uint, expected, next Status, statusMessage *string) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.byID[id]
	if !ok {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "order not found")
	}
	if order.Status != expected {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "order status changed concurrently", nil, "test")
	}
	order.Status = next
	order.StatusMessage = statusMessage
	order.UpdatedAt = time.Now()
	return nil
}

func newTestOrder(t *testing.T, svc *OrderService) *Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID:  "buyer1",
		SellerID: "seller1",
		GigID:    "gig42",
		GigPrice: decimal.NewFromFloat(49.99),
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrder(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo())
	order := newTestOrder(t, svc)

	assert.Equal(t, StatusPending, order.Status)
	assert.True(t, order.GigPrice.Equal(decimal.NewFromFloat(49.99)))
	assert.NotEmpty(t, order.PublicID)
	assert.Nil(t, order.StatusMessage)
	assert.Equal(t, "buyer1_seller1", order.ConversationID())
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo())
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateOrderInput
	}{
		{name: "missing buyer", input: CreateOrderInput{SellerID: "s", GigID: "g", GigPrice: decimal.NewFromInt(1)}},
		{name: "buyer equals seller", input: CreateOrderInput{BuyerID: "u", SellerID: "u", GigID: "g", GigPrice: decimal.NewFromInt(1)}},
		{name: "missing gig", input: CreateOrderInput{BuyerID: "b", SellerID: "s", GigPrice: decimal.NewFromInt(1)}},
		{name: "zero price", input: CreateOrderInput{BuyerID: "b", SellerID: "s", GigID: "g", GigPrice: decimal.Zero}},
		{name: "negative price", input: CreateOrderInput{BuyerID: "b", SellerID: "s", GigID: "g", GigPrice: decimal.NewFromInt(-5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
		})
	}
}

func TestTransitionHappyPath(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo())
	ctx := context.Background()
	order := newTestOrder(t, svc)

	order, err := svc.Transition(ctx, "seller1", order.PublicID, ActionAccept, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, order.Status)

	order, err = svc.Transition(ctx, "seller1", order.PublicID, ActionDeliver, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, order.Status)

	order, err = svc.Transition(ctx, "buyer1", order.PublicID, ActionAccept, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, order.Status)
}

func TestTransitionCancelRequiresReason(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo())
	ctx := context.Background()
	order := newTestOrder(t, svc)

	_, err := svc.Transition(ctx, "seller1", order.PublicID, ActionCancel, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))

	blank := "   "
	_, err = svc.Transition(ctx, "seller1", order.PublicID, ActionCancel, &blank)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))

	reason := "out of capacity"
	order, err = svc.Transition(ctx, "seller1", order.PublicID, ActionCancel, &reason)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, order.Status)
	require.NotNil(t, order.StatusMessage)
	assert.Equal(t, "out of capacity", *order.StatusMessage)

	// cancelled is terminal
	_, err = svc.Transition(ctx, "seller1", order.PublicID, ActionAccept, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
}

func TestTransitionRevisionCycle(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo())
	ctx := context.Background()
	order := newTestOrder(t, svc)

	_, err := svc.Transition(ctx, "seller1", order.PublicID, ActionAccept, nil)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, "seller1", order.PublicID, ActionDeliver, nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		reason := "missing the logo"
		order, err = svc.Transition(ctx, "buyer1", order.PublicID, ActionRequestRevision, &reason)
		require.NoError(t, err)
		assert.Equal(t, StatusRevision, order.Status)

		order, err = svc.Transition(ctx, "seller1", order.PublicID, ActionDeliver, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusDelivered, order.Status)
	}
}

func TestTransitionRoleEnforcement(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo())
	ctx := context.Background()
	order := newTestOrder(t, svc)

	// A buyer cannot accept a pending order.
	_, err := svc.Transition(ctx, "buyer1", order.PublicID, ActionAccept, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))

	// An outsider sees nothing.
	_, err = svc.Transition(ctx, "stranger", order.PublicID, ActionAccept, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeNotFound))
}

func TestTransitionConflictOnConcurrentChange(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()
	order := newTestOrder(t, svc)

	// Another writer moves the order between our read and write.
	repo.beforeUpdate = func() {
		repo.beforeUpdate = nil
		repo.mu.Lock()
		repo.byID[order.ID].Status = StatusCancelled
		repo.mu.Unlock()
	}

	_, err := svc.Transition(ctx, "seller1", order.PublicID, ActionAccept, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeConflict))
}

func TestListOrders(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo())
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderInput{BuyerID: "buyer1", SellerID: "seller1", GigID: "g1", GigPrice: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, CreateOrderInput{BuyerID: "buyer1", SellerID: "seller2", GigID: "g2", GigPrice: decimal.NewFromInt(20)})
	require.NoError(t, err)

	orders, total, err := svc.ListOrders(ctx, "buyer1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	orders, total, err = svc.ListOrders(ctx, "seller2", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, orders, 1)

	pending := StatusPending
	_, total, err = svc.ListOrders(ctx, "buyer1", &pending, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	unknown := Status("shipped")
	_, _, err = svc.ListOrders(ctx, "buyer1", &unknown, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
}
