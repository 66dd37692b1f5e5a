package services_test

import (
	"testing"

	"gigmart/internal/models"
	"gigmart/internal/repositories"
	"gigmart/internal/services"
	"gigmart/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, event events.OrderEvent) error {
	args := m.Called(routingKey, event)
	return args.Error(0)
}

func seedListing(t *testing.T, repo repositories.ListingRepository, price int64, requiresFulfillment bool) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		SellerID:            "seller-1",
		Title:               "Landing page design",
		Price:               price,
		Currency:            "INR",
		RequiresFulfillment: requiresFulfillment,
		Active:              true,
	}
	assert.NoError(t, repo.Create(listing))
	return listing
}

func newOrderService(orderRepo repositories.OrderRepository, listingRepo repositories.ListingRepository, publisher events.Publisher, tolerance int64) *services.OrderService {
	return services.NewOrderService(orderRepo, listingRepo, publisher, zap.NewNop(), tolerance)
}

func TestOrderService_CreateOrder(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	publisher := new(MockPublisher)
	publisher.On("Publish", events.RoutingOrderCreated, mock.AnythingOfType("events.OrderEvent")).Return(nil).Once()

	listing := seedListing(t, listingRepo, 10000, true) // ₹100.00 in paise
	service := newOrderService(orderRepo, listingRepo, publisher, 0)

	order, err := service.CreateOrder(services.IntakeRequest{
		UserID:       "buyer-1",
		ListingID:    listing.ID,
		Amount:       10000,
		Currency:     "INR",
		ContactName:  "Asha",
		ContactEmail: "asha@example.com",
		Message:      "need this by friday",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.KindOrder, order.Kind)
	assert.Equal(t, int64(10000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	// No gateway identifiers until the bridge runs.
	assert.Empty(t, order.GatewayOrderID)
	assert.Empty(t, order.GatewayPaymentID)

	// Exactly one order was persisted.
	orders, err := orderRepo.GetAllByUser("buyer-1")
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	publisher.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Unauthenticated(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	listing := seedListing(t, listingRepo, 10000, true)
	service := newOrderService(orderRepo, listingRepo, nil, 0)

	_, err := service.CreateOrder(services.IntakeRequest{
		UserID:    "",
		ListingID: listing.ID,
		Amount:    10000,
	})
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestOrderService_CreateOrder_AmountMismatch(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	listing := seedListing(t, listingRepo, 10000, true)
	service := newOrderService(orderRepo, listingRepo, nil, 0)

	// A tampered client claims a lower amount than the listing price.
	_, err := service.CreateOrder(services.IntakeRequest{
		UserID:    "buyer-1",
		ListingID: listing.ID,
		Amount:    100,
	})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	// Nothing was persisted.
	orders, _ := orderRepo.GetAllByUser("buyer-1")
	assert.Empty(t, orders)
}

func TestOrderService_CreateOrder_WithinTolerance(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	listing := seedListing(t, listingRepo, 10000, true)
	service := newOrderService(orderRepo, listingRepo, nil, 50)

	order, err := service.CreateOrder(services.IntakeRequest{
		UserID:    "buyer-1",
		ListingID: listing.ID,
		Amount:    10049,
	})
	assert.NoError(t, err)
	// The persisted amount is the canonical listing price, not the claim.
	assert.Equal(t, int64(10000), order.Amount)
}

func TestOrderService_CreateOrder_CurrencyMismatch(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	listing := seedListing(t, listingRepo, 10000, true)
	service := newOrderService(orderRepo, listingRepo, nil, 0)

	_, err := service.CreateOrder(services.IntakeRequest{
		UserID:    "buyer-1",
		ListingID: listing.ID,
		Amount:    10000,
		Currency:  "USD",
	})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestOrderService_CreateOrder_UnknownListing(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	service := newOrderService(orderRepo, listingRepo, nil, 0)

	_, err := service.CreateOrder(services.IntakeRequest{
		UserID:    "buyer-1",
		ListingID: "no-such-listing",
		Amount:    10000,
	})
	assert.ErrorIs(t, err, models.ErrListingNotFound)
}

func TestOrderService_CreateOrder_Prebooking(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	listing := seedListing(t, listingRepo, 5000, true)
	service := newOrderService(orderRepo, listingRepo, nil, 0)

	order, err := service.CreateOrder(services.IntakeRequest{
		UserID:    "buyer-1",
		ListingID: listing.ID,
		Kind:      models.KindPrebooking,
		Amount:    5000,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.KindPrebooking, order.Kind)
	assert.Equal(t, models.StatusPending, order.Status)
}

func TestOrderService_AdminTransition(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	service := newOrderService(orderRepo, listingRepo, nil, 0)

	order := &models.Order{
		UserID:    "buyer-1",
		ListingID: "listing-1",
		Amount:    10000,
		Currency:  "INR",
		Status:    models.StatusPending,
	}
	assert.NoError(t, orderRepo.Create(order))

	// PENDING -> CANCELLED is an admin edge.
	updated, err := service.AdminTransition(order.ID, models.StatusCancelled)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)

	// A cancelled order cannot be refunded.
	_, err = service.AdminTransition(order.ID, models.StatusRefunded)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestOrderService_AdminTransition_RefundRequiresPaid(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	service := newOrderService(orderRepo, listingRepo, nil, 0)

	order := &models.Order{
		UserID:    "buyer-1",
		ListingID: "listing-1",
		Amount:    10000,
		Currency:  "INR",
		Status:    models.StatusPending,
	}
	assert.NoError(t, orderRepo.Create(order))

	// PENDING -> REFUNDED is not an edge of the graph.
	_, err := service.AdminTransition(order.ID, models.StatusRefunded)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	// Settle it to PAID, then refund works.
	won, err := orderRepo.Transition(order.ID, models.StatusPending, models.StatusPaid, repositories.SettlementUpdate{GatewayPaymentID: "pay_1"})
	assert.NoError(t, err)
	assert.True(t, won)

	updated, err := service.AdminTransition(order.ID, models.StatusRefunded)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusRefunded, updated.Status)
}

func TestOrderService_AdminTransition_RejectsNonAdminTargets(t *testing.T) {
	orderRepo := repositories.NewMockOrderRepository()
	listingRepo := repositories.NewMockListingRepository()
	service := newOrderService(orderRepo, listingRepo, nil, 0)

	order := &models.Order{
		UserID:    "buyer-1",
		ListingID: "listing-1",
		Amount:    10000,
		Currency:  "INR",
		Status:    models.StatusPending,
	}
	assert.NoError(t, orderRepo.Create(order))

	// PAID and FAILED belong to settlement, not operators.
	_, err := service.AdminTransition(order.ID, models.StatusPaid)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	_, err = service.AdminTransition(order.ID, models.StatusFailed)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	current, _ := orderRepo.GetByID(order.ID)
	assert.Equal(t, models.StatusPending, current.Status)
}
