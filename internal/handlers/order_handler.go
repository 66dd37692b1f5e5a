package handlers

import (
	"errors"

	"gigmart/internal/middleware"
	"gigmart/internal/models"
	"gigmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for order intake and lookup.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. All of them sit behind
// AuthRequired; the status route additionally requires the admin role.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", middleware.AdminRequired(), h.HandleAdminTransition)
}

// CreateOrderRequest is the intake request body. The buyer identity comes
// from the JWT, not from here.
type CreateOrderRequest struct {
	ListingID    string           `json:"listing_id" validate:"required"`
	Kind         models.OrderKind `json:"kind" validate:"omitempty,oneof=order prebooking"`
	Amount       int64            `json:"amount" validate:"required,gt=0"`
	Currency     string           `json:"currency" validate:"omitempty,len=3"`
	ContactName  string           `json:"contact_name" validate:"omitempty,max=100"`
	ContactEmail string           `json:"contact_email" validate:"omitempty,email"`
	Message      string           `json:"message" validate:"omitempty,max=500"`
}

// HandleCreateOrder runs order intake and returns the intake receipt.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	order, err := h.service.CreateOrder(services.IntakeRequest{
		UserID:       middleware.UserID(c),
		ListingID:    req.ListingID,
		Kind:         req.Kind,
		Amount:       req.Amount,
		Currency:     req.Currency,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Message:      req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		case errors.Is(err, models.ErrListingNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Listing not found",
			})
		case errors.Is(err, models.ErrInvalidAmount):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Amount does not match the listing price",
				"error":   err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not create order",
				"error":   err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders retrieves the caller's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersByUser(middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order. This is the poll endpoint the
// client uses after checkout: the server state here is authoritative, not
// whatever the browser last saw.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrUnknownOrder) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}

	role, _ := c.Locals("role").(string)
	if order.UserID != middleware.UserID(c) && role != models.RoleAdmin {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}

	return c.JSON(order)
}

// AdminTransitionRequest is the admin status change body.
type AdminTransitionRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=CANCELLED REFUNDED COMPLETED"`
}

// HandleAdminTransition applies an administrative transition
// (cancel/refund/complete).
func (h *OrderHandler) HandleAdminTransition(c *fiber.Ctx) error {
	var req AdminTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	order, err := h.service.AdminTransition(c.Params("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnknownOrder):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		case errors.Is(err, models.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Requested status transition is not allowed",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not update order status",
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(order)
}
