package handlers

import (
	"errors"

	"gigmart/internal/middleware"
	"gigmart/internal/models"
	"gigmart/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PaymentHandler handles the checkout bridge and the gateway webhook.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterProtectedRoutes registers the buyer-facing checkout route.
func (h *PaymentHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/orders/:id/checkout", h.HandleCheckout)
}

// RegisterWebhookRoutes registers the gateway callback route. It is public:
// authentication is the callback signature, not a session.
func (h *PaymentHandler) RegisterWebhookRoutes(router fiber.Router) {
	router.Post("/payments/webhook", h.HandleWebhook)
}

// HandleCheckout bridges a PENDING order to the gateway and returns the
// checkout configuration the client widget needs. Gateway unavailability is
// 503 with retryable=true; the order stays PENDING.
func (h *PaymentHandler) HandleCheckout(c *fiber.Ctx) error {
	config, err := h.service.Checkout(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnknownOrder):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order not found",
			})
		case errors.Is(err, models.ErrInvalidTransition):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Order is not awaiting payment",
			})
		case errors.Is(err, models.ErrGatewayUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"message":   "Payment gateway is unavailable, please try again",
				"retryable": true,
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not start checkout",
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(config)
}

// HandleWebhook processes a settlement callback. It answers 200 for every
// processed callback, including rejected ones, so the gateway does not build
// a retry storm; the distinct outcome is logged and counted internally and
// echoed in the body for debugging.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload services.CallbackPayload
	if err := c.BodyParser(&payload); err != nil {
		// Unparseable bodies are the one case that gets a 400: the gateway
		// is talking a different protocol and retrying cannot help.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Cannot parse callback payload",
		})
	}
	if err := h.validate.Struct(payload); err != nil {
		h.logger.Warn("malformed settlement callback",
			zap.String("gateway_order_id", payload.GatewayOrderID),
			zap.Error(err))
		return c.JSON(fiber.Map{"outcome": services.OutcomeError})
	}

	result, err := h.service.Settle(payload)
	if err != nil && result == nil {
		// Internal failure (storage error). Still 200 toward the gateway;
		// reconciliation will settle the order from gateway truth later.
		h.logger.Error("settlement processing failed",
			zap.String("gateway_order_id", payload.GatewayOrderID),
			zap.Error(err))
		return c.JSON(fiber.Map{"outcome": services.OutcomeError})
	}

	return c.JSON(result)
}
