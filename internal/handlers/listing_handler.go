package handlers

import (
	"errors"

	"gigmart/internal/middleware"
	"gigmart/internal/models"
	"gigmart/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ListingHandler handles HTTP requests for the listing catalog. Reads are
// public; writes require authentication.
type ListingHandler struct {
	repo     repositories.ListingRepository
	validate *validator.Validate
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(repo repositories.ListingRepository) *ListingHandler {
	return &ListingHandler{
		repo:     repo,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the read-only catalog routes.
func (h *ListingHandler) RegisterPublicRoutes(router fiber.Router) {
	listingRoutes := router.Group("/listings")
	listingRoutes.Get("/", h.HandleGetListings)
	listingRoutes.Get("/:id", h.HandleGetListingByID)
}

// RegisterProtectedRoutes registers the seller-facing catalog routes.
func (h *ListingHandler) RegisterProtectedRoutes(router fiber.Router) {
	listingRoutes := router.Group("/listings")
	listingRoutes.Post("/", h.HandleCreateListing)
	listingRoutes.Put("/:id", h.HandleUpdateListing)
	listingRoutes.Delete("/:id", h.HandleDeleteListing)
}

// HandleGetListings retrieves all active listings.
func (h *ListingHandler) HandleGetListings(c *fiber.Ctx) error {
	listings, err := h.repo.GetAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve listings",
			"error":   err.Error(),
		})
	}
	return c.JSON(listings)
}

// HandleGetListingByID retrieves a single listing by its ID.
func (h *ListingHandler) HandleGetListingByID(c *fiber.Ctx) error {
	listing, err := h.repo.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrListingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Listing not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve listing",
			"error":   err.Error(),
		})
	}
	return c.JSON(listing)
}

// HandleCreateListing creates a new listing owned by the caller.
func (h *ListingHandler) HandleCreateListing(c *fiber.Ctx) error {
	var listing models.Listing
	if err := c.BodyParser(&listing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	// Owner comes from the session, never from the body.
	listing.SellerID = middleware.UserID(c)
	listing.Active = true
	if listing.Currency == "" {
		listing.Currency = "INR"
	}

	if err := h.validate.Struct(listing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	if err := h.repo.Create(&listing); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create listing",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// loadOwnedListing fetches a listing and checks the caller is its seller.
func (h *ListingHandler) loadOwnedListing(c *fiber.Ctx) (*models.Listing, error) {
	listing, err := h.repo.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrListingNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Listing not found",
			})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve listing",
			"error":   err.Error(),
		})
	}
	if listing.SellerID != middleware.UserID(c) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Only the seller may modify this listing",
		})
	}
	return listing, nil
}

// HandleUpdateListing updates a listing the caller owns. Identity fields are
// never taken from the body.
func (h *ListingHandler) HandleUpdateListing(c *fiber.Ctx) error {
	listing, done := h.loadOwnedListing(c)
	if listing == nil {
		return done
	}

	var req models.Listing
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	listing.Title = req.Title
	listing.Description = req.Description
	listing.Price = req.Price
	listing.RequiresFulfillment = req.RequiresFulfillment
	listing.Active = req.Active
	if req.Currency != "" {
		listing.Currency = req.Currency
	}

	if err := h.validate.Struct(listing); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	if err := h.repo.Update(listing); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update listing",
			"error":   err.Error(),
		})
	}

	return c.JSON(listing)
}

// HandleDeleteListing removes a listing the caller owns. Existing orders keep
// their listing id; settled rows are the audit trail and are never touched.
func (h *ListingHandler) HandleDeleteListing(c *fiber.Ctx) error {
	listing, done := h.loadOwnedListing(c)
	if listing == nil {
		return done
	}

	if err := h.repo.Delete(listing.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete listing",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Listing deleted successfully",
	})
}
