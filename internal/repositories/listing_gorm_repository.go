package repositories

import (
	"errors"
	"fmt"

	"gigmart/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMListingRepository is a GORM implementation of ListingRepository.
type GORMListingRepository struct {
	db *gorm.DB
}

// NewGORMListingRepository creates a new instance of GORMListingRepository.
func NewGORMListingRepository(db *gorm.DB) *GORMListingRepository {
	return &GORMListingRepository{
		db: db,
	}
}

// GetAll retrieves all active listings.
func (r *GORMListingRepository) GetAll() ([]models.Listing, error) {
	var listings []models.Listing
	if err := r.db.Where("active = ?", true).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to get all listings: %w", err)
	}
	return listings, nil
}

// GetByID retrieves a single listing by its ID.
func (r *GORMListingRepository) GetByID(id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing by ID %s: %w", id, err)
	}
	return &listing, nil
}

// Create creates a new listing.
func (r *GORMListingRepository) Create(listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	if err := r.db.Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// Update updates an existing listing.
func (r *GORMListingRepository) Update(listing *models.Listing) error {
	res := r.db.Save(listing)
	if res.Error != nil {
		return fmt.Errorf("failed to update listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrListingNotFound
	}
	return nil
}

// Delete deletes a listing by its ID.
func (r *GORMListingRepository) Delete(id string) error {
	res := r.db.Delete(&models.Listing{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrListingNotFound
	}
	return nil
}
