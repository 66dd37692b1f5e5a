package repositories

import (
	"sync"

	"gigmart/internal/models"

	"github.com/google/uuid"
)

// MockListingRepository is an in-memory implementation of ListingRepository.
type MockListingRepository struct {
	listings map[string]models.Listing
	mu       sync.RWMutex
}

// NewMockListingRepository creates a new instance of MockListingRepository.
func NewMockListingRepository() *MockListingRepository {
	return &MockListingRepository{
		listings: make(map[string]models.Listing),
	}
}

// GetAll returns all listings.
func (r *MockListingRepository) GetAll() ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listingList := make([]models.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		listingList = append(listingList, l)
	}
	return listingList, nil
}

// GetByID returns a listing by its ID.
func (r *MockListingRepository) GetByID(id string) (*models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, models.ErrListingNotFound
	}
	return &listing, nil
}

// Create adds a new listing.
func (r *MockListingRepository) Create(listing *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	listing.Active = true
	r.listings[listing.ID] = *listing
	return nil
}

// Update replaces an existing listing.
func (r *MockListingRepository) Update(listing *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listing.ID]; !ok {
		return models.ErrListingNotFound
	}
	r.listings[listing.ID] = *listing
	return nil
}

// Delete removes a listing.
func (r *MockListingRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return models.ErrListingNotFound
	}
	delete(r.listings, id)
	return nil
}
