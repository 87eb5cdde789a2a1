package database

import (
	"database/sql"
	"errors"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

// TourRepository provides the tour lookups the review flow needs.
// Tour management itself lives in a separate service.
type TourRepository struct {
	db DB
}

// NewTourRepository creates a new TourRepository
func NewTourRepository(db DB) *TourRepository {
	return &TourRepository{db: db}
}

// GetByID retrieves a tour by ID
func (r *TourRepository) GetByID(tourID string) (*models.Tour, error) {
	query := `
		SELECT id, title, city, price, created_at
		FROM tours
		WHERE id = $1
	`

	tour := &models.Tour{}
	if err := r.db.Get(tour, query, tourID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTourNotFound
		}
		return nil, err
	}

	return tour, nil
}
