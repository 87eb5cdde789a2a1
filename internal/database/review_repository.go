package database

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

// ReviewRepository handles database operations for the reviews table
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review
func (r *ReviewRepository) Create(review *models.Review) error {
	query := `
		INSERT INTO reviews (id, tour_id, username, review_text, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	if review.ID == "" {
		review.ID = uuid.New().String()
	}

	return r.db.QueryRow(
		query,
		review.ID, review.TourID, review.Username, review.ReviewText, review.Rating,
	).Scan(&review.CreatedAt)
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(reviewID string) (*models.Review, error) {
	query := `
		SELECT id, tour_id, username, review_text, rating, created_at
		FROM reviews
		WHERE id = $1
	`

	review := &models.Review{}
	if err := r.db.Get(review, query, reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrReviewNotFound
		}
		return nil, err
	}

	return review, nil
}

// GetLatestFiveStar retrieves the newest reviews with a rating of exactly 5,
// joined with the tour title, capped at limit.
func (r *ReviewRepository) GetLatestFiveStar(limit int) ([]models.FeaturedReview, error) {
	query := `
		SELECT r.id, r.tour_id, t.title AS tour_title,
			   r.username, r.review_text, r.rating, r.created_at
		FROM reviews r
		JOIN tours t ON t.id = r.tour_id
		WHERE r.rating = 5
		ORDER BY r.created_at DESC
		LIMIT $1
	`

	reviews := []models.FeaturedReview{}
	if err := r.db.Select(&reviews, query, limit); err != nil {
		return nil, err
	}

	return reviews, nil
}

// Delete removes a review by ID
func (r *ReviewRepository) Delete(reviewID string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	result, err := r.db.Exec(query, reviewID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return models.ErrReviewNotFound
	}

	return nil
}
