package models

import (
	"strings"
	"time"
)

// Review is a user review of a tour
type Review struct {
	ID         string    `json:"id" db:"id"`
	TourID     string    `json:"tourId" db:"tour_id"`
	Username   string    `json:"username" db:"username"`
	ReviewText string    `json:"reviewText" db:"review_text"`
	Rating     float64   `json:"rating" db:"rating"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// CreateReviewRequest is the request to post a review on a tour
type CreateReviewRequest struct {
	Username   string  `json:"username"`
	ReviewText string  `json:"reviewText"`
	Rating     float64 `json:"rating"`
}

// Validate validates the create review request
func (r *CreateReviewRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	if strings.TrimSpace(r.ReviewText) == "" {
		return &ValidationError{Field: "reviewText", Message: "review text is required"}
	}
	if r.Rating < 0 || r.Rating > 5 {
		return &ValidationError{Field: "rating", Message: "rating must be between 0 and 5"}
	}
	return nil
}

// FeaturedReview is a five-star review joined with its tour title, used by
// the latest-five-star aggregation on the home page.
type FeaturedReview struct {
	ID         string    `json:"id" db:"id"`
	TourID     string    `json:"tourId" db:"tour_id"`
	TourTitle  string    `json:"tourTitle" db:"tour_title"`
	Username   string    `json:"username" db:"username"`
	ReviewText string    `json:"reviewText" db:"review_text"`
	Rating     float64   `json:"rating" db:"rating"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
