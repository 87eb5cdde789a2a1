package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

// FeaturedReviewLimit caps the home-page five-star aggregation
const FeaturedReviewLimit = 5

// ReviewStore persists reviews
type ReviewStore interface {
	Create(review *models.Review) error
	GetByID(reviewID string) (*models.Review, error)
	GetLatestFiveStar(limit int) ([]models.FeaturedReview, error)
	Delete(reviewID string) error
}

// TourStore provides the tour lookups the review flow needs
type TourStore interface {
	GetByID(tourID string) (*models.Tour, error)
}

// ReviewCache caches the featured-review aggregation
type ReviewCache interface {
	GetFeaturedReviews(ctx context.Context) ([]models.FeaturedReview, error)
	SetFeaturedReviews(ctx context.Context, reviews []models.FeaturedReview) error
	InvalidateFeaturedReviews(ctx context.Context) error
}

// ReviewService handles tour reviews and the featured-review aggregation
type ReviewService struct {
	reviews ReviewStore
	tours   TourStore
	cache   ReviewCache
	logger  *logrus.Logger
}

// NewReviewService creates a new review service
func NewReviewService(reviews ReviewStore, tours TourStore, cache ReviewCache, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		tours:   tours,
		cache:   cache,
		logger:  logger,
	}
}

// CreateReview posts a review on a tour. The tour must exist.
func (s *ReviewService) CreateReview(ctx context.Context, tourID string, req *models.CreateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.tours.GetByID(tourID); err != nil {
		return nil, err
	}

	review := &models.Review{
		TourID:     tourID,
		Username:   req.Username,
		ReviewText: req.ReviewText,
		Rating:     req.Rating,
	}

	if err := s.reviews.Create(review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.invalidateCache(ctx)

	s.logger.WithFields(logrus.Fields{
		"review_id": review.ID,
		"tour_id":   tourID,
		"rating":    review.Rating,
	}).Info("Review created")

	return review, nil
}

// DeleteReview removes a review
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string) error {
	if err := s.reviews.Delete(reviewID); err != nil {
		return err
	}

	s.invalidateCache(ctx)

	s.logger.WithField("review_id", reviewID).Info("Review deleted")
	return nil
}

// LatestFiveStar returns the newest five-star reviews joined with their tour
// titles, served from cache when warm. Cache trouble falls back to the store.
func (s *ReviewService) LatestFiveStar(ctx context.Context) ([]models.FeaturedReview, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFeaturedReviews(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Review cache read failed, falling back to store")
		} else if cached != nil {
			return cached, nil
		}
	}

	reviews, err := s.reviews.GetLatestFiveStar(FeaturedReviewLimit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetFeaturedReviews(ctx, reviews); err != nil {
			s.logger.WithError(err).Warn("Review cache write failed")
		}
	}

	return reviews, nil
}

func (s *ReviewService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFeaturedReviews(ctx); err != nil {
		s.logger.WithError(err).Warn("Review cache invalidation failed")
	}
}
