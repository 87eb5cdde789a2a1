package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/services"
)

// ReviewHandler handles tour review endpoints
type ReviewHandler struct {
	service *services.ReviewService
	logger  *logrus.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(service *services.ReviewService, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger,
	}
}

// Create posts a review on a tour
// @Summary Create a review
// @Tags Review
// @Accept json
// @Produce json
// @Param tourId path string true "Tour ID"
// @Param request body models.CreateReviewRequest true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 404 {object} map[string]interface{} "Tour not found"
// @Router /review/{tourId} [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request: " + err.Error()})
		return
	}

	review, err := h.service.CreateReview(c.Request.Context(), c.Param("tourId"), &req)
	if err != nil {
		if errors.Is(err, models.ErrTourNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
			return
		}

		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": validationErr.Error()})
			return
		}

		h.logger.WithError(err).Error("Failed to create review")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to create review"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": review})
}

// LatestFiveStar returns the newest five-star reviews for the home page
func (h *ReviewHandler) LatestFiveStar(c *gin.Context) {
	reviews, err := h.service.LatestFiveStar(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get featured reviews")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to get reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": reviews})
}

// Delete removes a review
func (h *ReviewHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteReview(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, models.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to delete review")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to delete review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "review deleted"})
}
