package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

func TestCreateReview(t *testing.T) {
	testDB, mock := newTestDB(t)
	repo := NewReviewRepository(testDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		review := &models.Review{
			TourID:     "tour-1",
			Username:   "traveller42",
			ReviewText: "Beautiful place, well organised",
			Rating:     5,
		}

		mock.ExpectQuery(`INSERT INTO reviews`).
			WithArgs(sqlmock.AnyArg(), review.TourID, review.Username, review.ReviewText, review.Rating).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

		err := repo.Create(review)
		require.NoError(t, err)
		assert.NotEmpty(t, review.ID)
		assert.Equal(t, now, review.CreatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		review := &models.Review{TourID: "tour-1", Username: "x", ReviewText: "y", Rating: 4}

		mock.ExpectQuery(`INSERT INTO reviews`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(review)
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetLatestFiveStar(t *testing.T) {
	testDB, mock := newTestDB(t)
	repo := NewReviewRepository(testDB)

	t.Run("Joins Tour Title", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM reviews r\s+JOIN tours t`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "tour_id", "tour_title", "username", "review_text", "rating", "created_at",
			}).AddRow(
				uuid.New().String(), "tour-1", "Sundarbans Adventure",
				"traveller42", "Beautiful place", 5.0, now,
			))

		reviews, err := repo.GetLatestFiveStar(5)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, "Sundarbans Adventure", reviews[0].TourTitle)
		assert.Equal(t, 5.0, reviews[0].Rating)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Result", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM reviews r\s+JOIN tours t`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "tour_id", "tour_title", "username", "review_text", "rating", "created_at",
			}))

		reviews, err := repo.GetLatestFiveStar(5)
		require.NoError(t, err)
		assert.Empty(t, reviews)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteReview(t *testing.T) {
	testDB, mock := newTestDB(t)
	repo := NewReviewRepository(testDB)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM reviews`).
			WithArgs("review-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete("review-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM reviews`).
			WithArgs("review-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete("review-missing"), models.ErrReviewNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTourByID(t *testing.T) {
	testDB, mock := newTestDB(t)
	repo := NewTourRepository(testDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM tours WHERE id`).
			WithArgs("tour-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "city", "price", "created_at"}).
				AddRow("tour-1", "Sundarbans Adventure", "Khulna", 4500.0, now))

		tour, err := repo.GetByID("tour-1")
		require.NoError(t, err)
		assert.Equal(t, "Sundarbans Adventure", tour.Title)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM tours WHERE id`).
			WithArgs("tour-missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "city", "price", "created_at"}))

		tour, err := repo.GetByID("tour-missing")
		assert.Nil(t, tour)
		assert.ErrorIs(t, err, models.ErrTourNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
