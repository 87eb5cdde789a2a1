package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// date is a DATE column; the model carries it as a YYYY-MM-DD string
const bookingColumns = `id, transaction_id, user_id, full_name, phone, tour_name,
	   total_price, max_group_size, baby_count,
	   to_char(date, 'YYYY-MM-DD') AS date,
	   status, created_at, updated_at`

// Create inserts a new booking. The database enforces transaction_id
// uniqueness; a duplicate surfaces as the driver's constraint error.
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, transaction_id, user_id, full_name, phone, tour_name,
			total_price, max_group_size, baby_count, date, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		booking.ID, booking.TransactionID, booking.UserID, booking.FullName,
		booking.Phone, booking.TourName, booking.TotalPrice, booking.MaxGroupSize,
		booking.BabyCount, booking.Date, booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	return err
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking := &models.Booking{}
	if err := r.db.Get(booking, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

// GetByTransactionID retrieves a booking by its transaction identifier
func (r *BookingRepository) GetByTransactionID(transactionID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE transaction_id = $1`

	booking := &models.Booking{}
	if err := r.db.Get(booking, query, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

// GetByUserID retrieves all bookings for a user, newest first
func (r *BookingRepository) GetByUserID(userID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, userID); err != nil {
		return nil, err
	}

	return bookings, nil
}

// GetAll retrieves all bookings, newest first
func (r *BookingRepository) GetAll() ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query); err != nil {
		return nil, err
	}

	return bookings, nil
}

// UpdateStatusIfPending transitions a booking out of pending in a single
// compare-and-set statement. It reports whether the transition took effect:
// false with a nil error means the booking was already in a terminal state
// (or does not exist), which callers treat as a no-op.
func (r *BookingRepository) UpdateStatusIfPending(transactionID string, status models.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE transaction_id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, transactionID, status)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// Delete removes a booking by ID
func (r *BookingRepository) Delete(bookingID string) error {
	query := `DELETE FROM bookings WHERE id = $1`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return models.ErrBookingNotFound
	}

	return nil
}
