package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus represents the payment lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsTerminal reports whether the status is an outcome state. Once a booking
// reaches a terminal state no further transition is permitted for its
// transaction identifier.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusFailed || s == BookingStatusCancelled
}

// UnknownUser is the sentinel stored when a booking is made without a signed-in user.
const UnknownUser = "Unknown User"

// DateLayout is the calendar-date format used for booking dates.
const DateLayout = "2006-01-02"

// Booking represents a tour booking attempt and its payment lifecycle state.
// TransactionID correlates asynchronous gateway callbacks back to the booking;
// it, TourName and TotalPrice are immutable after creation.
type Booking struct {
	ID            string        `json:"id" db:"id"`
	TransactionID string        `json:"transactionId" db:"transaction_id"`
	UserID        string        `json:"userId" db:"user_id"`
	FullName      string        `json:"fullName" db:"full_name"`
	Phone         string        `json:"phone" db:"phone"`
	TourName      string        `json:"tourName" db:"tour_name"`
	TotalPrice    float64       `json:"totalPrice" db:"total_price"`
	MaxGroupSize  int           `json:"maxGroupSize" db:"max_group_size"`
	BabyCount     int           `json:"babyCount" db:"baby_count"`
	Date          string        `json:"date" db:"date"`
	Status        BookingStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`
}

// InitiateBookingRequest is the request to start the booking/payment flow
type InitiateBookingRequest struct {
	UserID       string  `json:"userId"`
	FullName     string  `json:"fullName"`
	Phone        string  `json:"phone"`
	TourName     string  `json:"tourName"`
	TotalPrice   float64 `json:"totalPrice"`
	MaxGroupSize int     `json:"maxGroupSize"`
	BabyCount    int     `json:"babyCount"`
	Date         string  `json:"date"`
}

// Validate validates the initiate booking request
func (r *InitiateBookingRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return &ValidationError{Field: "fullName", Message: "full name is required"}
	}
	if strings.TrimSpace(r.Phone) == "" {
		return &ValidationError{Field: "phone", Message: "phone is required"}
	}
	if strings.TrimSpace(r.TourName) == "" {
		return &ValidationError{Field: "tourName", Message: "tour name is required"}
	}
	if r.TotalPrice < 0 {
		return &ValidationError{Field: "totalPrice", Message: "total price must not be negative"}
	}
	if r.MaxGroupSize < 0 {
		return &ValidationError{Field: "maxGroupSize", Message: "max group size must not be negative"}
	}
	if r.BabyCount < 0 {
		return &ValidationError{Field: "babyCount", Message: "baby count must not be negative"}
	}
	if r.Date != "" {
		if _, err := time.Parse(DateLayout, r.Date); err != nil {
			return &ValidationError{Field: "date", Message: "date must be formatted as YYYY-MM-DD"}
		}
	}
	return nil
}

// ApplyDefaults fills optional fields the way the booking flow expects them:
// unknown-user sentinel, group size of 1, zero babies, today's date.
func (r *InitiateBookingRequest) ApplyDefaults(now time.Time) {
	if strings.TrimSpace(r.UserID) == "" {
		r.UserID = UnknownUser
	}
	if r.MaxGroupSize == 0 {
		r.MaxGroupSize = 1
	}
	if r.Date == "" {
		r.Date = now.Format(DateLayout)
	}
}

// CancellationWindow is the default window around the booking date in which a
// confirmed booking may still be deleted by the user.
const CancellationWindow = 48 * time.Hour

// CanBeDeleted checks the user-initiated cancellation policy: only confirmed
// bookings, and only within the given window around the booking date.
func (b *Booking) CanBeDeleted(now time.Time, window time.Duration) error {
	if b.Status != BookingStatusConfirmed {
		return &ValidationError{Field: "status", Message: "only confirmed bookings can be cancelled"}
	}
	date, err := time.Parse(DateLayout, b.Date)
	if err != nil {
		return &ValidationError{Field: "date", Message: "booking has an invalid date"}
	}
	diff := now.Sub(date)
	if diff < 0 {
		diff = -diff
	}
	if diff > window {
		return &ValidationError{
			Field:   "date",
			Message: fmt.Sprintf("cancellation is only permitted within %d hours of the booking date", int(window.Hours())),
		}
	}
	return nil
}

// InitiateBookingResponse is returned after a successful payment initiation
type InitiateBookingResponse struct {
	Status     string `json:"status"`
	PaymentURL string `json:"paymentUrl"`
}

// Invoice is a read-only projection of a booking keyed by transaction identifier
type Invoice struct {
	TransactionID string  `json:"transactionId"`
	FullName      string  `json:"fullName"`
	TourName      string  `json:"tourName"`
	TotalPrice    float64 `json:"totalPrice"`
	Date          string  `json:"date"`
	PaymentStatus string  `json:"paymentStatus"`
}

// InvoiceFromBooking builds the invoice projection of a booking
func InvoiceFromBooking(b *Booking) *Invoice {
	return &Invoice{
		TransactionID: b.TransactionID,
		FullName:      b.FullName,
		TourName:      b.TourName,
		TotalPrice:    b.TotalPrice,
		Date:          b.Date,
		PaymentStatus: string(b.Status),
	}
}
