package models

import "time"

// Tour is the minimal tour projection the booking and review flows need.
// Full tour management lives elsewhere; bookings reference tours by name and
// reviews by id.
type Tour struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	City      string    `json:"city" db:"city"`
	Price     float64   `json:"price" db:"price"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
