package models

import (
	"errors"
	"fmt"
)

// Not-found sentinels, mapped to 404 by the handlers
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrTourNotFound    = errors.New("tour not found")
	ErrReviewNotFound  = errors.New("review not found")
)

// ValidationError reports missing or invalid request input. It is rejected
// before any persistence or external call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// GatewayError reports a payment provider failure or timeout. Initiation
// failures leave the pending booking in place; validation failures force the
// booking to failed.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
