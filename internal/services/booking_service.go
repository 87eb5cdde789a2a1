package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

// BookingStore persists bookings
type BookingStore interface {
	Create(booking *models.Booking) error
	GetByID(bookingID string) (*models.Booking, error)
	GetByTransactionID(transactionID string) (*models.Booking, error)
	GetByUserID(userID string) ([]models.Booking, error)
	GetAll() ([]models.Booking, error)
	UpdateStatusIfPending(transactionID string, status models.BookingStatus) (bool, error)
	Delete(bookingID string) error
}

// PaymentGateway opens payment sessions and validates their outcomes
type PaymentGateway interface {
	CreateSession(params *CreateSessionParams) (*SessionResponse, error)
	ValidateTransaction(valID string) (*ValidationResponse, error)
}

// AuditLogger records payment events
type AuditLogger interface {
	Log(audit *models.PaymentAudit) error
	GetByTransactionID(transactionID string) ([]*models.PaymentAudit, error)
}

// BookingServiceConfig holds configuration for the booking lifecycle
type BookingServiceConfig struct {
	ServerBaseURL      string        // public base URL the gateway callbacks target
	CancellationWindow time.Duration // window around the tour date in which deletion is allowed
}

// DefaultBookingServiceConfig returns default configuration
func DefaultBookingServiceConfig() BookingServiceConfig {
	return BookingServiceConfig{
		ServerBaseURL:      "http://localhost:8080",
		CancellationWindow: models.CancellationWindow,
	}
}

// BookingService drives the pending → confirmed/failed/cancelled lifecycle.
// All transitions go through the store's compare-and-set, so duplicate and
// late gateway callbacks collapse into no-ops instead of double transitions.
type BookingService struct {
	store   BookingStore
	gateway PaymentGateway
	audit   AuditLogger
	config  BookingServiceConfig
	logger  *logrus.Logger
}

// NewBookingService creates a new booking lifecycle service
func NewBookingService(
	store BookingStore,
	gateway PaymentGateway,
	audit AuditLogger,
	config BookingServiceConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		store:   store,
		gateway: gateway,
		audit:   audit,
		config:  config,
		logger:  logger,
	}
}

// IPNPayload is the form payload SSLCommerz posts to the IPN endpoint
type IPNPayload struct {
	TransactionID string
	Status        string
	ValID         string
	Amount        string
	Currency      string
}

// Initiate validates the request, persists a pending booking and opens a
// payment session. The booking is created before the gateway is called: if
// session creation fails the booking stays pending and the error is returned.
func (s *BookingService) Initiate(req *models.InitiateBookingRequest) (*models.InitiateBookingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.ApplyDefaults(time.Now())

	booking := &models.Booking{
		ID:            uuid.New().String(),
		TransactionID: "TRAN-" + uuid.New().String(),
		UserID:        req.UserID,
		FullName:      req.FullName,
		Phone:         req.Phone,
		TourName:      req.TourName,
		TotalPrice:    req.TotalPrice,
		MaxGroupSize:  req.MaxGroupSize,
		BabyCount:     req.BabyCount,
		Date:          req.Date,
		Status:        models.BookingStatusPending,
	}

	if err := s.store.Create(booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.logAudit(models.NewPaymentAudit(models.PaymentEventInitiated, models.PaymentSourceBackend).
		SetTransactionID(booking.TransactionID).
		SetAmount(booking.TotalPrice, "BDT").
		SetPaymentStatus(string(models.BookingStatusPending)))

	session, err := s.gateway.CreateSession(&CreateSessionParams{
		TransactionID: booking.TransactionID,
		Amount:        booking.TotalPrice,
		ProductName:   booking.TourName,
		CustomerName:  booking.FullName,
		CustomerPhone: booking.Phone,
		SuccessURL:    s.callbackURL("success", booking.TransactionID),
		FailURL:       s.callbackURL("fail", booking.TransactionID),
		CancelURL:     s.callbackURL("cancel", booking.TransactionID),
		IPNURL:        s.config.ServerBaseURL + "/api/booking/ipn",
	})
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", booking.TransactionID).
			Error("Payment session creation failed, booking left pending")
		s.logAudit(models.NewPaymentAudit(models.PaymentEventError, models.PaymentSourceGateway).
			SetTransactionID(booking.TransactionID).
			SetError(err.Error()))
		return nil, err
	}

	s.logAudit(models.NewPaymentAudit(models.PaymentEventGatewayResponse, models.PaymentSourceGateway).
		SetTransactionID(booking.TransactionID).
		SetPaymentStatus(session.Status))

	s.logger.WithFields(logrus.Fields{
		"transaction_id": booking.TransactionID,
		"tour_name":      booking.TourName,
		"total_price":    booking.TotalPrice,
	}).Info("Booking initiated")

	return &models.InitiateBookingResponse{
		Status:     "success",
		PaymentURL: session.GatewayPageURL,
	}, nil
}

// HandleSuccess processes the gateway's success callback. The callback alone
// is never trusted: the val_id is checked against the validator API before the
// booking is confirmed. An invalid or unverifiable payment forces the booking
// to failed. Returns the booking's resulting status.
func (s *BookingService) HandleSuccess(transactionID, valID string) (models.BookingStatus, error) {
	booking, err := s.store.GetByTransactionID(transactionID)
	if err != nil {
		return "", err
	}
	if booking.Status.IsTerminal() {
		s.logger.WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"status":         booking.Status,
		}).Info("Success callback for settled booking ignored")
		return booking.Status, nil
	}

	validation, err := s.gateway.ValidateTransaction(valID)
	valid := err == nil && validation.IsValid() &&
		(validation.TransactionID == "" || validation.TransactionID == transactionID)

	target := models.BookingStatusFailed
	if valid {
		target = models.BookingStatusConfirmed
	}

	audit := models.NewPaymentAudit(models.PaymentEventValidationResult, models.PaymentSourceGateway).
		SetTransactionID(transactionID).
		SetPaymentStatus(string(target))
	if err != nil {
		audit.SetError(err.Error())
	}
	s.logAudit(audit)

	return s.settle(transactionID, target)
}

// HandleFailure processes the gateway's failure callback. Missing bookings
// and settled bookings are silent no-ops so the gateway never sees an error.
func (s *BookingService) HandleFailure(transactionID string) (models.BookingStatus, error) {
	return s.settle(transactionID, models.BookingStatusFailed)
}

// HandleCancel processes the gateway's cancel callback
func (s *BookingService) HandleCancel(transactionID string) (models.BookingStatus, error) {
	return s.settle(transactionID, models.BookingStatusCancelled)
}

// HandleIPN reconciles a booking from the gateway's server-to-server
// notification. The IPN is authoritative over the browser callbacks but runs
// through the same validation and compare-and-set, so replays are harmless.
func (s *BookingService) HandleIPN(payload *IPNPayload) error {
	if payload.TransactionID == "" {
		s.logger.Warn("IPN without tran_id ignored")
		return nil
	}

	var err error
	switch strings.ToUpper(payload.Status) {
	case "VALID", "VALIDATED":
		_, err = s.HandleSuccess(payload.TransactionID, payload.ValID)
	case "FAILED", "EXPIRED", "UNATTEMPTED":
		_, err = s.HandleFailure(payload.TransactionID)
	case "CANCELLED":
		_, err = s.HandleCancel(payload.TransactionID)
	default:
		s.logger.WithFields(logrus.Fields{
			"transaction_id": payload.TransactionID,
			"status":         payload.Status,
		}).Warn("IPN with unrecognised status ignored")
		return nil
	}

	if errors.Is(err, models.ErrBookingNotFound) {
		s.logger.WithField("transaction_id", payload.TransactionID).
			Warn("IPN for unknown booking ignored")
		return nil
	}
	return err
}

// settle applies a terminal status via compare-and-set. When the booking has
// already settled (or never existed) the stored status wins and is returned.
func (s *BookingService) settle(transactionID string, target models.BookingStatus) (models.BookingStatus, error) {
	changed, err := s.store.UpdateStatusIfPending(transactionID, target)
	if err != nil {
		return "", err
	}

	if !changed {
		booking, err := s.store.GetByTransactionID(transactionID)
		if err != nil {
			return "", err
		}
		s.logger.WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"status":         booking.Status,
			"requested":      target,
		}).Info("Status transition skipped, booking already settled")
		return booking.Status, nil
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"status":         target,
	}).Info("Booking settled")
	return target, nil
}

// GetBooking retrieves a booking by ID
func (s *BookingService) GetBooking(bookingID string) (*models.Booking, error) {
	return s.store.GetByID(bookingID)
}

// GetBookingByTransactionID retrieves a booking by its transaction identifier
func (s *BookingService) GetBookingByTransactionID(transactionID string) (*models.Booking, error) {
	return s.store.GetByTransactionID(transactionID)
}

// GetBookingsByUser retrieves a user's bookings. A user with no bookings is
// reported as not found.
func (s *BookingService) GetBookingsByUser(userID string) ([]models.Booking, error) {
	bookings, err := s.store.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, models.ErrBookingNotFound
	}
	return bookings, nil
}

// GetAllBookings retrieves every booking
func (s *BookingService) GetAllBookings() ([]models.Booking, error) {
	return s.store.GetAll()
}

// Invoice builds the invoice projection for a transaction identifier
func (s *BookingService) Invoice(transactionID string) (*models.Invoice, error) {
	booking, err := s.store.GetByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	return models.InvoiceFromBooking(booking), nil
}

// PaymentAuditTrail returns the recorded payment events for a transaction
func (s *BookingService) PaymentAuditTrail(transactionID string) ([]*models.PaymentAudit, error) {
	return s.audit.GetByTransactionID(transactionID)
}

// DeleteBooking removes a confirmed booking within the cancellation window.
// A repeated delete reports not found, which the handler maps to 404.
func (s *BookingService) DeleteBooking(bookingID string) error {
	booking, err := s.store.GetByID(bookingID)
	if err != nil {
		return err
	}

	if err := booking.CanBeDeleted(time.Now(), s.config.CancellationWindow); err != nil {
		return err
	}

	if err := s.store.Delete(bookingID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":     bookingID,
		"transaction_id": booking.TransactionID,
	}).Info("Booking deleted")
	return nil
}

// RecordCallbackEvent writes an audit row for an inbound gateway callback
func (s *BookingService) RecordCallbackEvent(audit *models.PaymentAudit) {
	s.logAudit(audit)
}

func (s *BookingService) callbackURL(kind, transactionID string) string {
	return fmt.Sprintf("%s/api/booking/%s/%s", s.config.ServerBaseURL, kind, transactionID)
}

// logAudit records a payment event. Audit failures are logged loudly but do
// not break the payment flow itself.
func (s *BookingService) logAudit(audit *models.PaymentAudit) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(audit); err != nil {
		s.logger.WithError(err).Error("Failed to record payment audit event")
	}
}
