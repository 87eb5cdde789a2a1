package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/services"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/utils"
)

// BookingHandler handles the booking lifecycle endpoints, including the
// payment gateway callbacks
type BookingHandler struct {
	service       *services.BookingService
	clientBaseURL string
	logger        *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(service *services.BookingService, clientBaseURL string, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		service:       service,
		clientBaseURL: clientBaseURL,
		logger:        logger,
	}
}

// Initiate starts the booking/payment flow
// @Summary Initiate a booking
// @Description Creates a pending booking and returns the payment gateway URL
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body models.InitiateBookingRequest true "Booking request"
// @Success 200 {object} models.InitiateBookingResponse
// @Failure 400 {object} map[string]interface{} "Validation or gateway error"
// @Router /booking/initiate [post]
func (h *BookingHandler) Initiate(c *gin.Context) {
	var req models.InitiateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request: " + err.Error()})
		return
	}

	response, err := h.service.Initiate(&req)
	if err != nil {
		var gatewayErr *models.GatewayError
		if errors.As(err, &gatewayErr) {
			h.logger.WithError(err).Error("Payment initiation failed")
			c.JSON(http.StatusBadRequest, gin.H{"status": "failure", "message": "failed to initiate payment"})
			return
		}

		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": validationErr.Error()})
			return
		}

		h.logger.WithError(err).Error("Failed to initiate booking")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to initiate booking"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// PaymentSuccess handles the gateway's success callback. The payment is
// verified against the validator API before the booking is confirmed; the
// user is then redirected to the frontend with the outcome.
func (h *BookingHandler) PaymentSuccess(c *gin.Context) {
	transactionID := c.Param("trid")
	valID := c.PostForm("val_id")

	h.recordCallback(c, models.PaymentEventSuccessCallback, transactionID)

	status, err := h.service.HandleSuccess(transactionID, valID)
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			h.logger.WithField("transaction_id", transactionID).Warn("Success callback for unknown booking")
			h.redirect(c, "failure", transactionID)
			return
		}
		h.logger.WithError(err).Error("Failed to process success callback")
		h.redirect(c, "failure", transactionID)
		return
	}

	outcome := "failure"
	if status == models.BookingStatusConfirmed {
		outcome = "success"
	}
	h.redirect(c, outcome, transactionID)
}

// PaymentFail handles the gateway's failure callback
func (h *BookingHandler) PaymentFail(c *gin.Context) {
	transactionID := c.Param("trid")

	h.recordCallback(c, models.PaymentEventFailCallback, transactionID)

	if _, err := h.service.HandleFailure(transactionID); err != nil && !errors.Is(err, models.ErrBookingNotFound) {
		h.logger.WithError(err).Error("Failed to process failure callback")
	}

	h.redirect(c, "failure", transactionID)
}

// PaymentCancel handles the gateway's cancel callback
func (h *BookingHandler) PaymentCancel(c *gin.Context) {
	transactionID := c.Param("trid")

	h.recordCallback(c, models.PaymentEventCancelCallback, transactionID)

	if _, err := h.service.HandleCancel(transactionID); err != nil && !errors.Is(err, models.ErrBookingNotFound) {
		h.logger.WithError(err).Error("Failed to process cancel callback")
	}

	h.redirect(c, "canceled", transactionID)
}

// PaymentIPN handles the gateway's server-to-server notification. It always
// answers 200 so the gateway stops retrying; reconciliation problems are
// logged and audited instead.
func (h *BookingHandler) PaymentIPN(c *gin.Context) {
	payload := &services.IPNPayload{
		TransactionID: c.PostForm("tran_id"),
		Status:        c.PostForm("status"),
		ValID:         c.PostForm("val_id"),
		Amount:        c.PostForm("amount"),
		Currency:      c.PostForm("currency"),
	}

	h.recordCallback(c, models.PaymentEventIPNReceived, payload.TransactionID)

	if err := h.service.HandleIPN(payload); err != nil {
		h.logger.WithError(err).WithField("transaction_id", payload.TransactionID).
			Error("IPN reconciliation failed")
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// GetAll lists every booking
func (h *BookingHandler) GetAll(c *gin.Context) {
	bookings, err := h.service.GetAllBookings()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": bookings})
}

// GetByID returns a single booking
func (h *BookingHandler) GetByID(c *gin.Context) {
	booking, err := h.service.GetBooking(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to get booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": booking})
}

// GetByUser lists a user's bookings. A user without bookings gets 404.
func (h *BookingHandler) GetByUser(c *gin.Context) {
	bookings, err := h.service.GetBookingsByUser(c.Param("userId"))
	if err != nil {
		h.respondError(c, err, "failed to get bookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": bookings})
}

// GetDetails returns a booking looked up by transaction identifier, used by
// the frontend's post-payment landing page.
func (h *BookingHandler) GetDetails(c *gin.Context) {
	transactionID := c.Query("transactionId")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "transactionId is required"})
		return
	}

	booking, err := h.service.GetBookingByTransactionID(transactionID)
	if err != nil {
		h.respondError(c, err, "failed to get booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": booking})
}

// GetInvoice returns the invoice projection for a transaction identifier
func (h *BookingHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.service.Invoice(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to get invoice")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": invoice})
}

// GetAuditTrail returns the payment events recorded for a booking
func (h *BookingHandler) GetAuditTrail(c *gin.Context) {
	booking, err := h.service.GetBooking(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to get booking")
		return
	}

	events, err := h.service.PaymentAuditTrail(booking.TransactionID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get payment audit trail")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to get audit trail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": events})
}

// Delete removes a confirmed booking within the cancellation window
func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteBooking(c.Param("id")); err != nil {
		h.respondError(c, err, "failed to delete booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "booking deleted"})
}

// redirect sends the user back to the frontend's post-payment page
func (h *BookingHandler) redirect(c *gin.Context, outcome, transactionID string) {
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("%s/booked?status=%s&transactionId=%s", h.clientBaseURL, outcome, transactionID))
}

// recordCallback audits an inbound gateway callback with client metadata
func (h *BookingHandler) recordCallback(c *gin.Context, eventType models.PaymentEventType, transactionID string) {
	c.Request.ParseForm()
	device := utils.ParseUserAgent(utils.GetUserAgent(c))

	h.service.RecordCallbackEvent(models.NewPaymentAudit(eventType, models.PaymentSourceGateway).
		SetTransactionID(transactionID).
		SetRawBody(c.Request.PostForm.Encode()).
		SetClient(utils.GetRealIP(c), device.Raw, device.DeviceType))
}

// respondError maps service errors to HTTP responses
func (h *BookingHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrTourNotFound),
		errors.Is(err, models.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
	default:
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": validationErr.Error()})
			return
		}
		h.logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": fallback})
	}
}
