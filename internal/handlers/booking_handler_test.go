package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/services"
)

type stubStore struct {
	bookings map[string]*models.Booking // keyed by transaction id
}

func (s *stubStore) Create(b *models.Booking) error {
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	s.bookings[b.TransactionID] = b
	return nil
}

func (s *stubStore) GetByID(id string) (*models.Booking, error) {
	for _, b := range s.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, models.ErrBookingNotFound
}

func (s *stubStore) GetByTransactionID(trid string) (*models.Booking, error) {
	b, ok := s.bookings[trid]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	return b, nil
}

func (s *stubStore) GetByUserID(userID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubStore) GetAll() ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (s *stubStore) UpdateStatusIfPending(trid string, status models.BookingStatus) (bool, error) {
	b, ok := s.bookings[trid]
	if !ok || b.Status != models.BookingStatusPending {
		return false, nil
	}
	b.Status = status
	return true, nil
}

func (s *stubStore) Delete(id string) error {
	for trid, b := range s.bookings {
		if b.ID == id {
			delete(s.bookings, trid)
			return nil
		}
	}
	return models.ErrBookingNotFound
}

type stubGateway struct {
	sessionErr error
	validation *services.ValidationResponse
}

func (g *stubGateway) CreateSession(params *services.CreateSessionParams) (*services.SessionResponse, error) {
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	return &services.SessionResponse{Status: "SUCCESS", GatewayPageURL: "https://gateway.example/pay"}, nil
}

func (g *stubGateway) ValidateTransaction(valID string) (*services.ValidationResponse, error) {
	if g.validation != nil {
		return g.validation, nil
	}
	return &services.ValidationResponse{Status: "VALID"}, nil
}

type stubAudit struct {
	events []*models.PaymentAudit
}

func (a *stubAudit) Log(e *models.PaymentAudit) error { a.events = append(a.events, e); return nil }

func (a *stubAudit) GetByTransactionID(trid string) ([]*models.PaymentAudit, error) {
	return a.events, nil
}

func setupRouter(store *stubStore, gateway *stubGateway) (*gin.Engine, *stubAudit) {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	audit := &stubAudit{}
	svc := services.NewBookingService(store, gateway, audit, services.BookingServiceConfig{
		ServerBaseURL:      "http://localhost:8080",
		CancellationWindow: 48 * time.Hour,
	}, logger)
	handler := NewBookingHandler(svc, "http://frontend.example", logger)

	router := gin.New()
	api := router.Group("/api")
	booking := api.Group("/booking")
	booking.POST("/initiate", handler.Initiate)
	booking.POST("/success/:trid", handler.PaymentSuccess)
	booking.POST("/fail/:trid", handler.PaymentFail)
	booking.POST("/cancel/:trid", handler.PaymentCancel)
	booking.POST("/ipn", handler.PaymentIPN)
	booking.GET("", handler.GetAll)
	booking.GET("/details", handler.GetDetails)
	booking.GET("/user/:userId", handler.GetByUser)
	booking.GET("/:id", handler.GetByID)
	booking.GET("/:id/audit", handler.GetAuditTrail)
	booking.DELETE("/:id", handler.Delete)
	api.GET("/invoice/:id", handler.GetInvoice)

	return router, audit
}

func seedConfirmed(store *stubStore) *models.Booking {
	b := &models.Booking{
		ID:            "booking-1",
		TransactionID: "TRAN-abc",
		UserID:        "user-1",
		FullName:      "Jane Doe",
		TourName:      "Sundarbans Adventure",
		TotalPrice:    4500,
		Date:          time.Now().Format(models.DateLayout),
		Status:        models.BookingStatusConfirmed,
	}
	store.bookings[b.TransactionID] = b
	return b
}

func seedPending(store *stubStore) *models.Booking {
	b := seedConfirmed(store)
	b.Status = models.BookingStatusPending
	return b
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInitiateEndpoint(t *testing.T) {
	t.Run("Returns Payment URL", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		router, _ := setupRouter(store, &stubGateway{})

		body, _ := json.Marshal(map[string]interface{}{
			"fullName":   "Jane Doe",
			"phone":      "01711111111",
			"tourName":   "Sundarbans Adventure",
			"totalPrice": 4500,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/booking/initiate", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp models.InitiateBookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "success", resp.Status)
		assert.Equal(t, "https://gateway.example/pay", resp.PaymentURL)
		assert.Len(t, store.bookings, 1)
	})

	t.Run("Rejects Negative Price", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		router, _ := setupRouter(store, &stubGateway{})

		body, _ := json.Marshal(map[string]interface{}{
			"fullName":   "Jane Doe",
			"phone":      "01711111111",
			"tourName":   "Sundarbans Adventure",
			"totalPrice": -10,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/booking/initiate", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "total price")
		assert.Empty(t, store.bookings)
	})

	t.Run("Gateway Failure Reports Failure Status", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		gateway := &stubGateway{sessionErr: &models.GatewayError{Op: "create session", Err: io.ErrUnexpectedEOF}}
		router, _ := setupRouter(store, gateway)

		body, _ := json.Marshal(map[string]interface{}{
			"fullName":   "Jane Doe",
			"phone":      "01711111111",
			"tourName":   "Sundarbans Adventure",
			"totalPrice": 4500,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/booking/initiate", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "failure")

		// The pending booking survives for IPN reconciliation
		assert.Len(t, store.bookings, 1)
	})
}

func TestPaymentCallbacks(t *testing.T) {
	t.Run("Success Callback Redirects With Success", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedPending(store)
		router, audit := setupRouter(store, &stubGateway{
			validation: &services.ValidationResponse{Status: "VALID", TransactionID: "TRAN-abc"},
		})

		w := postForm(router, "/api/booking/success/TRAN-abc", url.Values{"val_id": {"val-1"}})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "http://frontend.example/booked?status=success&transactionId=TRAN-abc", w.Header().Get("Location"))
		assert.Equal(t, models.BookingStatusConfirmed, store.bookings["TRAN-abc"].Status)
		assert.NotEmpty(t, audit.events)
	})

	t.Run("Invalid Payment Redirects With Failure", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedPending(store)
		router, _ := setupRouter(store, &stubGateway{
			validation: &services.ValidationResponse{Status: "INVALID_TRANSACTION"},
		})

		w := postForm(router, "/api/booking/success/TRAN-abc", url.Values{"val_id": {"val-bogus"}})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "status=failure")
		assert.Equal(t, models.BookingStatusFailed, store.bookings["TRAN-abc"].Status)
	})

	t.Run("Unknown Transaction Redirects With Failure", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		router, _ := setupRouter(store, &stubGateway{})

		w := postForm(router, "/api/booking/success/TRAN-ghost", url.Values{"val_id": {"val-1"}})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "status=failure")
	})

	t.Run("Fail Callback Redirects", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedPending(store)
		router, _ := setupRouter(store, &stubGateway{})

		w := postForm(router, "/api/booking/fail/TRAN-abc", url.Values{})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "status=failure")
		assert.Equal(t, models.BookingStatusFailed, store.bookings["TRAN-abc"].Status)
	})

	t.Run("Cancel Callback Redirects With Canceled", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedPending(store)
		router, _ := setupRouter(store, &stubGateway{})

		w := postForm(router, "/api/booking/cancel/TRAN-abc", url.Values{})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "status=canceled")
		assert.Equal(t, models.BookingStatusCancelled, store.bookings["TRAN-abc"].Status)
	})

	t.Run("Late Fail After Confirmation Keeps Confirmed", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedConfirmed(store)
		router, _ := setupRouter(store, &stubGateway{})

		w := postForm(router, "/api/booking/fail/TRAN-abc", url.Values{})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, models.BookingStatusConfirmed, store.bookings["TRAN-abc"].Status)
	})
}

func TestIPNEndpoint(t *testing.T) {
	t.Run("Always Answers 200", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		router, _ := setupRouter(store, &stubGateway{})

		w := postForm(router, "/api/booking/ipn", url.Values{
			"tran_id": {"TRAN-ghost"},
			"status":  {"FAILED"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Valid IPN Confirms Booking", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedPending(store)
		router, _ := setupRouter(store, &stubGateway{
			validation: &services.ValidationResponse{Status: "VALID", TransactionID: "TRAN-abc"},
		})

		w := postForm(router, "/api/booking/ipn", url.Values{
			"tran_id": {"TRAN-abc"},
			"status":  {"VALID"},
			"val_id":  {"val-1"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.BookingStatusConfirmed, store.bookings["TRAN-abc"].Status)
	})
}

func TestBookingReads(t *testing.T) {
	t.Run("Details Requires Transaction ID", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		router, _ := setupRouter(store, &stubGateway{})

		req := httptest.NewRequest(http.MethodGet, "/api/booking/details", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Details Returns Booking", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedConfirmed(store)
		router, _ := setupRouter(store, &stubGateway{})

		req := httptest.NewRequest(http.MethodGet, "/api/booking/details?transactionId=TRAN-abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "TRAN-abc")
	})

	t.Run("User Without Bookings Gets 404", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		router, _ := setupRouter(store, &stubGateway{})

		req := httptest.NewRequest(http.MethodGet, "/api/booking/user/nobody", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invoice Projection", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedConfirmed(store)
		router, _ := setupRouter(store, &stubGateway{})

		req := httptest.NewRequest(http.MethodGet, "/api/invoice/TRAN-abc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"paymentStatus":"confirmed"`)
		assert.NotContains(t, w.Body.String(), `"phone"`)
	})
}

func TestDeleteEndpoint(t *testing.T) {
	t.Run("Deletes Confirmed Booking", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedConfirmed(store)
		router, _ := setupRouter(store, &stubGateway{})

		req := httptest.NewRequest(http.MethodDelete, "/api/booking/booking-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, store.bookings)
	})

	t.Run("Pending Booking Rejected With 400", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedPending(store)
		router, _ := setupRouter(store, &stubGateway{})

		req := httptest.NewRequest(http.MethodDelete, "/api/booking/booking-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Repeat Delete Gets 404", func(t *testing.T) {
		store := &stubStore{bookings: map[string]*models.Booking{}}
		seedConfirmed(store)
		router, _ := setupRouter(store, &stubGateway{})

		req := httptest.NewRequest(http.MethodDelete, "/api/booking/booking-1", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		req = httptest.NewRequest(http.MethodDelete, "/api/booking/booking-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
