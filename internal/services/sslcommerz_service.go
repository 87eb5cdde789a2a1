package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/config"
	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

// SSLCommerzEnvironments maps environment names to their gateway endpoints
var SSLCommerzEnvironments = map[string]struct {
	SessionURL   string
	ValidatorURL string
}{
	"sandbox": {
		SessionURL:   "https://sandbox.sslcommerz.com/gwprocess/v4/api.php",
		ValidatorURL: "https://sandbox.sslcommerz.com/validator/api/validationserverAPI.php",
	},
	"production": {
		SessionURL:   "https://securepay.sslcommerz.com/gwprocess/v4/api.php",
		ValidatorURL: "https://securepay.sslcommerz.com/validator/api/validationserverAPI.php",
	},
}

// SSLCommerzService handles payment gateway integration with SSLCommerz
type SSLCommerzService struct {
	config       *config.PaymentConfig
	logger       *logrus.Logger
	client       *http.Client
	sessionURL   string
	validatorURL string
}

// CreateSessionParams contains everything needed to open a payment session
type CreateSessionParams struct {
	TransactionID string
	Amount        float64
	ProductName   string

	CustomerName  string
	CustomerPhone string

	// Gateway callback URLs, each already carrying the transaction id
	SuccessURL string
	FailURL    string
	CancelURL  string
	IPNURL     string
}

// SessionResponse is the gwprocess v4 session response. Only the fields the
// booking flow reads are mapped.
type SessionResponse struct {
	Status         string `json:"status"` // "SUCCESS" or "FAILED"
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// ValidationResponse is the validator API response
type ValidationResponse struct {
	Status        string `json:"status"` // VALID, VALIDATED, INVALID_TRANSACTION, ...
	TransactionID string `json:"tran_id"`
	ValID         string `json:"val_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	BankTranID    string `json:"bank_tran_id"`
	CardType      string `json:"card_type"`
	TranDate      string `json:"tran_date"`
	RiskLevel     string `json:"risk_level"`
	RiskTitle     string `json:"risk_title"`
}

// IsValid reports whether the gateway vouches for the transaction.
// VALIDATED means the validator API was already queried once for this val_id.
func (v *ValidationResponse) IsValid() bool {
	return v.Status == "VALID" || v.Status == "VALIDATED"
}

// NewSSLCommerzService creates a new SSLCommerz payment service
func NewSSLCommerzService(cfg *config.PaymentConfig, logger *logrus.Logger) *SSLCommerzService {
	endpoints, ok := SSLCommerzEnvironments[cfg.Environment]
	if !ok {
		endpoints = SSLCommerzEnvironments["sandbox"]
	}

	return &SSLCommerzService{
		config:       cfg,
		logger:       logger,
		sessionURL:   endpoints.SessionURL,
		validatorURL: endpoints.ValidatorURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateSession opens a payment session and returns the hosted gateway page
// URL the customer is redirected to. The gateway deduplicates by tran_id, so
// there are no retries here.
func (s *SSLCommerzService) CreateSession(params *CreateSessionParams) (*SessionResponse, error) {
	if !s.IsConfigured() {
		return nil, &models.GatewayError{Op: "create session", Err: fmt.Errorf("gateway not configured: missing store credentials")}
	}

	form := url.Values{}
	form.Set("store_id", s.config.StoreID)
	form.Set("store_passwd", s.config.StorePassword)
	form.Set("total_amount", fmt.Sprintf("%.2f", params.Amount))
	form.Set("currency", s.config.Currency)
	form.Set("tran_id", params.TransactionID)
	form.Set("success_url", params.SuccessURL)
	form.Set("fail_url", params.FailURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("ipn_url", params.IPNURL)
	form.Set("shipping_method", "NO")
	form.Set("product_name", params.ProductName)
	form.Set("product_category", "Tour")
	form.Set("product_profile", "general")
	form.Set("cus_name", params.CustomerName)
	form.Set("cus_email", "customer@example.com")
	form.Set("cus_add1", "Dhaka")
	form.Set("cus_city", "Dhaka")
	form.Set("cus_postcode", "1000")
	form.Set("cus_country", "Bangladesh")
	form.Set("cus_phone", params.CustomerPhone)

	s.logger.WithFields(logrus.Fields{
		"transaction_id": params.TransactionID,
		"amount":         params.Amount,
		"currency":       s.config.Currency,
		"endpoint":       s.sessionURL,
	}).Info("Creating SSLCommerz payment session")

	resp, err := s.client.PostForm(s.sessionURL, form)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call SSLCommerz session endpoint")
		return nil, &models.GatewayError{Op: "create session", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.GatewayError{Op: "create session", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.GatewayError{Op: "create session", Err: fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))}
	}

	var session SessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		s.logger.WithFields(logrus.Fields{
			"body":  string(body),
			"error": err.Error(),
		}).Error("Failed to parse SSLCommerz session response")
		return nil, &models.GatewayError{Op: "create session", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if !strings.EqualFold(session.Status, "SUCCESS") {
		reason := session.FailedReason
		if reason == "" {
			reason = fmt.Sprintf("status=%s", session.Status)
		}
		return nil, &models.GatewayError{Op: "create session", Err: fmt.Errorf("session rejected: %s", reason)}
	}

	if session.GatewayPageURL == "" {
		return nil, &models.GatewayError{Op: "create session", Err: fmt.Errorf("no gateway page URL returned")}
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": params.TransactionID,
		"session_key":    session.SessionKey,
	}).Info("SSLCommerz session created")

	return &session, nil
}

// ValidateTransaction asks the validator API whether the gateway really
// collected the money behind a val_id. Callbacks are forgeable; this is the
// only trusted signal before confirming a booking.
func (s *SSLCommerzService) ValidateTransaction(valID string) (*ValidationResponse, error) {
	if valID == "" {
		return nil, &models.GatewayError{Op: "validate", Err: fmt.Errorf("missing val_id")}
	}

	query := url.Values{}
	query.Set("val_id", valID)
	query.Set("store_id", s.config.StoreID)
	query.Set("store_passwd", s.config.StorePassword)
	query.Set("format", "json")

	requestURL := s.validatorURL + "?" + query.Encode()

	s.logger.WithFields(logrus.Fields{
		"val_id":      valID,
		"environment": s.config.Environment,
	}).Info("Validating SSLCommerz transaction")

	resp, err := s.client.Get(requestURL)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call SSLCommerz validator")
		return nil, &models.GatewayError{Op: "validate", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.GatewayError{Op: "validate", Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.GatewayError{Op: "validate", Err: fmt.Errorf("validator returned status %d: %s", resp.StatusCode, string(body))}
	}

	var validation ValidationResponse
	if err := json.Unmarshal(body, &validation); err != nil {
		return nil, &models.GatewayError{Op: "validate", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	s.logger.WithFields(logrus.Fields{
		"val_id":         valID,
		"transaction_id": validation.TransactionID,
		"status":         validation.Status,
	}).Info("SSLCommerz validation result")

	return &validation, nil
}

// IsConfigured returns true if the gateway credentials are present
func (s *SSLCommerzService) IsConfigured() bool {
	return s.config.StoreID != "" && s.config.StorePassword != ""
}

// GetEnvironment returns the current payment environment
func (s *SSLCommerzService) GetEnvironment() string {
	return s.config.Environment
}
