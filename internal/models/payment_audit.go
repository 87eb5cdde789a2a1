package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventInitiated        PaymentEventType = "payment_initiated"
	PaymentEventGatewayResponse  PaymentEventType = "gateway_response"
	PaymentEventSuccessCallback  PaymentEventType = "success_callback"
	PaymentEventFailCallback     PaymentEventType = "fail_callback"
	PaymentEventCancelCallback   PaymentEventType = "cancel_callback"
	PaymentEventIPNReceived      PaymentEventType = "ipn_received"
	PaymentEventValidationResult PaymentEventType = "validation_result"
	PaymentEventError            PaymentEventType = "error"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceBackend PaymentEventSource = "backend"
	PaymentSourceGateway PaymentEventSource = "gateway"
	PaymentSourceUser    PaymentEventSource = "user"
)

// PaymentAudit is an immutable audit log entry for a payment event.
// One row is written per callback delivery, duplicates included, so the full
// gateway conversation for a transaction identifier can be reconstructed.
type PaymentAudit struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	TransactionID *string            `json:"transactionId,omitempty" db:"transaction_id"`
	EventType     PaymentEventType   `json:"eventType" db:"event_type"`
	EventSource   PaymentEventSource `json:"eventSource" db:"event_source"`
	PaymentStatus *string            `json:"paymentStatus,omitempty" db:"payment_status"`
	Amount        *float64           `json:"amount,omitempty" db:"amount"`
	Currency      *string            `json:"currency,omitempty" db:"currency"`
	RawBody       *string            `json:"rawBody,omitempty" db:"raw_body"`
	ErrorMessage  *string            `json:"errorMessage,omitempty" db:"error_message"`
	IPAddress     *string            `json:"ipAddress,omitempty" db:"ip_address"`
	UserAgent     *string            `json:"userAgent,omitempty" db:"user_agent"`
	DeviceType    *string            `json:"deviceType,omitempty" db:"device_type"`
	CreatedAt     time.Time          `json:"createdAt" db:"created_at"`
}

// NewPaymentAudit creates a new payment audit entry with required fields
func NewPaymentAudit(eventType PaymentEventType, source PaymentEventSource) *PaymentAudit {
	return &PaymentAudit{
		ID:          uuid.New(),
		EventType:   eventType,
		EventSource: source,
		CreatedAt:   time.Now(),
	}
}

// SetTransactionID sets the merchant transaction identifier
func (pa *PaymentAudit) SetTransactionID(trid string) *PaymentAudit {
	if trid != "" {
		pa.TransactionID = &trid
	}
	return pa
}

// SetPaymentStatus sets the payment status reported by the gateway
func (pa *PaymentAudit) SetPaymentStatus(status string) *PaymentAudit {
	pa.PaymentStatus = &status
	return pa
}

// SetAmount sets the monetary amount involved in the event
func (pa *PaymentAudit) SetAmount(amount float64, currency string) *PaymentAudit {
	pa.Amount = &amount
	pa.Currency = &currency
	return pa
}

// SetRawBody stores the raw callback body before parsing
func (pa *PaymentAudit) SetRawBody(body string) *PaymentAudit {
	if body != "" {
		pa.RawBody = &body
	}
	return pa
}

// SetError sets error information
func (pa *PaymentAudit) SetError(message string) *PaymentAudit {
	pa.ErrorMessage = &message
	return pa
}

// SetClient sets request metadata about the calling client
func (pa *PaymentAudit) SetClient(ip, userAgent, deviceType string) *PaymentAudit {
	if ip != "" {
		pa.IPAddress = &ip
	}
	if userAgent != "" {
		pa.UserAgent = &userAgent
	}
	if deviceType != "" {
		pa.DeviceType = &deviceType
	}
	return pa
}
