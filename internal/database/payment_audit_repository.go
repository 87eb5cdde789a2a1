package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/md-shafiuddin-shajib/travelbooking/internal/models"
)

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new payment audit entry.
// This should NEVER fail silently - payment events must be logged.
func (r *PaymentAuditRepository) Log(audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (
			id, transaction_id, event_type, event_source,
			payment_status, amount, currency, raw_body,
			error_message, ip_address, user_agent, device_type,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := r.db.Exec(query,
		audit.ID, audit.TransactionID, audit.EventType, audit.EventSource,
		audit.PaymentStatus, audit.Amount, audit.Currency, audit.RawBody,
		audit.ErrorMessage, audit.IPAddress, audit.UserAgent, audit.DeviceType,
		audit.CreatedAt,
	)

	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":     audit.EventType,
			"transaction_id": audit.TransactionID,
		}).Error("CRITICAL: Failed to log payment audit - THIS SHOULD NEVER HAPPEN")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":       audit.ID,
		"event_type":     audit.EventType,
		"transaction_id": audit.TransactionID,
	}).Debug("Payment audit logged")

	return nil
}

// GetByTransactionID retrieves all audit entries for a transaction identifier,
// oldest first, so the gateway conversation reads in order.
func (r *PaymentAuditRepository) GetByTransactionID(transactionID string) ([]*models.PaymentAudit, error) {
	var audits []*models.PaymentAudit
	query := `
		SELECT id, transaction_id, event_type, event_source,
			   payment_status, amount, currency, raw_body,
			   error_message, ip_address, user_agent, device_type,
			   created_at
		FROM payment_audits
		WHERE transaction_id = $1
		ORDER BY created_at ASC`

	err := r.db.Select(&audits, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audits by transaction ID: %w", err)
	}

	return audits, nil
}
