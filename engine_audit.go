package ticketAuth

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/ticketAuth/internal/audit"
	"github.com/MrEthical07/ticketAuth/validation"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventLoginThrottled  = "login_throttled"
	auditEventUserProvisioned = "user_provisioned"
	auditEventProvisionFailed = "user_provision_failed"
)

// AuditErrorCode is the stable error label carried in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrValidation         AuditErrorCode = "validation_failed"
	auditErrThrottled          AuditErrorCode = "throttled"
	auditErrConfiguration      AuditErrorCode = "configuration"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// ticketHintLength is how much of a ticket audit events may carry.
const ticketHintLength = 8

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	ticket string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	now := e.now().UTC()
	event := AuditEvent{
		ID:        internalaudit.NewEventID(now),
		Timestamp: now,
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if len(ticket) >= ticketHintLength {
		event.TicketHint = ticket[:ticketHintLength]
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, validation.ErrInvalid):
		return auditErrValidation
	case errors.Is(err, ErrLoginThrottled):
		return auditErrThrottled
	case errors.Is(err, ErrConfiguration):
		return auditErrConfiguration
	case errors.Is(err, ErrUserExists):
		return auditErrDuplicate
	case errors.Is(err, ErrInfrastructure):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
