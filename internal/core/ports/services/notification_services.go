package services

import (
	"context"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
)

// NotificationSvc delivers statements and records the outcome.
type NotificationSvc interface {
	// SendStatement delivers a statement. A failed delivery is recorded on the
	// statement and returned as *apperrors.DeliveryError.
	SendStatement(ctx context.Context, req dto.SendNotificationRequest, userID string) (*domain.NotificationResult, error)
}

// StatementDispatcher is the delivery provider contract. Implementations must
// honour ctx cancellation and never panic; failures are reported in the outcome.
type StatementDispatcher interface {
	Send(ctx context.Context, msg domain.StatementMessage) domain.DeliveryOutcome
}
