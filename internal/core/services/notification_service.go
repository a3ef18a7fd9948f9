package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/observability/metrics"
	"github.com/go-playground/validator/v10"
)

const defaultNotificationTimeout = 15 * time.Second

type notificationService struct {
	BaseService
	statementRepo portsrepo.StatementRepositoryFacade
	saleRepo      portsrepo.SaleReader
	dispatcher    portssvc.StatementDispatcher
	validate      *validator.Validate
	timeout       time.Duration
}

// NewNotificationService creates a new NotificationSvc. A non-positive timeout
// falls back to the default.
func NewNotificationService(repos portsrepo.RepositoryProvider, dispatcher portssvc.StatementDispatcher, timeout time.Duration) portssvc.NotificationSvc {
	if timeout <= 0 {
		timeout = defaultNotificationTimeout
	}
	return &notificationService{
		statementRepo: repos.StatementRepo,
		saleRepo:      repos.SaleRepo,
		dispatcher:    dispatcher,
		validate:      validator.New(),
		timeout:       timeout,
	}
}

var _ portssvc.NotificationSvc = (*notificationService)(nil)

func (s *notificationService) SendStatement(ctx context.Context, req dto.SendNotificationRequest, userID string) (*domain.NotificationResult, error) {
	// --- Validation ---
	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" || s.validate.Var(recipient, "email") != nil {
		return nil, fmt.Errorf("%w: %s: recipient %q is not a valid email address",
			apperrors.ErrValidation, domain.DeliveryInvalidAddress, recipient)
	}

	// Load the statement and the sales behind its lines for the attachment
	stmt, err := s.statementRepo.FindStatementByID(ctx, req.StatementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get statement %s: %w", req.StatementID, err)
	}
	sales, err := s.saleRepo.FindSalesByIDs(ctx, lineSaleIDs(stmt))
	if err != nil {
		return nil, fmt.Errorf("failed to load sales for statement %s: %w", req.StatementID, err)
	}

	// --- Delivery ---
	start := time.Now()
	outcome := s.dispatch(ctx, domain.StatementMessage{Statement: *stmt, Sales: sales, Recipient: recipient})
	metrics.ObserveNotification(outcome.Delivered, string(outcome.Reason), time.Since(start))

	// Map the outcome onto the statement's notification status
	status := domain.NotificationSent
	errMsg := ""
	if !outcome.Delivered {
		status = domain.NotificationFailed
		errMsg = string(outcome.Reason)
		if outcome.Detail != "" {
			errMsg += ": " + outcome.Detail
		}
	}

	// The outcome is recorded even when the caller has gone away.
	// Guarded by the content hash: a statement regenerated with different
	// content meanwhile is not marked as delivered.
	notifiedAt := s.Now()
	if _, err := s.statementRepo.UpdateNotificationStatus(context.WithoutCancel(ctx), stmt.StatementID, stmt.ContentHash, status, errMsg, notifiedAt); err != nil {
		s.LogError(ctx, err, "Failed to record delivery outcome",
			slog.String("statement_id", stmt.StatementID), slog.String("status", string(status)))
		return nil, fmt.Errorf("failed to record delivery outcome for statement %s: %w", stmt.StatementID, err)
	}

	if !outcome.Delivered {
		s.LogInfo(ctx, "Statement delivery failed",
			slog.String("statement_id", stmt.StatementID),
			slog.String("reason", string(outcome.Reason)),
			slog.String("detail", outcome.Detail))
		return nil, &apperrors.DeliveryError{Reason: string(outcome.Reason), Detail: outcome.Detail}
	}

	s.LogInfo(ctx, "Statement delivered",
		slog.String("statement_id", stmt.StatementID),
		slog.String("recipient", recipient),
		slog.String("user_id", userID))
	return &domain.NotificationResult{
		StatementID:        stmt.StatementID,
		Recipient:          recipient,
		NotificationStatus: status,
		Outcome:            outcome,
		NotifiedAt:         notifiedAt,
	}, nil
}

// dispatch bounds the provider call by the configured timeout. A dispatcher
// that ignores its context is abandoned once the deadline passes.
func (s *notificationService) dispatch(ctx context.Context, msg domain.StatementMessage) domain.DeliveryOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Buffered so an abandoned dispatcher goroutine can still finish
	done := make(chan domain.DeliveryOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- domain.DeliveryFailure(domain.DeliveryFailed, fmt.Sprintf("dispatcher panic: %v", r))
			}
		}()
		done <- s.dispatcher.Send(ctx, msg)
	}()

	select {
	case outcome := <-done:
		// a provider error caused by our deadline is reported as a timeout
		if !outcome.Delivered && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.DeliveryFailure(domain.DeliveryTimeout, fmt.Sprintf("no response within %s", s.timeout))
		}
		return outcome
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.DeliveryFailure(domain.DeliveryTimeout, fmt.Sprintf("no response within %s", s.timeout))
		}
		return domain.DeliveryFailure(domain.DeliveryFailed, ctx.Err().Error())
	}
}
