package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
)

// StatementReader defines read operations for statements.
type StatementReader interface {
	// FindStatementByID retrieves a statement with its lines.
	FindStatementByID(ctx context.Context, statementID string) (*domain.Statement, error)

	// FindStatementsByCustomerPeriod returns every statement stored for the key.
	// More than one result means the uniqueness rule was broken.
	FindStatementsByCustomerPeriod(ctx context.Context, customerID string, period domain.Period) ([]domain.Statement, error)

	// ListStatementsByPeriod returns statement summaries (no lines) ordered by customer name.
	ListStatementsByPeriod(ctx context.Context, period domain.Period) ([]domain.Statement, error)

	// ListStatementsByCustomer returns a customer's statements with lines, newest period first.
	ListStatementsByCustomer(ctx context.Context, customerID string) ([]domain.Statement, error)

	// IsSaleBilled reports whether any statement includes the sale.
	IsSaleBilled(ctx context.Context, saleID string) (bool, error)
}

// StatementWriter defines write operations for statements.
type StatementWriter interface {
	// InsertStatement creates a statement. A second statement for the same
	// customer and period fails with apperrors.ErrConflict.
	InsertStatement(ctx context.Context, statement domain.Statement) error

	// ReplaceStatement overwrites totals, lines and notification state in place when
	// the stored version equals expectedVersion; otherwise apperrors.ErrConflict.
	ReplaceStatement(ctx context.Context, statement domain.Statement, expectedVersion int) error

	// UpdateNotificationStatus records a delivery outcome when the stored content
	// hash still equals contentHash; otherwise apperrors.ErrConflict. It bumps the
	// version so an in-flight regeneration has to re-read the new status.
	UpdateNotificationStatus(ctx context.Context, statementID string, contentHash string, status domain.NotificationStatus, errMsg string, at time.Time) (*domain.Statement, error)
}

// StatementRepositoryFacade combines all statement-related repository interfaces
type StatementRepositoryFacade interface {
	StatementReader
	StatementWriter
}
