package services

import (
	"context"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
)

// BillGeneratorSvc produces monthly statements.
type BillGeneratorSvc interface {
	// GenerateBills creates or refreshes one statement per customer with sales in
	// the period. Per-customer failures are reported, not returned as an error.
	GenerateBills(ctx context.Context, req dto.GenerateBillsRequest, userID string) (*domain.GenerationReport, error)
}

// BillingReaderSvc defines read operations for statements.
type BillingReaderSvc interface {
	// ListStatementsForPeriod returns statement summaries for a period.
	ListStatementsForPeriod(ctx context.Context, period domain.Period) ([]domain.Statement, error)

	// ListStatementsForCustomer returns a customer's statements, newest first.
	ListStatementsForCustomer(ctx context.Context, customerID string) ([]domain.Statement, error)

	// GetStatement returns a statement and the sales it aggregates.
	GetStatement(ctx context.Context, statementID string) (*domain.StatementDetail, error)
}

// StatementPaymentSvc applies payments against a statement.
type StatementPaymentSvc interface {
	// RecordStatementPayment spreads the amount over the statement's sales oldest
	// first, regenerates the statement and recomputes the customer balance.
	RecordStatementPayment(ctx context.Context, statementID string, req dto.StatementPaymentRequest, userID string) (*domain.StatementPaymentResult, error)
}

// StatementExportSvc renders statements as documents.
type StatementExportSvc interface {
	ExportStatement(ctx context.Context, statementID string, format domain.ExportFormat) (*domain.StatementDocument, error)
}

// BillingSvcFacade combines all billing-related service interfaces
type BillingSvcFacade interface {
	BillGeneratorSvc
	BillingReaderSvc
	StatementPaymentSvc
	StatementExportSvc
}

// StatementExporter renders a statement detail into a document.
// Implemented by the export adapter.
type StatementExporter interface {
	Export(detail domain.StatementDetail, format domain.ExportFormat) (*domain.StatementDocument, error)
}
