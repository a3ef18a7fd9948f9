package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/observability/metrics"
	"github.com/SscSPs/dairy_billing_app/internal/utils/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBillingWorkers  = 4
	defaultConflictRetries = 3
	defaultConflictBackoff = 20 * time.Millisecond
)

// BillingServiceOption is a functional option for configuring the billing service
type BillingServiceOption func(*billingService)

// WithStatementExporter sets the document renderer used by ExportStatement.
func WithStatementExporter(exporter portssvc.StatementExporter) BillingServiceOption {
	return func(s *billingService) {
		s.exporter = exporter
	}
}

// WithBillingWorkers bounds how many customers are generated concurrently.
func WithBillingWorkers(n int) BillingServiceOption {
	return func(s *billingService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithConflictRetries sets how often a conflicting customer is re-read and re-applied.
func WithConflictRetries(n int, backoff time.Duration) BillingServiceOption {
	return func(s *billingService) {
		if n >= 0 {
			s.retries = n
		}
		if backoff >= 0 {
			s.backoff = backoff
		}
	}
}

// WithBillingClock overrides the time source.
func WithBillingClock(now func() time.Time) BillingServiceOption {
	return func(s *billingService) {
		s.now = now
	}
}

type billingService struct {
	BaseService
	txManager     portsrepo.TransactionManager
	customerRepo  portsrepo.CustomerRepositoryFacade
	saleRepo      portsrepo.SaleRepositoryFacade
	statementRepo portsrepo.StatementRepositoryFacade
	reconciler    portssvc.ReconcilerSvc
	exporter      portssvc.StatementExporter

	workers int
	retries int
	backoff time.Duration
}

// NewBillingService creates a new BillingSvcFacade.
func NewBillingService(repos portsrepo.RepositoryProvider, reconciler portssvc.ReconcilerSvc, options ...BillingServiceOption) portssvc.BillingSvcFacade {
	svc := &billingService{
		txManager:     repos.TxManager,
		customerRepo:  repos.CustomerRepo,
		saleRepo:      repos.SaleRepo,
		statementRepo: repos.StatementRepo,
		reconciler:    reconciler,
		workers:       defaultBillingWorkers,
		retries:       defaultConflictRetries,
		backoff:       defaultConflictBackoff,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BillingSvcFacade = (*billingService)(nil)

func (s *billingService) GenerateBills(ctx context.Context, req dto.GenerateBillsRequest, userID string) (*domain.GenerationReport, error) {
	start := time.Now()
	period := domain.NewPeriod(req.Month, req.Year)
	if err := period.Validate(); err != nil {
		return nil, err
	}

	// Discover which customers bought in the period; guests are dropped here
	records, err := s.saleRepo.RecordsForPeriod(ctx, nil, period)
	if err != nil {
		s.LogError(ctx, err, "Failed to read sales for period", slog.String("period", period.String()))
		metrics.ObserveGenerateRun(err, time.Since(start))
		return nil, fmt.Errorf("failed to read sales for %s: %w", period, err)
	}
	order, groups := billing.GroupByCustomer(records)

	// Fan out per customer. Each worker writes only its own slot
	results := make([]domain.GenerationResult, len(order))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, customerID := range order {
		g.Go(func() error {
			// Not started yet: report the cancellation instead
			if err := ctx.Err(); err != nil {
				results[i] = domain.GenerationResult{
					CustomerID:   customerID,
					CustomerName: groups[customerID][0].CustomerName,
					Outcome:      domain.GenerationFailed,
					Error:        fmt.Sprintf("canceled: %v", err),
				}
				metrics.IncGenerateOutcome(string(domain.GenerationFailed))
				return nil
			}
			// A started customer always finishes.
			results[i] = s.generateForCustomer(context.WithoutCancel(ctx), customerID, period, req.Force, userID)
			return nil
		})
	}
	_ = g.Wait()

	report := domain.NewGenerationReport(period, results)
	metrics.ObserveGenerateRun(nil, time.Since(start))
	s.LogInfo(ctx, "Bills generated",
		slog.String("period", period.String()),
		slog.Int("customers", len(order)),
		slog.Int("created", report.Created),
		slog.Int("replaced", report.Replaced),
		slog.Int("unchanged", report.Unchanged),
		slog.Int("locked", report.Locked),
		slog.Int("failed", report.Failed),
		slog.Bool("force", req.Force))
	return report, nil
}

// generateForCustomer runs one customer's unit of work, retrying conflicts.
func (s *billingService) generateForCustomer(ctx context.Context, customerID string, period domain.Period, force bool, userID string) domain.GenerationResult {
	var result domain.GenerationResult
	for attempt := 1; ; attempt++ {
		var err error
		result, err = s.generateOnce(ctx, customerID, period, force, userID)
		result.Attempts = attempt
		if err == nil {
			break
		}
		// Only a lost version race is worth another attempt
		if errors.Is(err, apperrors.ErrConflict) && attempt <= s.retries {
			metrics.IncGenerateRetry()
			s.LogDebug(ctx, "Statement write conflicted, retrying",
				slog.String("customer_id", customerID), slog.Int("attempt", attempt))
			time.Sleep(s.backoff * time.Duration(attempt))
			continue
		}
		result.Outcome = domain.GenerationFailed
		result.Error = err.Error()
		s.LogError(ctx, err, "Bill generation failed for customer",
			slog.String("customer_id", customerID), slog.String("period", period.String()))
		break
	}
	metrics.IncGenerateOutcome(string(result.Outcome))
	return result
}

func (s *billingService) generateOnce(ctx context.Context, customerID string, period domain.Period, force bool, userID string) (domain.GenerationResult, error) {
	result := domain.GenerationResult{CustomerID: customerID}
	var (
		outcome domain.GenerationOutcome
		stmt    *domain.Statement
		balance decimal.Decimal
	)
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		// Lock the customer first: every writer for this customer queues here
		customer, err := s.customerRepo.FindCustomerForUpdate(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to lock customer %s: %w", customerID, err)
		}
		result.CustomerName = customer.Name

		outcome, stmt, err = s.refreshStatement(ctx, customer, period, force, userID)
		if err != nil {
			return err
		}
		if outcome == domain.GenerationSkipped {
			// no sales left for the period, nothing to store
			return nil
		}

		// Balance projection commits together with the statement
		balance, err = s.reconciler.RecomputeOutstanding(ctx, customerID)
		return err
	})
	if err != nil {
		// Nothing from a rolled back unit of work is reported
		return result, err
	}

	result.Outcome = outcome
	if stmt != nil {
		result.StatementID = stmt.StatementID
		result.TotalSales = stmt.TotalSales
		result.TotalPaid = stmt.TotalPaid
		result.BalanceDue = stmt.BalanceDue
		result.SalesCount = stmt.SalesCount
		result.OutstandingBalance = balance
	}
	return result, nil
}

// refreshStatement brings the customer's statement for period in line with the
// ledger. It must run inside a transaction holding the customer lock.
func (s *billingService) refreshStatement(ctx context.Context, customer *domain.Customer, period domain.Period, force bool, userID string) (domain.GenerationOutcome, *domain.Statement, error) {
	// Re-read the customer's sales under the lock, the discovery read may be stale
	records, err := s.saleRepo.RecordsForPeriod(ctx, &customer.CustomerID, period)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read sales for customer %s: %w", customer.CustomerID, err)
	}
	if len(records) == 0 {
		return domain.GenerationSkipped, nil, nil
	}
	totals := billing.Aggregate(records)

	existing, err := s.statementRepo.FindStatementsByCustomerPeriod(ctx, customer.CustomerID, period)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read statements for customer %s: %w", customer.CustomerID, err)
	}
	// At most one statement per customer and period
	if len(existing) > 1 {
		return "", nil, fmt.Errorf("%w: %d statements stored for customer %s period %s",
			apperrors.ErrInvariantViolation, len(existing), customer.CustomerID, period)
	}

	// --- First statement for the period ---
	now := s.Now()
	if len(existing) == 0 {
		stmt := domain.Statement{
			StatementID:        uuid.NewString(),
			CustomerID:         customer.CustomerID,
			CustomerName:       customer.Name,
			Period:             period,
			NotificationStatus: domain.NotificationNotSent,
			GeneratedAt:        now,
			Version:            1,
			AuditFields:        domain.NewAuditFields(userID, now),
		}
		stmt.ApplyTotals(totals)
		if err := s.statementRepo.InsertStatement(ctx, stmt); err != nil {
			return "", nil, fmt.Errorf("failed to insert statement for customer %s: %w", customer.CustomerID, err)
		}
		return domain.GenerationCreated, &stmt, nil
	}

	// --- Existing statement ---
	current := existing[0]
	if current.HasSameContent(totals) {
		return domain.GenerationUnchanged, &current, nil
	}
	// A delivered statement is what the customer holds, only force replaces it
	if current.IsLocked() && !force {
		return domain.GenerationLocked, &current, nil
	}

	// Replaced content needs a fresh delivery
	next := current
	next.ApplyTotals(totals)
	next.CustomerName = customer.Name
	next.NotificationStatus = domain.NotificationNotSent
	next.NotificationError = ""
	next.NotifiedAt = nil
	next.GeneratedAt = now
	next.LastUpdatedAt = now
	next.LastUpdatedBy = userID
	// Version CAS, a concurrent replace surfaces as ErrConflict
	if err := s.statementRepo.ReplaceStatement(ctx, next, current.Version); err != nil {
		return "", nil, fmt.Errorf("failed to replace statement %s: %w", current.StatementID, err)
	}
	next.Version = current.Version + 1
	return domain.GenerationReplaced, &next, nil
}

func (s *billingService) ListStatementsForPeriod(ctx context.Context, period domain.Period) ([]domain.Statement, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	statements, err := s.statementRepo.ListStatementsByPeriod(ctx, period)
	if err != nil {
		s.LogError(ctx, err, "Failed to list statements", slog.String("period", period.String()))
		return nil, fmt.Errorf("failed to list statements for %s: %w", period, err)
	}
	return statements, nil
}

func (s *billingService) ListStatementsForCustomer(ctx context.Context, customerID string) ([]domain.Statement, error) {
	if _, err := s.customerRepo.FindCustomerByID(ctx, customerID); err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", customerID, err)
	}
	statements, err := s.statementRepo.ListStatementsByCustomer(ctx, customerID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list customer statements", slog.String("customer_id", customerID))
		return nil, fmt.Errorf("failed to list statements for customer %s: %w", customerID, err)
	}
	return statements, nil
}

func (s *billingService) GetStatement(ctx context.Context, statementID string) (*domain.StatementDetail, error) {
	stmt, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get statement %s: %w", statementID, err)
	}
	sales, err := s.saleRepo.FindSalesByIDs(ctx, lineSaleIDs(stmt))
	if err != nil {
		return nil, fmt.Errorf("failed to load sales for statement %s: %w", statementID, err)
	}

	// A deleted customer still leaves a readable statement
	detail := &domain.StatementDetail{Statement: *stmt, Sales: sales}
	customer, err := s.customerRepo.FindCustomerByID(ctx, stmt.CustomerID)
	switch {
	case err == nil:
		detail.Customer = customer
	case errors.Is(err, apperrors.ErrNotFound):
		s.LogDebug(ctx, "Statement customer no longer exists", slog.String("statement_id", statementID))
	default:
		return nil, fmt.Errorf("failed to get customer for statement %s: %w", statementID, err)
	}
	return detail, nil
}

func (s *billingService) RecordStatementPayment(ctx context.Context, statementID string, req dto.StatementPaymentRequest, userID string) (*domain.StatementPaymentResult, error) {
	// --- Validation ---
	if err := billing.ValidateMoney(req.Amount, "amount"); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrValidation)
	}

	var result *domain.StatementPaymentResult
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		// First read only finds the customer to lock
		stmt, err := s.statementRepo.FindStatementByID(ctx, statementID)
		if err != nil {
			return fmt.Errorf("failed to get statement %s: %w", statementID, err)
		}
		customer, err := s.customerRepo.FindCustomerForUpdate(ctx, stmt.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to lock customer %s: %w", stmt.CustomerID, err)
		}
		// Re-read under the lock.
		if stmt, err = s.statementRepo.FindStatementByID(ctx, statementID); err != nil {
			return fmt.Errorf("failed to get statement %s: %w", statementID, err)
		}

		sales, err := s.saleRepo.FindSalesByIDs(ctx, lineSaleIDs(stmt))
		if err != nil {
			return fmt.Errorf("failed to load sales for statement %s: %w", statementID, err)
		}
		// Oldest unpaid sale first
		allocations, remainder := billing.AllocatePayment(req.Amount, sales)
		if remainder.IsPositive() {
			return fmt.Errorf("%w: %w: %s is more than the unpaid balance by %s",
				apperrors.ErrValidation, ErrPaymentExceedsTotal,
				req.Amount.StringFixed(billing.MoneyScale), remainder.StringFixed(billing.MoneyScale))
		}

		// --- Apply to the ledger ---
		now := s.Now()
		byID := make(map[string]domain.SaleRecord, len(sales))
		for _, sale := range sales {
			byID[sale.SaleID] = sale
		}
		for _, a := range allocations {
			paid := byID[a.SaleID].PaidAmount.Add(a.Amount)
			if err := s.saleRepo.UpdateSalePaidAmount(ctx, a.SaleID, paid, userID, now); err != nil {
				return fmt.Errorf("failed to apply payment to sale %s: %w", a.SaleID, err)
			}
		}

		// The payment is an explicit change, so a sent statement is reissued.
		outcome, updated, err := s.refreshStatement(ctx, customer, stmt.Period, true, userID)
		if err != nil {
			return err
		}
		if updated == nil {
			return fmt.Errorf("%w: statement %s has no sales left", apperrors.ErrInvariantViolation, statementID)
		}
		balance, err := s.reconciler.RecomputeOutstanding(ctx, customer.CustomerID)
		if err != nil {
			return err
		}

		// Built inside so a rollback leaves result nil
		result = &domain.StatementPaymentResult{
			Statement:          *updated,
			Allocations:        allocations,
			Outcome:            outcome,
			OutstandingBalance: balance,
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record statement payment", slog.String("statement_id", statementID))
		return nil, err
	}

	s.LogInfo(ctx, "Statement payment recorded",
		slog.String("statement_id", statementID),
		slog.String("amount", req.Amount.StringFixed(billing.MoneyScale)),
		slog.Int("sales", len(result.Allocations)))
	return result, nil
}

func (s *billingService) ExportStatement(ctx context.Context, statementID string, format domain.ExportFormat) (*domain.StatementDocument, error) {
	if format != domain.ExportFormatPDF && format != domain.ExportFormatXLSX {
		return nil, fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, format)
	}
	if s.exporter == nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInternal, ErrExportUnavailable)
	}

	start := time.Now()
	detail, err := s.GetStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}
	doc, err := s.exporter.Export(*detail, format)
	metrics.ObserveStatementExport(string(format), err, time.Since(start))
	if err != nil {
		s.LogError(ctx, err, "Failed to export statement",
			slog.String("statement_id", statementID), slog.String("format", string(format)))
		return nil, fmt.Errorf("failed to export statement %s: %w", statementID, err)
	}
	return doc, nil
}

func lineSaleIDs(stmt *domain.Statement) []string {
	ids := make([]string, len(stmt.Lines))
	for i, l := range stmt.Lines {
		ids[i] = l.SaleID
	}
	return ids
}
