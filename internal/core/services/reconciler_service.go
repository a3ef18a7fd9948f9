package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/observability/metrics"
	"github.com/SscSPs/dairy_billing_app/internal/utils/billing"
	"github.com/shopspring/decimal"
)

// reconcilerService owns Customer.OutstandingBalance. Every balance-moving
// write in the system ends by calling RecomputeOutstanding.
type reconcilerService struct {
	BaseService
	txManager     portsrepo.TransactionManager
	customerRepo  portsrepo.CustomerRepositoryFacade
	saleRepo      portsrepo.SaleReader
	statementRepo portsrepo.StatementReader
}

// NewReconcilerService creates a new ReconcilerSvc.
func NewReconcilerService(repos portsrepo.RepositoryProvider) portssvc.ReconcilerSvc {
	return &reconcilerService{
		txManager:     repos.TxManager,
		customerRepo:  repos.CustomerRepo,
		saleRepo:      repos.SaleRepo,
		statementRepo: repos.StatementRepo,
	}
}

var _ portssvc.ReconcilerSvc = (*reconcilerService)(nil)

func (s *reconcilerService) RecomputeOutstanding(ctx context.Context, customerID string) (decimal.Decimal, error) {
	_, balance, err := s.recompute(ctx, customerID)
	return balance, err
}

// recompute returns the previous and the new balance.
func (s *reconcilerService) recompute(ctx context.Context, customerID string) (decimal.Decimal, decimal.Decimal, error) {
	var previous, balance decimal.Decimal
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		// Lock first so the sums below read a stable ledger
		customer, err := s.customerRepo.FindCustomerForUpdate(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to lock customer %s: %w", customerID, err)
		}
		statements, err := s.statementRepo.ListStatementsByCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to list statements for customer %s: %w", customerID, err)
		}
		sales, err := s.saleRepo.ListSalesByCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to list sales for customer %s: %w", customerID, err)
		}

		previous = customer.OutstandingBalance
		balance = billing.OutstandingBalance(statements, sales)
		if balance.Equal(previous) {
			// skip the write, keeps lastUpdatedAt meaningful
			return nil
		}
		if err := s.customerRepo.UpdateOutstandingBalance(ctx, customerID, balance, s.Now()); err != nil {
			return fmt.Errorf("failed to store balance for customer %s: %w", customerID, err)
		}
		return nil
	})
	metrics.IncReconcile(err)
	if err != nil {
		s.LogError(ctx, err, "Failed to recompute outstanding balance", slog.String("customer_id", customerID))
		return decimal.Zero, decimal.Zero, err
	}

	s.LogDebug(ctx, "Outstanding balance recomputed",
		slog.String("customer_id", customerID),
		slog.String("previous", previous.StringFixed(billing.MoneyScale)),
		slog.String("balance", balance.StringFixed(billing.MoneyScale)))
	return previous, balance, nil
}

// ReconcileAll includes inactive customers: deactivation does not clear debt.
func (s *reconcilerService) ReconcileAll(ctx context.Context) ([]domain.ReconciliationResult, error) {
	customers, err := s.customerRepo.ListCustomers(ctx, false)
	if err != nil {
		s.LogError(ctx, err, "Failed to list customers for reconciliation")
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	results := make([]domain.ReconciliationResult, 0, len(customers))
	changed := 0
	for _, c := range customers {
		// Stop between customers; finished ones are already committed
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := domain.ReconciliationResult{CustomerID: c.CustomerID, CustomerName: c.Name}
		// One transaction per customer, a failure here does not stop the rest
		previous, balance, err := s.recompute(ctx, c.CustomerID)
		if err != nil {
			result.PreviousBalance = c.OutstandingBalance
			result.OutstandingBalance = c.OutstandingBalance
			result.Error = err.Error()
		} else {
			result.PreviousBalance = previous
			result.OutstandingBalance = balance
			result.Changed = !previous.Equal(balance)
			if result.Changed {
				changed++
			}
		}
		results = append(results, result)
	}

	s.LogInfo(ctx, "Reconciled all customers", slog.Int("customers", len(results)), slog.Int("changed", changed))
	return results, nil
}
