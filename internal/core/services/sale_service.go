package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/utils/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type saleService struct {
	BaseService
	txManager     portsrepo.TransactionManager
	customerRepo  portsrepo.CustomerReader
	saleRepo      portsrepo.SaleRepositoryFacade
	statementRepo portsrepo.StatementReader
	reconciler    portssvc.ReconcilerSvc
}

// NewSaleService creates a new SaleSvcFacade.
func NewSaleService(repos portsrepo.RepositoryProvider, reconciler portssvc.ReconcilerSvc) portssvc.SaleSvcFacade {
	return &saleService{
		txManager:     repos.TxManager,
		customerRepo:  repos.CustomerRepo,
		saleRepo:      repos.SaleRepo,
		statementRepo: repos.StatementRepo,
		reconciler:    reconciler,
	}
}

var _ portssvc.SaleSvcFacade = (*saleService)(nil)

func parseSaleDate(raw string) (time.Time, error) {
	d, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: saleDate must be YYYY-MM-DD", apperrors.ErrValidation)
	}
	return d.UTC(), nil
}

func buildItems(reqItems []dto.SaleItemRequest) ([]domain.SaleItem, decimal.Decimal, error) {
	if len(reqItems) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: a sale needs at least one item", apperrors.ErrValidation)
	}
	items := make([]domain.SaleItem, 0, len(reqItems))
	for i, it := range reqItems {
		if err := billing.ValidateQuantity(it.Quantity, fmt.Sprintf("items[%d].quantity", i)); err != nil {
			return nil, decimal.Zero, err
		}
		if err := billing.ValidateMoney(it.UnitPrice, fmt.Sprintf("items[%d].unitPrice", i)); err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, domain.SaleItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   billing.ComputeLineTotal(it.Quantity, it.UnitPrice),
		})
	}
	return items, billing.SaleTotal(items), nil
}

func (s *saleService) CreateSale(ctx context.Context, req dto.CreateSaleRequest, userID string) (*domain.SaleRecord, error) {
	// --- Validation ---
	saleDate, err := parseSaleDate(req.SaleDate)
	if err != nil {
		return nil, err
	}
	// Line totals are always computed here, never taken from the client
	items, total, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}
	if err := billing.ValidateMoney(req.PaidAmount, "paidAmount"); err != nil {
		return nil, err
	}
	if req.PaidAmount.GreaterThan(total) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrPaymentExceedsTotal)
	}

	// Default the method from how much was paid at the counter
	method := domain.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentMethodCredit
		if req.PaidAmount.Equal(total) {
			method = domain.PaymentMethodCash
		}
	}

	// --- Persistence ---
	var sale domain.SaleRecord
	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		// Lock the customer so generation never sees half of this write
		customer, err := s.customerRepo.FindCustomerForUpdate(ctx, req.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to lock customer %s: %w", req.CustomerID, err)
		}

		customerID := customer.CustomerID
		sale = domain.SaleRecord{
			SaleID:        uuid.NewString(),
			CustomerID:    &customerID,
			CustomerName:  customer.Name,
			PaymentMethod: method,
			SaleDate:      saleDate,
			Items:         items,
			TotalAmount:   total,
			PaidAmount:    req.PaidAmount,
			AuditFields:   domain.NewAuditFields(userID, s.Now()),
		}
		if err := s.saleRepo.SaveSale(ctx, sale); err != nil {
			return fmt.Errorf("failed to save sale: %w", err)
		}
		// Unbilled sales count toward the balance straight away
		_, err = s.reconciler.RecomputeOutstanding(ctx, customerID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create sale", slog.String("customer_id", req.CustomerID))
		return nil, err
	}

	s.LogInfo(ctx, "Sale created",
		slog.String("sale_id", sale.SaleID),
		slog.String("customer_id", req.CustomerID),
		slog.String("total", total.StringFixed(billing.MoneyScale)))
	return &sale, nil
}

// CreateGuestSale stores a counter sale with no customer reference. It is paid
// in full and never enters billing or any balance.
func (s *saleService) CreateGuestSale(ctx context.Context, req dto.CreateGuestSaleRequest, userID string) (*domain.SaleRecord, error) {
	saleDate, err := parseSaleDate(req.SaleDate)
	if err != nil {
		return nil, err
	}
	items, total, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.GuestName)
	if name == "" {
		name = domain.DefaultGuestName
	}
	method := domain.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentMethodCash
	}
	if method == domain.PaymentMethodCredit {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrGuestSale)
	}

	sale := domain.SaleRecord{
		SaleID:        uuid.NewString(),
		CustomerName:  name,
		PaymentMethod: method,
		SaleDate:      saleDate,
		Items:         items,
		TotalAmount:   total,
		PaidAmount:    total,
		AuditFields:   domain.NewAuditFields(userID, s.Now()),
	}
	if err := s.saleRepo.SaveSale(ctx, sale); err != nil {
		s.LogError(ctx, err, "Failed to save guest sale")
		return nil, fmt.Errorf("failed to save guest sale: %w", err)
	}

	s.LogInfo(ctx, "Guest sale created", slog.String("sale_id", sale.SaleID))
	return &sale, nil
}

func (s *saleService) GetSale(ctx context.Context, saleID string) (*domain.SaleRecord, error) {
	sale, err := s.saleRepo.FindSaleByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale %s: %w", saleID, err)
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, params dto.ListSalesParams) (*dto.ListSalesResponse, error) {
	var customerID *string
	if params.CustomerID != "" {
		customerID = &params.CustomerID
	}
	var nextToken *string
	if params.NextToken != "" {
		nextToken = &params.NextToken
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	sales, token, err := s.saleRepo.ListSales(ctx, customerID, limit, nextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list sales")
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return &dto.ListSalesResponse{
		Sales:     dto.ToSaleResponses(sales),
		NextToken: token,
	}, nil
}

// RecordSalePayment sets the new cumulative paid amount. Amounts only grow and
// never pass the billed total.
func (s *saleService) RecordSalePayment(ctx context.Context, saleID string, req dto.RecordSalePaymentRequest, userID string) (*domain.SaleRecord, error) {
	if err := billing.ValidateMoney(req.PaidAmount, "paidAmount"); err != nil {
		return nil, err
	}

	var sale *domain.SaleRecord
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		// First read only finds the owning customer
		found, err := s.saleRepo.FindSaleByID(ctx, saleID)
		if err != nil {
			return fmt.Errorf("failed to get sale %s: %w", saleID, err)
		}
		if found.IsGuest() {
			return fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrGuestSale)
		}
		customerID := *found.CustomerID
		if _, err := s.customerRepo.FindCustomerForUpdate(ctx, customerID); err != nil {
			return fmt.Errorf("failed to lock customer %s: %w", customerID, err)
		}
		// Re-read under the lock; a concurrent payment may have landed in between
		if sale, err = s.saleRepo.FindSaleByID(ctx, saleID); err != nil {
			return fmt.Errorf("failed to get sale %s: %w", saleID, err)
		}

		switch {
		case req.PaidAmount.LessThan(sale.PaidAmount):
			return fmt.Errorf("%w: %w: currently %s", apperrors.ErrValidation, ErrPaymentDecrease, sale.PaidAmount.StringFixed(billing.MoneyScale))
		case req.PaidAmount.GreaterThan(sale.TotalAmount):
			return fmt.Errorf("%w: %w: billed %s", apperrors.ErrValidation, ErrPaymentExceedsTotal, sale.TotalAmount.StringFixed(billing.MoneyScale))
		case req.PaidAmount.Equal(sale.PaidAmount):
			// nothing to write
			return nil
		}

		now := s.Now()
		if err := s.saleRepo.UpdateSalePaidAmount(ctx, saleID, req.PaidAmount, userID, now); err != nil {
			return fmt.Errorf("failed to update paid amount for sale %s: %w", saleID, err)
		}
		sale.PaidAmount = req.PaidAmount
		sale.LastUpdatedAt = now
		sale.LastUpdatedBy = userID

		// Statements are left as they are; the balance takes the payment off
		_, err = s.reconciler.RecomputeOutstanding(ctx, customerID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to record sale payment", slog.String("sale_id", saleID))
		return nil, err
	}

	s.LogInfo(ctx, "Sale payment recorded",
		slog.String("sale_id", saleID),
		slog.String("paid", sale.PaidAmount.StringFixed(billing.MoneyScale)))
	return sale, nil
}

// DeleteSale removes a sale that no statement includes yet.
func (s *saleService) DeleteSale(ctx context.Context, saleID string, userID string) error {
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.FindSaleByID(ctx, saleID)
		if err != nil {
			return fmt.Errorf("failed to get sale %s: %w", saleID, err)
		}
		if !sale.IsGuest() {
			if _, err := s.customerRepo.FindCustomerForUpdate(ctx, *sale.CustomerID); err != nil {
				return fmt.Errorf("failed to lock customer %s: %w", *sale.CustomerID, err)
			}
		}

		// A billed sale is part of a customer's history and stays
		billed, err := s.statementRepo.IsSaleBilled(ctx, saleID)
		if err != nil {
			return fmt.Errorf("failed to check statements for sale %s: %w", saleID, err)
		}
		if billed {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrSaleBilled)
		}

		if err := s.saleRepo.DeleteSale(ctx, saleID); err != nil {
			return fmt.Errorf("failed to delete sale %s: %w", saleID, err)
		}
		if sale.IsGuest() {
			// guest sales never touch a balance
			return nil
		}
		_, err = s.reconciler.RecomputeOutstanding(ctx, *sale.CustomerID)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete sale", slog.String("sale_id", saleID))
		return err
	}

	s.LogInfo(ctx, "Sale deleted", slog.String("sale_id", saleID), slog.String("user_id", userID))
	return nil
}
