package handlers_test

import (
	"context"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock BillingService ---
type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) GenerateBills(ctx context.Context, req dto.GenerateBillsRequest, userID string) (*domain.GenerationReport, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationReport), args.Error(1)
}
func (m *MockBillingService) ListStatementsForPeriod(ctx context.Context, period domain.Period) ([]domain.Statement, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Statement), args.Error(1)
}
func (m *MockBillingService) ListStatementsForCustomer(ctx context.Context, customerID string) ([]domain.Statement, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Statement), args.Error(1)
}
func (m *MockBillingService) GetStatement(ctx context.Context, statementID string) (*domain.StatementDetail, error) {
	args := m.Called(ctx, statementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatementDetail), args.Error(1)
}
func (m *MockBillingService) RecordStatementPayment(ctx context.Context, statementID string, req dto.StatementPaymentRequest, userID string) (*domain.StatementPaymentResult, error) {
	args := m.Called(ctx, statementID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatementPaymentResult), args.Error(1)
}
func (m *MockBillingService) ExportStatement(ctx context.Context, statementID string, format domain.ExportFormat) (*domain.StatementDocument, error) {
	args := m.Called(ctx, statementID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatementDocument), args.Error(1)
}

var _ portssvc.BillingSvcFacade = (*MockBillingService)(nil)

// --- Mock NotificationService ---
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendStatement(ctx context.Context, req dto.SendNotificationRequest, userID string) (*domain.NotificationResult, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationResult), args.Error(1)
}

var _ portssvc.NotificationSvc = (*MockNotificationService)(nil)

// --- Mock SaleService ---
type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) GetSale(ctx context.Context, saleID string) (*domain.SaleRecord, error) {
	args := m.Called(ctx, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaleRecord), args.Error(1)
}
func (m *MockSaleService) ListSales(ctx context.Context, params dto.ListSalesParams) (*dto.ListSalesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListSalesResponse), args.Error(1)
}
func (m *MockSaleService) CreateSale(ctx context.Context, req dto.CreateSaleRequest, userID string) (*domain.SaleRecord, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaleRecord), args.Error(1)
}
func (m *MockSaleService) CreateGuestSale(ctx context.Context, req dto.CreateGuestSaleRequest, userID string) (*domain.SaleRecord, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaleRecord), args.Error(1)
}
func (m *MockSaleService) RecordSalePayment(ctx context.Context, saleID string, req dto.RecordSalePaymentRequest, userID string) (*domain.SaleRecord, error) {
	args := m.Called(ctx, saleID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaleRecord), args.Error(1)
}
func (m *MockSaleService) DeleteSale(ctx context.Context, saleID string, userID string) error {
	args := m.Called(ctx, saleID, userID)
	return args.Error(0)
}

var _ portssvc.SaleSvcFacade = (*MockSaleService)(nil)

// --- Mock CustomerService ---
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
func (m *MockCustomerService) ListCustomers(ctx context.Context, params dto.ListCustomersParams) ([]domain.Customer, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Customer), args.Error(1)
}
func (m *MockCustomerService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, userID string) (*domain.Customer, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

var _ portssvc.CustomerSvcFacade = (*MockCustomerService)(nil)

// --- Mock ReconcilerService ---
type MockReconcilerService struct {
	mock.Mock
}

func (m *MockReconcilerService) RecomputeOutstanding(ctx context.Context, customerID string) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockReconcilerService) ReconcileAll(ctx context.Context) ([]domain.ReconciliationResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReconciliationResult), args.Error(1)
}

var _ portssvc.ReconcilerSvc = (*MockReconcilerService)(nil)
