package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/core/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

var march = domain.NewPeriod(3, 2024)

// fixture wires real services over the in-memory store.
type fixture struct {
	store      *memory.Store
	repos      portsrepo.RepositoryProvider
	reconciler portssvc.ReconcilerSvc
	customers  portssvc.CustomerSvcFacade
	sales      portssvc.SaleSvcFacade
	billing    portssvc.BillingSvcFacade
}

func newFixture(options ...services.BillingServiceOption) *fixture {
	store := memory.New()
	return newFixtureWithRepos(store, memory.NewRepositoryProvider(store), options...)
}

func newFixtureWithRepos(store *memory.Store, repos portsrepo.RepositoryProvider, options ...services.BillingServiceOption) *fixture {
	reconciler := services.NewReconcilerService(repos)
	return &fixture{
		store:      store,
		repos:      repos,
		reconciler: reconciler,
		customers:  services.NewCustomerService(repos.CustomerRepo),
		sales:      services.NewSaleService(repos, reconciler),
		billing:    services.NewBillingService(repos, reconciler, options...),
	}
}

func (f *fixture) addCustomer(t *testing.T, name string) string {
	t.Helper()
	c, err := f.customers.CreateCustomer(context.Background(), dto.CreateCustomerRequest{
		Name:  name,
		Phone: "9000000000",
		Email: "owner@example.com",
	}, testUserID)
	require.NoError(t, err)
	return c.CustomerID
}

func (f *fixture) addSale(t *testing.T, customerID, date, total, paid string) *domain.SaleRecord {
	t.Helper()
	sale, err := f.sales.CreateSale(context.Background(), dto.CreateSaleRequest{
		CustomerID: customerID,
		SaleDate:   date,
		Items: []dto.SaleItemRequest{{
			ProductID:   "milk-1l",
			ProductName: "Toned Milk",
			Unit:        "litre",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString(total),
		}},
		PaidAmount: decimal.RequireFromString(paid),
	}, testUserID)
	require.NoError(t, err)
	return sale
}

func (f *fixture) generate(t *testing.T, period domain.Period, force bool) *domain.GenerationReport {
	t.Helper()
	report, err := f.billing.GenerateBills(context.Background(), dto.GenerateBillsRequest{
		Month: period.Month,
		Year:  period.Year,
		Force: force,
	}, testUserID)
	require.NoError(t, err)
	return report
}

func (f *fixture) balance(t *testing.T, customerID string) decimal.Decimal {
	t.Helper()
	c, err := f.repos.CustomerRepo.FindCustomerByID(context.Background(), customerID)
	require.NoError(t, err)
	return c.OutstandingBalance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Mock StatementDispatcher ---
type MockStatementDispatcher struct {
	mock.Mock
}

var _ portssvc.StatementDispatcher = (*MockStatementDispatcher)(nil)

func (m *MockStatementDispatcher) Send(ctx context.Context, msg domain.StatementMessage) domain.DeliveryOutcome {
	args := m.Called(ctx, msg)
	if fn, ok := args.Get(0).(func(context.Context) domain.DeliveryOutcome); ok {
		return fn(ctx)
	}
	return args.Get(0).(domain.DeliveryOutcome)
}

// --- Mock StatementExporter ---
type MockStatementExporter struct {
	mock.Mock
}

var _ portssvc.StatementExporter = (*MockStatementExporter)(nil)

func (m *MockStatementExporter) Export(detail domain.StatementDetail, format domain.ExportFormat) (*domain.StatementDocument, error) {
	args := m.Called(detail, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StatementDocument), args.Error(1)
}

// blockUntilDone is a dispatcher behaviour that never answers on its own.
func blockUntilDone(ctx context.Context) domain.DeliveryOutcome {
	<-ctx.Done()
	return domain.DeliveryFailure(domain.DeliveryFailed, "context done")
}

var fixedNow = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
