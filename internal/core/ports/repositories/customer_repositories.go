package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CustomerReader defines read operations for customer data
type CustomerReader interface {
	// FindCustomerByID retrieves a customer, returning apperrors.ErrNotFound if missing.
	FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)

	// FindCustomerForUpdate retrieves a customer and locks it for the rest of the
	// surrounding transaction. Billing work for one customer serializes on this lock.
	FindCustomerForUpdate(ctx context.Context, customerID string) (*domain.Customer, error)

	// ListCustomers retrieves customers ordered by name.
	ListCustomers(ctx context.Context, activeOnly bool) ([]domain.Customer, error)
}

// CustomerWriter defines write operations for customer data
type CustomerWriter interface {
	// SaveCustomer persists a new customer.
	SaveCustomer(ctx context.Context, customer domain.Customer) error

	// UpdateOutstandingBalance overwrites the cached balance projection.
	// Only the balance reconciler calls this.
	UpdateOutstandingBalance(ctx context.Context, customerID string, balance decimal.Decimal, at time.Time) error
}

// CustomerRepositoryFacade combines all customer-related repository interfaces
type CustomerRepositoryFacade interface {
	CustomerReader
	CustomerWriter
}
