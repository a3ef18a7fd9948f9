package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SaleReader is the ledger query surface used by billing.
type SaleReader interface {
	// FindSaleByID retrieves one sale with its items.
	FindSaleByID(ctx context.Context, saleID string) (*domain.SaleRecord, error)

	// FindSalesByIDs retrieves the given sales ordered by date. Missing ids are skipped.
	FindSalesByIDs(ctx context.Context, saleIDs []string) ([]domain.SaleRecord, error)

	// RecordsForPeriod returns registered-customer sales dated inside period,
	// optionally for a single customer, ordered by sale date, creation time and id.
	// Guest sales are never returned.
	RecordsForPeriod(ctx context.Context, customerID *string, period domain.Period) ([]domain.SaleRecord, error)

	// ListSalesByCustomer returns every sale of a customer across all periods.
	ListSalesByCustomer(ctx context.Context, customerID string) ([]domain.SaleRecord, error)

	// ListSales pages through sales newest first. A nil customerID lists all sales, guests included.
	ListSales(ctx context.Context, customerID *string, limit int, nextToken *string) ([]domain.SaleRecord, *string, error)
}

// SaleWriter defines write operations for the ledger.
type SaleWriter interface {
	// SaveSale persists a new sale and its items.
	SaveSale(ctx context.Context, sale domain.SaleRecord) error

	// UpdateSalePaidAmount raises the paid amount. Storage refuses decreases and
	// amounts above the billed total with apperrors.ErrConflict.
	UpdateSalePaidAmount(ctx context.Context, saleID string, paidAmount decimal.Decimal, userID string, at time.Time) error

	// DeleteSale removes a sale and its items.
	DeleteSale(ctx context.Context, saleID string) error
}

// SaleRepositoryFacade combines all sale-related repository interfaces
type SaleRepositoryFacade interface {
	SaleReader
	SaleWriter
}
