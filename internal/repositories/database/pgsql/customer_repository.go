package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	"github.com/SscSPs/dairy_billing_app/internal/models"
	"github.com/SscSPs/dairy_billing_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const customerColumns = `customer_id, name, phone, address, email, credit_limit, outstanding_balance, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxCustomerRepository struct {
	BaseRepository
}

// newPgxCustomerRepository creates a new repository for customer data.
func newPgxCustomerRepository(pool *pgxpool.Pool) portsrepo.CustomerRepositoryFacade {
	return &PgxCustomerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.CustomerRepositoryFacade = (*PgxCustomerRepository)(nil)

func scanCustomer(row pgx.Row) (models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.CustomerID,
		&c.Name,
		&c.Phone,
		&c.Address,
		&c.Email,
		&c.CreditLimit,
		&c.OutstandingBalance,
		&c.IsActive,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	return c, err
}

func (r *PgxCustomerRepository) findCustomer(ctx context.Context, customerID string, forUpdate bool) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	m, err := scanCustomer(r.querier(ctx).QueryRow(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer %s: %w", customerID, err)
	}
	c := mapping.ToDomainCustomer(m)
	return &c, nil
}

// FindCustomerByID retrieves a customer by its ID.
func (r *PgxCustomerRepository) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	return r.findCustomer(ctx, customerID, false)
}

// FindCustomerForUpdate takes a row lock held until the surrounding transaction ends.
func (r *PgxCustomerRepository) FindCustomerForUpdate(ctx context.Context, customerID string) (*domain.Customer, error) {
	return r.findCustomer(ctx, customerID, true)
}

// ListCustomers retrieves customers ordered by name.
func (r *PgxCustomerRepository) ListCustomers(ctx context.Context, activeOnly bool) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY name, customer_id`
	rows, err := r.querier(ctx).Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	modelCustomers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Customer, error) {
		return scanCustomer(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan customers: %w", err)
	}
	return mapping.ToDomainCustomerSlice(modelCustomers), nil
}

// SaveCustomer inserts a new customer.
func (r *PgxCustomerRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	m := mapping.ToModelCustomer(customer)
	query := `INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.querier(ctx).Exec(ctx, query,
		m.CustomerID,
		m.Name,
		m.Phone,
		m.Address,
		m.Email,
		m.CreditLimit,
		m.OutstandingBalance,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(mapWriteError(err), apperrors.ErrConflict) {
			return fmt.Errorf("%w: customer %s", apperrors.ErrDuplicate, m.CustomerID)
		}
		return fmt.Errorf("failed to insert customer %s: %w", m.CustomerID, err)
	}
	return nil
}

// UpdateOutstandingBalance overwrites the balance projection.
func (r *PgxCustomerRepository) UpdateOutstandingBalance(ctx context.Context, customerID string, balance decimal.Decimal, at time.Time) error {
	query := `UPDATE customers SET outstanding_balance = $2, last_updated_at = $3 WHERE customer_id = $1`
	tag, err := r.querier(ctx).Exec(ctx, query, customerID, balance, at)
	if err != nil {
		return fmt.Errorf("failed to update balance for customer %s: %w", customerID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
