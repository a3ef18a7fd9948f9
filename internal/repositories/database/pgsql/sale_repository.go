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
	"github.com/SscSPs/dairy_billing_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	saleColumns = `sale_id, customer_id, customer_name, payment_method, sale_date, total_amount, paid_amount,
	created_at, created_by, last_updated_at, last_updated_by`
	saleOrder = `ORDER BY sale_date, created_at, sale_id`
)

type PgxSaleRepository struct {
	BaseRepository
}

// newPgxSaleRepository creates a new repository for sale data.
func newPgxSaleRepository(pool *pgxpool.Pool) portsrepo.SaleRepositoryFacade {
	return &PgxSaleRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.SaleRepositoryFacade = (*PgxSaleRepository)(nil)

func scanSale(row pgx.Row) (models.Sale, error) {
	var s models.Sale
	err := row.Scan(
		&s.SaleID,
		&s.CustomerID,
		&s.CustomerName,
		&s.PaymentMethod,
		&s.SaleDate,
		&s.TotalAmount,
		&s.PaidAmount,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	return s, err
}

// querySales runs a sale query and attaches items, preserving the query order.
func (r *PgxSaleRepository) querySales(ctx context.Context, query string, args ...any) ([]domain.SaleRecord, error) {
	rows, err := r.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	modelSales, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Sale, error) {
		return scanSale(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sales: %w", err)
	}
	return r.attachItems(ctx, modelSales)
}

func (r *PgxSaleRepository) attachItems(ctx context.Context, modelSales []models.Sale) ([]domain.SaleRecord, error) {
	result := make([]domain.SaleRecord, 0, len(modelSales))
	if len(modelSales) == 0 {
		return result, nil
	}

	ids := make([]string, len(modelSales))
	for i, s := range modelSales {
		ids[i] = s.SaleID
	}

	query := `SELECT sale_id, line_no, product_id, product_name, unit, quantity, unit_price, line_total
		FROM sale_items WHERE sale_id = ANY($1) ORDER BY sale_id, line_no`
	rows, err := r.querier(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SaleItem, error) {
		var it models.SaleItem
		err := row.Scan(&it.SaleID, &it.LineNo, &it.ProductID, &it.ProductName, &it.Unit, &it.Quantity, &it.UnitPrice, &it.LineTotal)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sale items: %w", err)
	}

	bySale := make(map[string][]models.SaleItem, len(modelSales))
	for _, it := range items {
		bySale[it.SaleID] = append(bySale[it.SaleID], it)
	}
	for _, s := range modelSales {
		result = append(result, mapping.ToDomainSale(s, bySale[s.SaleID]))
	}
	return result, nil
}

// FindSaleByID retrieves one sale with its items.
func (r *PgxSaleRepository) FindSaleByID(ctx context.Context, saleID string) (*domain.SaleRecord, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE sale_id = $1`
	m, err := scanSale(r.querier(ctx).QueryRow(ctx, query, saleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find sale %s: %w", saleID, err)
	}
	sales, err := r.attachItems(ctx, []models.Sale{m})
	if err != nil {
		return nil, err
	}
	return &sales[0], nil
}

func (r *PgxSaleRepository) FindSalesByIDs(ctx context.Context, saleIDs []string) ([]domain.SaleRecord, error) {
	if len(saleIDs) == 0 {
		return []domain.SaleRecord{}, nil
	}
	query := `SELECT ` + saleColumns + ` FROM sales WHERE sale_id = ANY($1) ` + saleOrder
	return r.querySales(ctx, query, saleIDs)
}

// RecordsForPeriod filters on the half-open period range so the sale_date index applies.
func (r *PgxSaleRepository) RecordsForPeriod(ctx context.Context, customerID *string, period domain.Period) ([]domain.SaleRecord, error) {
	query := `SELECT ` + saleColumns + ` FROM sales
		WHERE customer_id IS NOT NULL
		  AND sale_date >= $1 AND sale_date < $2
		  AND ($3::text IS NULL OR customer_id = $3)
		` + saleOrder
	return r.querySales(ctx, query, period.Start(), period.End(), customerID)
}

func (r *PgxSaleRepository) ListSalesByCustomer(ctx context.Context, customerID string) ([]domain.SaleRecord, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE customer_id = $1 ` + saleOrder
	return r.querySales(ctx, query, customerID)
}

// ListSales pages newest first with keyset pagination on (sale_date, created_at, sale_id).
func (r *PgxSaleRepository) ListSales(ctx context.Context, customerID *string, limit int, nextToken *string) ([]domain.SaleRecord, *string, error) {
	var cursorDate, cursorCreated *time.Time
	var cursorID *string
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursorDate, cursorCreated, cursorID = &c.SortDate, &c.CreatedAt, &c.ID
	}

	query := `SELECT ` + saleColumns + ` FROM sales
		WHERE ($1::text IS NULL OR customer_id = $1)
		  AND ($2::timestamptz IS NULL OR (sale_date, created_at, sale_id) < ($2, $3, $4))
		ORDER BY sale_date DESC, created_at DESC, sale_id DESC
		LIMIT $5`
	sales, err := r.querySales(ctx, query, customerID, cursorDate, cursorCreated, cursorID, limit+1)
	if err != nil {
		return nil, nil, err
	}

	var token *string
	if len(sales) > limit {
		sales = sales[:limit]
		last := sales[len(sales)-1]
		t := pagination.EncodeToken(last.SaleDate, last.CreatedAt, last.SaleID)
		token = &t
	}
	return sales, token, nil
}

// SaveSale inserts the sale row and its items in one batch.
func (r *PgxSaleRepository) SaveSale(ctx context.Context, sale domain.SaleRecord) error {
	m, items := mapping.ToModelSale(sale)

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.SaleID,
		m.CustomerID,
		m.CustomerName,
		m.PaymentMethod,
		m.SaleDate,
		m.TotalAmount,
		m.PaidAmount,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	for _, it := range items {
		batch.Queue(`INSERT INTO sale_items (sale_id, line_no, product_id, product_name, unit, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.SaleID, it.LineNo, it.ProductID, it.ProductName, it.Unit, it.Quantity, it.UnitPrice, it.LineTotal)
	}

	br := r.querier(ctx).SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			if errors.Is(mapWriteError(err), apperrors.ErrConflict) {
				return fmt.Errorf("%w: sale %s", apperrors.ErrDuplicate, m.SaleID)
			}
			return fmt.Errorf("failed to insert sale %s: %w", m.SaleID, err)
		}
	}
	return nil
}

// UpdateSalePaidAmount only ever raises the paid amount, never above the total.
func (r *PgxSaleRepository) UpdateSalePaidAmount(ctx context.Context, saleID string, paidAmount decimal.Decimal, userID string, at time.Time) error {
	query := `UPDATE sales SET paid_amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE sale_id = $1 AND paid_amount <= $2 AND total_amount >= $2`
	tag, err := r.querier(ctx).Exec(ctx, query, saleID, paidAmount, at, userID)
	if err != nil {
		return fmt.Errorf("failed to update paid amount for sale %s: %w", saleID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.FindSaleByID(ctx, saleID); err != nil {
		return err
	}
	return fmt.Errorf("%w: paid amount for sale %s cannot move to %s", apperrors.ErrConflict, saleID, paidAmount.StringFixed(2))
}

// DeleteSale removes a sale; its items cascade.
func (r *PgxSaleRepository) DeleteSale(ctx context.Context, saleID string) error {
	tag, err := r.querier(ctx).Exec(ctx, `DELETE FROM sales WHERE sale_id = $1`, saleID)
	if err != nil {
		if errors.Is(mapWriteError(err), apperrors.ErrConflict) {
			return fmt.Errorf("%w: sale %s is referenced by a statement", apperrors.ErrConflict, saleID)
		}
		return fmt.Errorf("failed to delete sale %s: %w", saleID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
