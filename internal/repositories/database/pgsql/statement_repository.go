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
)

const statementColumns = `statement_id, customer_id, customer_name, period_month, period_year,
	total_sales, total_paid, balance_due, sales_count, content_hash,
	notification_status, notification_error, notified_at, generated_at, version,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxStatementRepository struct {
	BaseRepository
}

// newPgxStatementRepository creates a new repository for statement data.
func newPgxStatementRepository(pool *pgxpool.Pool) portsrepo.StatementRepositoryFacade {
	return &PgxStatementRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.StatementRepositoryFacade = (*PgxStatementRepository)(nil)

func scanStatement(row pgx.Row) (models.Statement, error) {
	var s models.Statement
	err := row.Scan(
		&s.StatementID,
		&s.CustomerID,
		&s.CustomerName,
		&s.PeriodMonth,
		&s.PeriodYear,
		&s.TotalSales,
		&s.TotalPaid,
		&s.BalanceDue,
		&s.SalesCount,
		&s.ContentHash,
		&s.NotificationStatus,
		&s.NotificationError,
		&s.NotifiedAt,
		&s.GeneratedAt,
		&s.Version,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	return s, err
}

func (r *PgxStatementRepository) queryStatements(ctx context.Context, withLines bool, query string, args ...any) ([]domain.Statement, error) {
	rows, err := r.querier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer rows.Close()

	modelStatements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Statement, error) {
		return scanStatement(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan statements: %w", err)
	}

	linesByStatement := map[string][]models.StatementLine{}
	if withLines && len(modelStatements) > 0 {
		ids := make([]string, len(modelStatements))
		for i, s := range modelStatements {
			ids[i] = s.StatementID
		}
		linesByStatement, err = r.loadLines(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	result := make([]domain.Statement, 0, len(modelStatements))
	for _, s := range modelStatements {
		var lines []models.StatementLine
		if withLines {
			lines = linesByStatement[s.StatementID]
			if lines == nil {
				lines = []models.StatementLine{}
			}
		}
		result = append(result, mapping.ToDomainStatement(s, lines))
	}
	return result, nil
}

func (r *PgxStatementRepository) loadLines(ctx context.Context, statementIDs []string) (map[string][]models.StatementLine, error) {
	query := `SELECT statement_id, sale_id, sale_date, billed_amount, paid_amount
		FROM statement_lines WHERE statement_id = ANY($1)
		ORDER BY statement_id, line_no`
	rows, err := r.querier(ctx).Query(ctx, query, statementIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement lines: %w", err)
	}
	defer rows.Close()

	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StatementLine, error) {
		var l models.StatementLine
		err := row.Scan(&l.StatementID, &l.SaleID, &l.SaleDate, &l.BilledAmount, &l.PaidAmount)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan statement lines: %w", err)
	}

	result := make(map[string][]models.StatementLine, len(statementIDs))
	for _, l := range lines {
		result[l.StatementID] = append(result[l.StatementID], l)
	}
	return result, nil
}

// FindStatementByID retrieves a statement with its lines.
func (r *PgxStatementRepository) FindStatementByID(ctx context.Context, statementID string) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE statement_id = $1`
	stmts, err := r.queryStatements(ctx, true, query, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to find statement %s: %w", statementID, err)
	}
	if len(stmts) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &stmts[0], nil
}

func (r *PgxStatementRepository) FindStatementsByCustomerPeriod(ctx context.Context, customerID string, period domain.Period) ([]domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements
		WHERE customer_id = $1 AND period_year = $2 AND period_month = $3`
	return r.queryStatements(ctx, true, query, customerID, period.Year, period.Month)
}

func (r *PgxStatementRepository) ListStatementsByPeriod(ctx context.Context, period domain.Period) ([]domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements
		WHERE period_year = $1 AND period_month = $2
		ORDER BY customer_name, customer_id`
	return r.queryStatements(ctx, false, query, period.Year, period.Month)
}

func (r *PgxStatementRepository) ListStatementsByCustomer(ctx context.Context, customerID string) ([]domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements
		WHERE customer_id = $1
		ORDER BY period_year DESC, period_month DESC`
	return r.queryStatements(ctx, true, query, customerID)
}

func (r *PgxStatementRepository) IsSaleBilled(ctx context.Context, saleID string) (bool, error) {
	var billed bool
	err := r.querier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM statement_lines WHERE sale_id = $1)`, saleID).Scan(&billed)
	if err != nil {
		return false, fmt.Errorf("failed to check billing state of sale %s: %w", saleID, err)
	}
	return billed, nil
}

func queueLines(batch *pgx.Batch, lines []models.StatementLine) {
	for i, l := range lines {
		batch.Queue(`INSERT INTO statement_lines (statement_id, line_no, sale_id, sale_date, billed_amount, paid_amount)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			l.StatementID, i+1, l.SaleID, l.SaleDate, l.BilledAmount, l.PaidAmount)
	}
}

func (r *PgxStatementRepository) execBatch(ctx context.Context, batch *pgx.Batch) error {
	br := r.querier(ctx).SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertStatement relies on the (customer_id, period_year, period_month) unique index.
func (r *PgxStatementRepository) InsertStatement(ctx context.Context, statement domain.Statement) error {
	m, lines := mapping.ToModelStatement(statement)

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO statements (`+statementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		m.StatementID,
		m.CustomerID,
		m.CustomerName,
		m.PeriodMonth,
		m.PeriodYear,
		m.TotalSales,
		m.TotalPaid,
		m.BalanceDue,
		m.SalesCount,
		m.ContentHash,
		m.NotificationStatus,
		m.NotificationError,
		m.NotifiedAt,
		m.GeneratedAt,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	queueLines(batch, lines)

	if err := r.execBatch(ctx, batch); err != nil {
		mapped := mapWriteError(err)
		if errors.Is(mapped, apperrors.ErrConflict) {
			return fmt.Errorf("%w: statement already exists for customer %s period %s",
				apperrors.ErrConflict, m.CustomerID, statement.Period)
		}
		return fmt.Errorf("failed to insert statement %s: %w", m.StatementID, mapped)
	}
	return nil
}

// ReplaceStatement is a compare-and-set on version. Lines are rewritten wholesale.
func (r *PgxStatementRepository) ReplaceStatement(ctx context.Context, statement domain.Statement, expectedVersion int) error {
	m, lines := mapping.ToModelStatement(statement)

	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		tag, err := r.querier(ctx).Exec(ctx, `UPDATE statements SET
				customer_name = $3, total_sales = $4, total_paid = $5, balance_due = $6,
				sales_count = $7, content_hash = $8, notification_status = $9,
				notification_error = $10, notified_at = $11, generated_at = $12,
				version = version + 1, last_updated_at = $13, last_updated_by = $14
			WHERE statement_id = $1 AND version = $2`,
			m.StatementID, expectedVersion,
			m.CustomerName, m.TotalSales, m.TotalPaid, m.BalanceDue,
			m.SalesCount, m.ContentHash, m.NotificationStatus,
			m.NotificationError, m.NotifiedAt, m.GeneratedAt,
			m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to replace statement %s: %w", m.StatementID, mapWriteError(err))
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := r.querier(ctx).QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM statements WHERE statement_id = $1)`, m.StatementID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check statement %s: %w", m.StatementID, err)
			}
			if !exists {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("%w: statement %s is no longer at version %d",
				apperrors.ErrConflict, m.StatementID, expectedVersion)
		}

		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM statement_lines WHERE statement_id = $1`, m.StatementID)
		queueLines(batch, lines)
		if err := r.execBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to rewrite lines of statement %s: %w", m.StatementID, mapWriteError(err))
		}
		return nil
	})
}

// UpdateNotificationStatus writes a delivery outcome unless the statement was
// regenerated with different content in the meantime.
func (r *PgxStatementRepository) UpdateNotificationStatus(ctx context.Context, statementID string, contentHash string, status domain.NotificationStatus, errMsg string, at time.Time) (*domain.Statement, error) {
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		var storedHash string
		err := r.querier(ctx).QueryRow(ctx,
			`SELECT content_hash FROM statements WHERE statement_id = $1 FOR UPDATE`, statementID).Scan(&storedHash)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to lock statement %s: %w", statementID, err)
		}
		if storedHash != contentHash {
			return fmt.Errorf("%w: statement %s was regenerated during delivery", apperrors.ErrConflict, statementID)
		}

		_, err = r.querier(ctx).Exec(ctx, `UPDATE statements SET
				notification_status = $2, notification_error = $3, notified_at = $4,
				last_updated_at = $4, version = version + 1
			WHERE statement_id = $1`,
			statementID, string(status), errMsg, at)
		if err != nil {
			return fmt.Errorf("failed to update notification status of statement %s: %w", statementID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindStatementByID(ctx, statementID)
}
