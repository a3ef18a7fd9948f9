package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement represents a row of the statements table.
type Statement struct {
	StatementID        string          `db:"statement_id"`
	CustomerID         string          `db:"customer_id"`
	CustomerName       string          `db:"customer_name"`
	PeriodMonth        int             `db:"period_month"`
	PeriodYear         int             `db:"period_year"`
	TotalSales         decimal.Decimal `db:"total_sales"`
	TotalPaid          decimal.Decimal `db:"total_paid"`
	BalanceDue         decimal.Decimal `db:"balance_due"`
	SalesCount         int             `db:"sales_count"`
	ContentHash        string          `db:"content_hash"`
	NotificationStatus string          `db:"notification_status"`
	NotificationError  string          `db:"notification_error"`
	NotifiedAt         *time.Time      `db:"notified_at"`
	GeneratedAt        time.Time       `db:"generated_at"`
	Version            int             `db:"version"`
	AuditFields
}

// StatementLine represents a row of the statement_lines table.
type StatementLine struct {
	StatementID  string          `db:"statement_id"`
	SaleID       string          `db:"sale_id"`
	SaleDate     time.Time       `db:"sale_date"`
	BilledAmount decimal.Decimal `db:"billed_amount"`
	PaidAmount   decimal.Decimal `db:"paid_amount"`
}
