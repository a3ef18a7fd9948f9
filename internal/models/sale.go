package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale represents a row of the sales table. CustomerID is NULL for guest sales.
type Sale struct {
	SaleID        string          `db:"sale_id"`
	CustomerID    *string         `db:"customer_id"`
	CustomerName  string          `db:"customer_name"`
	PaymentMethod string          `db:"payment_method"`
	SaleDate      time.Time       `db:"sale_date"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	PaidAmount    decimal.Decimal `db:"paid_amount"`
	AuditFields
}

// SaleItem represents a row of the sale_items table.
type SaleItem struct {
	SaleID      string          `db:"sale_id"`
	LineNo      int             `db:"line_no"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Unit        string          `db:"unit"`
	Quantity    decimal.Decimal `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	LineTotal   decimal.Decimal `db:"line_total"`
}
