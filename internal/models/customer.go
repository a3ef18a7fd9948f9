package models

import "github.com/shopspring/decimal"

// Customer represents a row of the customers table.
type Customer struct {
	CustomerID         string          `db:"customer_id"`
	Name               string          `db:"name"`
	Phone              string          `db:"phone"`
	Address            string          `db:"address"`
	Email              string          `db:"email"`
	CreditLimit        decimal.Decimal `db:"credit_limit"`
	OutstandingBalance decimal.Decimal `db:"outstanding_balance"`
	IsActive           bool            `db:"is_active"`
	AuditFields
}
