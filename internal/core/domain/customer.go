package domain

import "github.com/shopspring/decimal"

// DefaultCreditLimit is applied when a customer is created without one.
var DefaultCreditLimit = decimal.NewFromInt(5000)

// Customer is a registered buyer who can be billed monthly.
// OutstandingBalance is a projection owned by the balance reconciler.
type Customer struct {
	CustomerID         string          `json:"customerID"`
	Name               string          `json:"name"`
	Phone              string          `json:"phone"`
	Address            string          `json:"address"`
	Email              string          `json:"email,omitempty"`
	CreditLimit        decimal.Decimal `json:"creditLimit"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	IsActive           bool            `json:"isActive"`
	AuditFields
}

// OverCreditLimit reports whether the cached balance exceeds the advisory limit.
func (c Customer) OverCreditLimit() bool {
	return c.CreditLimit.IsPositive() && c.OutstandingBalance.GreaterThan(c.CreditLimit)
}
