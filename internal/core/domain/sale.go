package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultGuestName labels anonymous counter sales.
const DefaultGuestName = "Walk-in Customer"

// PaymentMethod records how a sale was (initially) settled.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCredit PaymentMethod = "credit"
)

// SaleItem is one line of a sale.
type SaleItem struct {
	ProductID   string          `json:"productID"`
	ProductName string          `json:"productName"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// SaleRecord is a completed transaction in the ledger.
// A nil CustomerID marks a guest sale, which never enters billing.
// Only PaidAmount may change after creation, and only upwards.
type SaleRecord struct {
	SaleID        string          `json:"saleID"`
	CustomerID    *string         `json:"customerID,omitempty"`
	CustomerName  string          `json:"customerName"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	SaleDate      time.Time       `json:"saleDate"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	AuditFields
}

// IsGuest reports whether the sale has no customer reference.
func (s SaleRecord) IsGuest() bool {
	return s.CustomerID == nil || *s.CustomerID == ""
}

// IsPaid reports whether the billed amount has been fully paid.
func (s SaleRecord) IsPaid() bool {
	return s.PaidAmount.GreaterThanOrEqual(s.TotalAmount)
}

// Unpaid returns billed minus paid.
func (s SaleRecord) Unpaid() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// BelongsTo reports whether the sale is registered to the given customer.
func (s SaleRecord) BelongsTo(customerID string) bool {
	return !s.IsGuest() && *s.CustomerID == customerID
}
