package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotificationStatus tracks whether a statement was delivered to the customer.
type NotificationStatus string

const (
	NotificationNotSent NotificationStatus = "NOT_SENT"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
)

// StatementLine freezes one included sale at generation time.
type StatementLine struct {
	SaleID       string          `json:"saleID"`
	SaleDate     time.Time       `json:"saleDate"`
	BilledAmount decimal.Decimal `json:"billedAmount"`
	PaidAmount   decimal.Decimal `json:"paidAmount"`
}

// StatementTotals is the aggregate of a customer's sales for a period.
type StatementTotals struct {
	TotalSales  decimal.Decimal
	TotalPaid   decimal.Decimal
	BalanceDue  decimal.Decimal
	SalesCount  int
	ContentHash string
	Lines       []StatementLine
}

// Statement is the monthly bill for one customer.
// At most one exists per (CustomerID, Period). Version increases on every replace.
type Statement struct {
	StatementID        string             `json:"statementID"`
	CustomerID         string             `json:"customerID"`
	CustomerName       string             `json:"customerName"`
	Period             Period             `json:"period"`
	TotalSales         decimal.Decimal    `json:"totalSales"`
	TotalPaid          decimal.Decimal    `json:"totalPaid"`
	BalanceDue         decimal.Decimal    `json:"balanceDue"`
	SalesCount         int                `json:"salesCount"`
	ContentHash        string             `json:"contentHash"`
	NotificationStatus NotificationStatus `json:"notificationStatus"`
	NotificationError  string             `json:"notificationError,omitempty"`
	NotifiedAt         *time.Time         `json:"notifiedAt,omitempty"`
	GeneratedAt        time.Time          `json:"generatedAt"`
	Version            int                `json:"version"`
	Lines              []StatementLine    `json:"lines,omitempty"`
	AuditFields
}

// IsLocked reports whether the statement was delivered and must not be silently regenerated.
func (s Statement) IsLocked() bool {
	return s.NotificationStatus == NotificationSent
}

// HasSameContent reports whether recomputed totals match what is stored.
func (s Statement) HasSameContent(t StatementTotals) bool {
	return s.ContentHash == t.ContentHash &&
		s.SalesCount == t.SalesCount &&
		s.TotalSales.Equal(t.TotalSales) &&
		s.TotalPaid.Equal(t.TotalPaid) &&
		s.BalanceDue.Equal(t.BalanceDue)
}

// ApplyTotals overwrites the aggregate fields with t.
func (s *Statement) ApplyTotals(t StatementTotals) {
	s.TotalSales = t.TotalSales
	s.TotalPaid = t.TotalPaid
	s.BalanceDue = t.BalanceDue
	s.SalesCount = t.SalesCount
	s.ContentHash = t.ContentHash
	s.Lines = t.Lines
}

// Covers reports whether the sale is frozen into this statement.
func (s Statement) Covers(saleID string) bool {
	for _, l := range s.Lines {
		if l.SaleID == saleID {
			return true
		}
	}
	return false
}

// StatementDetail is a statement together with the current state of the sales it aggregates.
type StatementDetail struct {
	Statement Statement
	Customer  *Customer
	Sales     []SaleRecord
}

// PaymentAllocation is the share of a statement payment applied to one sale.
type PaymentAllocation struct {
	SaleID string          `json:"saleID"`
	Amount decimal.Decimal `json:"amount"`
}

// StatementPaymentResult describes a payment applied against a statement.
type StatementPaymentResult struct {
	Statement          Statement
	Allocations        []PaymentAllocation
	Outcome            GenerationOutcome
	OutstandingBalance decimal.Decimal
}

// ExportFormat is a document format for statement export.
type ExportFormat string

const (
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// StatementDocument is a rendered statement file.
type StatementDocument struct {
	Filename    string
	ContentType string
	Content     []byte
}
