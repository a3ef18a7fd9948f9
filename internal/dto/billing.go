package dto

import (
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PeriodQuery carries an explicit billing period from the query string.
type PeriodQuery struct {
	Month int `form:"month" binding:"required,min=1,max=12"`
	Year  int `form:"year" binding:"required,min=2000,max=9999"`
}

// GenerateBillsRequest triggers monthly bill generation.
// Force regenerates statements that were already sent.
type GenerateBillsRequest struct {
	Month int  `json:"month" binding:"required,min=1,max=12"`
	Year  int  `json:"year" binding:"required,min=2000,max=9999"`
	Force bool `json:"force"`
}

// StatementPaymentRequest records a payment against a statement.
type StatementPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"300.00"`
}

// SendNotificationRequest asks for a statement to be delivered.
type SendNotificationRequest struct {
	StatementID    string `json:"statementID" binding:"required"`
	RecipientEmail string `json:"recipientEmail"`
}

// ExportStatementQuery selects the export format.
type ExportStatementQuery struct {
	Format string `form:"format,default=pdf" binding:"oneof=pdf xlsx"`
}

// StatementSummaryResponse is one row of the period billing list.
type StatementSummaryResponse struct {
	StatementID        string          `json:"statementID"`
	CustomerID         string          `json:"customerID"`
	CustomerName       string          `json:"customerName"`
	Month              int             `json:"month"`
	Year               int             `json:"year"`
	TotalSales         decimal.Decimal `json:"totalSales" swaggertype:"string"`
	TotalPaid          decimal.Decimal `json:"totalPaid" swaggertype:"string"`
	BalanceDue         decimal.Decimal `json:"balanceDue" swaggertype:"string"`
	SalesCount         int             `json:"salesCount"`
	NotificationStatus string          `json:"notificationStatus"`
	GeneratedAt        time.Time       `json:"generatedAt"`
}

// StatementLineResponse is a frozen sale inside a statement.
type StatementLineResponse struct {
	SaleID       string          `json:"saleID"`
	SaleDate     string          `json:"saleDate"`
	BilledAmount decimal.Decimal `json:"billedAmount" swaggertype:"string"`
	PaidAmount   decimal.Decimal `json:"paidAmount" swaggertype:"string"`
}

// StatementResponse is a full statement.
type StatementResponse struct {
	StatementSummaryResponse
	Version           int                     `json:"version"`
	NotificationError string                  `json:"notificationError,omitempty"`
	NotifiedAt        *time.Time              `json:"notifiedAt,omitempty"`
	Lines             []StatementLineResponse `json:"lines"`
}

// StatementDetailResponse is a statement plus the sales it aggregates.
type StatementDetailResponse struct {
	Statement StatementResponse `json:"statement"`
	Sales     []SaleResponse    `json:"sales"`
}

// GenerationReportResponse is returned by the generate endpoint.
type GenerationReportResponse struct {
	Month     int                       `json:"month"`
	Year      int                       `json:"year"`
	Message   string                    `json:"message"`
	Created   int                       `json:"created"`
	Replaced  int                       `json:"replaced"`
	Unchanged int                       `json:"unchanged"`
	Locked    int                       `json:"locked"`
	Failed    int                       `json:"failed"`
	Results   []domain.GenerationResult `json:"results"`
}

// StatementPaymentResponse describes how a statement payment was applied.
type StatementPaymentResponse struct {
	Statement          StatementResponse          `json:"statement"`
	Outcome            string                     `json:"outcome"`
	Allocations        []domain.PaymentAllocation `json:"allocations"`
	OutstandingBalance decimal.Decimal            `json:"outstandingBalance" swaggertype:"string"`
}

// NotificationResponse is returned after a successful delivery.
type NotificationResponse struct {
	StatementID        string    `json:"statementID"`
	Recipient          string    `json:"recipient"`
	NotificationStatus string    `json:"notificationStatus"`
	ProviderMessageID  string    `json:"providerMessageID,omitempty"`
	NotifiedAt         time.Time `json:"notifiedAt"`
}

// ToStatementSummaryResponse converts a domain.Statement to its summary DTO.
func ToStatementSummaryResponse(s *domain.Statement) StatementSummaryResponse {
	return StatementSummaryResponse{
		StatementID:        s.StatementID,
		CustomerID:         s.CustomerID,
		CustomerName:       s.CustomerName,
		Month:              s.Period.Month,
		Year:               s.Period.Year,
		TotalSales:         s.TotalSales,
		TotalPaid:          s.TotalPaid,
		BalanceDue:         s.BalanceDue,
		SalesCount:         s.SalesCount,
		NotificationStatus: string(s.NotificationStatus),
		GeneratedAt:        s.GeneratedAt,
	}
}

// ToStatementSummaryResponses converts a slice of statements.
func ToStatementSummaryResponses(statements []domain.Statement) []StatementSummaryResponse {
	responses := make([]StatementSummaryResponse, len(statements))
	for i := range statements {
		responses[i] = ToStatementSummaryResponse(&statements[i])
	}
	return responses
}

// ToStatementResponse converts a domain.Statement including its lines.
func ToStatementResponse(s *domain.Statement) StatementResponse {
	lines := make([]StatementLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = StatementLineResponse{
			SaleID:       l.SaleID,
			SaleDate:     l.SaleDate.Format(DateLayout),
			BilledAmount: l.BilledAmount,
			PaidAmount:   l.PaidAmount,
		}
	}
	return StatementResponse{
		StatementSummaryResponse: ToStatementSummaryResponse(s),
		Version:                  s.Version,
		NotificationError:        s.NotificationError,
		NotifiedAt:               s.NotifiedAt,
		Lines:                    lines,
	}
}

// ToStatementDetailResponse converts a statement detail.
func ToStatementDetailResponse(d *domain.StatementDetail) StatementDetailResponse {
	return StatementDetailResponse{
		Statement: ToStatementResponse(&d.Statement),
		Sales:     ToSaleResponses(d.Sales),
	}
}

// ToGenerationReportResponse converts a generation report.
func ToGenerationReportResponse(r *domain.GenerationReport) GenerationReportResponse {
	return GenerationReportResponse{
		Month:     r.Period.Month,
		Year:      r.Period.Year,
		Message:   r.Message,
		Created:   r.Created,
		Replaced:  r.Replaced,
		Unchanged: r.Unchanged,
		Locked:    r.Locked,
		Failed:    r.Failed,
		Results:   r.Results,
	}
}

// ToStatementPaymentResponse converts a statement payment result.
func ToStatementPaymentResponse(r *domain.StatementPaymentResult) StatementPaymentResponse {
	return StatementPaymentResponse{
		Statement:          ToStatementResponse(&r.Statement),
		Outcome:            string(r.Outcome),
		Allocations:        r.Allocations,
		OutstandingBalance: r.OutstandingBalance,
	}
}

// ToNotificationResponse converts a notification result.
func ToNotificationResponse(r *domain.NotificationResult) NotificationResponse {
	return NotificationResponse{
		StatementID:        r.StatementID,
		Recipient:          r.Recipient,
		NotificationStatus: string(r.NotificationStatus),
		ProviderMessageID:  r.Outcome.ProviderMessageID,
		NotifiedAt:         r.NotifiedAt,
	}
}
