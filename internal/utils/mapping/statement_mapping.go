package mapping

import (
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/SscSPs/dairy_billing_app/internal/models"
)

// ToModelStatement converts a domain Statement to a model Statement and its line rows.
func ToModelStatement(d domain.Statement) (models.Statement, []models.StatementLine) {
	lines := make([]models.StatementLine, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = models.StatementLine{
			StatementID:  d.StatementID,
			SaleID:       l.SaleID,
			SaleDate:     l.SaleDate,
			BilledAmount: l.BilledAmount,
			PaidAmount:   l.PaidAmount,
		}
	}
	return models.Statement{
		StatementID:        d.StatementID,
		CustomerID:         d.CustomerID,
		CustomerName:       d.CustomerName,
		PeriodMonth:        d.Period.Month,
		PeriodYear:         d.Period.Year,
		TotalSales:         d.TotalSales,
		TotalPaid:          d.TotalPaid,
		BalanceDue:         d.BalanceDue,
		SalesCount:         d.SalesCount,
		ContentHash:        d.ContentHash,
		NotificationStatus: string(d.NotificationStatus),
		NotificationError:  d.NotificationError,
		NotifiedAt:         d.NotifiedAt,
		GeneratedAt:        d.GeneratedAt,
		Version:            d.Version,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}, lines
}

// ToDomainStatement converts a model Statement and its lines to a domain Statement.
// A nil lines slice yields a summary without lines.
func ToDomainStatement(m models.Statement, lines []models.StatementLine) domain.Statement {
	var domainLines []domain.StatementLine
	if lines != nil {
		domainLines = make([]domain.StatementLine, len(lines))
		for i, l := range lines {
			domainLines[i] = domain.StatementLine{
				SaleID:       l.SaleID,
				SaleDate:     l.SaleDate.UTC(),
				BilledAmount: l.BilledAmount,
				PaidAmount:   l.PaidAmount,
			}
		}
	}
	return domain.Statement{
		StatementID:        m.StatementID,
		CustomerID:         m.CustomerID,
		CustomerName:       m.CustomerName,
		Period:             domain.NewPeriod(m.PeriodMonth, m.PeriodYear),
		TotalSales:         m.TotalSales,
		TotalPaid:          m.TotalPaid,
		BalanceDue:         m.BalanceDue,
		SalesCount:         m.SalesCount,
		ContentHash:        m.ContentHash,
		NotificationStatus: domain.NotificationStatus(m.NotificationStatus),
		NotificationError:  m.NotificationError,
		NotifiedAt:         m.NotifiedAt,
		GeneratedAt:        m.GeneratedAt,
		Version:            m.Version,
		Lines:              domainLines,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}
