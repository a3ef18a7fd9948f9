package mapping

import (
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/SscSPs/dairy_billing_app/internal/models"
)

// ToModelSale converts a domain SaleRecord to a model Sale and its item rows.
func ToModelSale(d domain.SaleRecord) (models.Sale, []models.SaleItem) {
	var customerID *string
	if !d.IsGuest() {
		id := *d.CustomerID
		customerID = &id
	}
	items := make([]models.SaleItem, len(d.Items))
	for i, it := range d.Items {
		items[i] = models.SaleItem{
			SaleID:      d.SaleID,
			LineNo:      i + 1,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return models.Sale{
		SaleID:        d.SaleID,
		CustomerID:    customerID,
		CustomerName:  d.CustomerName,
		PaymentMethod: string(d.PaymentMethod),
		SaleDate:      d.SaleDate,
		TotalAmount:   d.TotalAmount,
		PaidAmount:    d.PaidAmount,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}, items
}

// ToDomainSale converts a model Sale and its items (in line order) to a domain SaleRecord.
func ToDomainSale(m models.Sale, items []models.SaleItem) domain.SaleRecord {
	domainItems := make([]domain.SaleItem, len(items))
	for i, it := range items {
		domainItems[i] = domain.SaleItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return domain.SaleRecord{
		SaleID:        m.SaleID,
		CustomerID:    m.CustomerID,
		CustomerName:  m.CustomerName,
		PaymentMethod: domain.PaymentMethod(m.PaymentMethod),
		SaleDate:      m.SaleDate.UTC(),
		Items:         domainItems,
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}
