package mapping

import (
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/SscSPs/dairy_billing_app/internal/models"
)

// ToModelCustomer converts a domain Customer to a model Customer
func ToModelCustomer(d domain.Customer) models.Customer {
	return models.Customer{
		CustomerID:         d.CustomerID,
		Name:               d.Name,
		Phone:              d.Phone,
		Address:            d.Address,
		Email:              d.Email,
		CreditLimit:        d.CreditLimit,
		OutstandingBalance: d.OutstandingBalance,
		IsActive:           d.IsActive,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCustomer converts a model Customer to a domain Customer
func ToDomainCustomer(m models.Customer) domain.Customer {
	return domain.Customer{
		CustomerID:         m.CustomerID,
		Name:               m.Name,
		Phone:              m.Phone,
		Address:            m.Address,
		Email:              m.Email,
		CreditLimit:        m.CreditLimit,
		OutstandingBalance: m.OutstandingBalance,
		IsActive:           m.IsActive,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCustomerSlice converts a slice of model Customers
func ToDomainCustomerSlice(ms []models.Customer) []domain.Customer {
	ds := make([]domain.Customer, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCustomer(m)
	}
	return ds
}
