package dto

import (
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCustomerRequest defines the data needed to register a customer.
type CreateCustomerRequest struct {
	Name        string           `json:"name" binding:"required"`
	Phone       string           `json:"phone" binding:"required"`
	Address     string           `json:"address"`
	Email       string           `json:"email" binding:"omitempty,email"`
	CreditLimit *decimal.Decimal `json:"creditLimit,omitempty" swaggertype:"string" example:"5000"`
}

// ListCustomersParams defines the query parameters for listing customers.
type ListCustomersParams struct {
	ActiveOnly bool `form:"activeOnly,default=true"`
}

// CustomerResponse defines the data returned for a customer.
type CustomerResponse struct {
	CustomerID         string          `json:"customerID"`
	Name               string          `json:"name"`
	Phone              string          `json:"phone"`
	Address            string          `json:"address"`
	Email              string          `json:"email,omitempty"`
	CreditLimit        decimal.Decimal `json:"creditLimit" swaggertype:"string"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance" swaggertype:"string"`
	OverCreditLimit    bool            `json:"overCreditLimit"`
	IsActive           bool            `json:"isActive"`
	CreatedAt          time.Time       `json:"createdAt"`
	LastUpdatedAt      time.Time       `json:"lastUpdatedAt"`
}

// ReconcileResponse reports a recomputed balance.
type ReconcileResponse struct {
	CustomerID         string          `json:"customerID"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance" swaggertype:"string"`
}

// ToCustomerResponse converts a domain.Customer to CustomerResponse DTO.
func ToCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		CustomerID:         c.CustomerID,
		Name:               c.Name,
		Phone:              c.Phone,
		Address:            c.Address,
		Email:              c.Email,
		CreditLimit:        c.CreditLimit,
		OutstandingBalance: c.OutstandingBalance,
		OverCreditLimit:    c.OverCreditLimit(),
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
		LastUpdatedAt:      c.LastUpdatedAt,
	}
}

// ToCustomerResponses converts a slice of customers.
func ToCustomerResponses(customers []domain.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, len(customers))
	for i := range customers {
		responses[i] = ToCustomerResponse(&customers[i])
	}
	return responses
}
