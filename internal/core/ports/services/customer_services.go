package services

import (
	"context"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
)

// CustomerReaderSvc defines read operations for customers
type CustomerReaderSvc interface {
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, params dto.ListCustomersParams) ([]domain.Customer, error)
}

// CustomerWriterSvc defines write operations for customers
type CustomerWriterSvc interface {
	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, userID string) (*domain.Customer, error)
}

// CustomerSvcFacade combines all customer-related service interfaces
type CustomerSvcFacade interface {
	CustomerReaderSvc
	CustomerWriterSvc
}
