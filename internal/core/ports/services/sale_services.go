package services

import (
	"context"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
)

// SaleReaderSvc defines read operations for sales
type SaleReaderSvc interface {
	GetSale(ctx context.Context, saleID string) (*domain.SaleRecord, error)
	ListSales(ctx context.Context, params dto.ListSalesParams) (*dto.ListSalesResponse, error)
}

// SaleWriterSvc defines write operations for sales. Every write that can move a
// customer's balance goes through the reconciler.
type SaleWriterSvc interface {
	CreateSale(ctx context.Context, req dto.CreateSaleRequest, userID string) (*domain.SaleRecord, error)
	CreateGuestSale(ctx context.Context, req dto.CreateGuestSaleRequest, userID string) (*domain.SaleRecord, error)
	RecordSalePayment(ctx context.Context, saleID string, req dto.RecordSalePaymentRequest, userID string) (*domain.SaleRecord, error)
	DeleteSale(ctx context.Context, saleID string, userID string) error
}

// SaleSvcFacade combines all sale-related service interfaces
type SaleSvcFacade interface {
	SaleReaderSvc
	SaleWriterSvc
}
