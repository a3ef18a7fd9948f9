package dto

import (
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for sale dates.
const DateLayout = "2006-01-02"

// SaleItemRequest is one line of a new sale. The line total is computed server side.
type SaleItemRequest struct {
	ProductID   string          `json:"productID" binding:"required"`
	ProductName string          `json:"productName" binding:"required"`
	Unit        string          `json:"unit" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required" swaggertype:"string" example:"2"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required" swaggertype:"string" example:"62.50"`
}

// CreateSaleRequest records a sale to a registered customer.
type CreateSaleRequest struct {
	CustomerID    string            `json:"customerID" binding:"required"`
	SaleDate      string            `json:"saleDate" binding:"required,datetime=2006-01-02"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	PaidAmount    decimal.Decimal   `json:"paidAmount" swaggertype:"string" example:"0"`
	PaymentMethod string            `json:"paymentMethod" binding:"omitempty,oneof=cash upi card credit"`
}

// CreateGuestSaleRequest records an anonymous counter sale.
type CreateGuestSaleRequest struct {
	GuestName     string            `json:"guestName"`
	SaleDate      string            `json:"saleDate" binding:"required,datetime=2006-01-02"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string            `json:"paymentMethod" binding:"omitempty,oneof=cash upi card"`
}

// RecordSalePaymentRequest sets a sale's new cumulative paid amount.
type RecordSalePaymentRequest struct {
	PaidAmount decimal.Decimal `json:"paidAmount" binding:"required" swaggertype:"string" example:"300.00"`
}

// ListSalesParams defines the query parameters for listing sales.
type ListSalesParams struct {
	CustomerID string `form:"customerID"`
	Limit      int    `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken  string `form:"nextToken"`
}

// SaleItemResponse is one line of a sale.
type SaleItemResponse struct {
	ProductID   string          `json:"productID"`
	ProductName string          `json:"productName"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.Decimal `json:"unitPrice" swaggertype:"string"`
	LineTotal   decimal.Decimal `json:"lineTotal" swaggertype:"string"`
}

// SaleResponse defines the data returned for a sale.
type SaleResponse struct {
	SaleID        string             `json:"saleID"`
	CustomerID    *string            `json:"customerID,omitempty"`
	CustomerName  string             `json:"customerName"`
	IsGuest       bool               `json:"isGuest"`
	SaleDate      string             `json:"saleDate"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	TotalAmount   decimal.Decimal    `json:"totalAmount" swaggertype:"string"`
	PaidAmount    decimal.Decimal    `json:"paidAmount" swaggertype:"string"`
	IsPaid        bool               `json:"isPaid"`
	CreatedAt     time.Time          `json:"createdAt"`
	CreatedBy     string             `json:"createdBy"`
}

// ListSalesResponse is a page of sales.
type ListSalesResponse struct {
	Sales     []SaleResponse `json:"sales"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// ToSaleResponse converts a domain.SaleRecord to SaleResponse DTO.
func ToSaleResponse(s *domain.SaleRecord) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		}
	}
	return SaleResponse{
		SaleID:        s.SaleID,
		CustomerID:    s.CustomerID,
		CustomerName:  s.CustomerName,
		IsGuest:       s.IsGuest(),
		SaleDate:      s.SaleDate.Format(DateLayout),
		PaymentMethod: string(s.PaymentMethod),
		Items:         items,
		TotalAmount:   s.TotalAmount,
		PaidAmount:    s.PaidAmount,
		IsPaid:        s.IsPaid(),
		CreatedAt:     s.CreatedAt,
		CreatedBy:     s.CreatedBy,
	}
}

// ToSaleResponses converts a slice of domain.SaleRecord to []SaleResponse.
func ToSaleResponses(sales []domain.SaleRecord) []SaleResponse {
	responses := make([]SaleResponse, len(sales))
	for i := range sales {
		responses[i] = ToSaleResponse(&sales[i])
	}
	return responses
}
