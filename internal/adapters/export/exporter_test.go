package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/adapters/export"
	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDetail() domain.StatementDetail {
	customerID := "cust-1"
	saleDate := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	return domain.StatementDetail{
		Statement: domain.Statement{
			StatementID:        "stmt-1",
			CustomerID:         customerID,
			CustomerName:       "Asha",
			Period:             domain.NewPeriod(3, 2024),
			TotalSales:         decimal.RequireFromString("150.00"),
			TotalPaid:          decimal.RequireFromString("50.00"),
			BalanceDue:         decimal.RequireFromString("100.00"),
			SalesCount:         1,
			NotificationStatus: domain.NotificationNotSent,
			GeneratedAt:        saleDate,
			Version:            1,
			Lines: []domain.StatementLine{
				{SaleID: "sale-1", SaleDate: saleDate, BilledAmount: decimal.RequireFromString("150.00"), PaidAmount: decimal.RequireFromString("50.00")},
			},
		},
		Sales: []domain.SaleRecord{
			{
				SaleID:     "sale-1",
				CustomerID: &customerID,
				SaleDate:   saleDate,
				Items: []domain.SaleItem{
					{ProductName: "Milk", Unit: "litre", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(150)},
				},
				TotalAmount: decimal.NewFromInt(150),
				PaidAmount:  decimal.NewFromInt(50),
			},
		},
	}
}

func TestExporter_PDF(t *testing.T) {
	e := export.NewExporter("Dairy Store", "₹")

	doc, err := e.Export(sampleDetail(), domain.ExportFormatPDF)

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "statement-2024-03-cust-1.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))
}

func TestExporter_XLSX(t *testing.T) {
	e := export.NewExporter("Dairy Store", "₹")

	doc, err := e.Export(sampleDetail(), domain.ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "statement-2024-03-cust-1.xlsx", doc.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(doc.Content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"summary", "lines", "items"}, f.GetSheetList())

	customer, err := f.GetCellValue("summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Asha", customer)

	saleID, err := f.GetCellValue("lines", "B2")
	require.NoError(t, err)
	assert.Equal(t, "sale-1", saleID)

	product, err := f.GetCellValue("items", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Milk", product)
}

func TestExporter_UnsupportedFormat(t *testing.T) {
	e := export.NewExporter("Dairy Store", "$")

	_, err := e.Export(sampleDetail(), domain.ExportFormat("csv"))

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
