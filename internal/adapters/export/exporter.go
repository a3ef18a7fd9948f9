// Package export renders statements as PDF and XLSX documents.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/utils"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout = "2006-01-02"
)

// Exporter renders statement documents.
type Exporter struct {
	businessName   string
	currencySymbol string
}

// NewExporter creates an Exporter. PDF core fonts are Latin-1 only, so other
// currency symbols are spelled out or dropped there.
func NewExporter(businessName, currencySymbol string) *Exporter {
	return &Exporter{businessName: businessName, currencySymbol: currencySymbol}
}

var _ portssvc.StatementExporter = (*Exporter)(nil)

func (e *Exporter) Export(detail domain.StatementDetail, format domain.ExportFormat) (*domain.StatementDocument, error) {
	switch format {
	case domain.ExportFormatPDF:
		content, err := e.BuildPDF(detail)
		if err != nil {
			return nil, fmt.Errorf("failed to render statement pdf: %w", err)
		}
		return &domain.StatementDocument{
			Filename:    Filename(detail.Statement, format),
			ContentType: contentTypePDF,
			Content:     content,
		}, nil
	case domain.ExportFormatXLSX:
		content, err := e.BuildXLSX(detail)
		if err != nil {
			return nil, fmt.Errorf("failed to render statement xlsx: %w", err)
		}
		return &domain.StatementDocument{
			Filename:    Filename(detail.Statement, format),
			ContentType: contentTypeXLSX,
			Content:     content,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, format)
	}
}

// Filename is e.g. "statement-2024-03-cust-1.pdf".
func Filename(stmt domain.Statement, format domain.ExportFormat) string {
	return fmt.Sprintf("statement-%s-%s.%s", stmt.Period, stmt.CustomerID, format)
}

func (e *Exporter) pdfSymbol() string {
	for _, r := range e.currencySymbol {
		if r > 0xff {
			if r == '₹' {
				return "Rs. "
			}
			return ""
		}
	}
	return e.currencySymbol
}

// BuildPDF renders the statement summary followed by one row per sale.
func (e *Exporter) BuildPDF(detail domain.StatementDetail) ([]byte, error) {
	stmt := detail.Statement
	symbol := e.pdfSymbol()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s statement %s", e.businessName, stmt.Period), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, e.businessName)
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 6, fmt.Sprintf("Monthly Bill Statement - %s %d", stmt.Period.MonthName(), stmt.Period.Year))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	summary := [][2]string{
		{"Customer", stmt.CustomerName},
		{"Statement", stmt.StatementID},
		{"Version", fmt.Sprintf("%d", stmt.Version)},
		{"Generated", stmt.GeneratedAt.Format(time.RFC3339)},
		{"Total Purchases", utils.FormatAmount(stmt.TotalSales, symbol)},
		{"Amount Paid", utils.FormatAmount(stmt.TotalPaid, symbol)},
		{"Balance Due", utils.FormatAmount(stmt.BalanceDue, symbol)},
		{"Number of Transactions", fmt.Sprintf("%d", stmt.SalesCount)},
	}
	for _, row := range summary {
		pdf.CellFormat(60, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, row[1], "", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Sale", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Billed", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Paid", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range stmt.Lines {
		pdf.CellFormat(35, 6, line.SaleDate.Format(dateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, line.SaleID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, line.BilledAmount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, line.PaidAmount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildXLSX writes a summary sheet, a lines sheet, and an items sheet with
// the current state of each sale.
func (e *Exporter) BuildXLSX(detail domain.StatementDetail) ([]byte, error) {
	stmt := detail.Statement
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	linesSheet := "lines"
	itemsSheet := "items"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	totalSales, _ := stmt.TotalSales.Float64()
	totalPaid, _ := stmt.TotalPaid.Float64()
	balanceDue, _ := stmt.BalanceDue.Float64()
	summary := [][2]any{
		{"Business", e.businessName},
		{"Customer", stmt.CustomerName},
		{"Customer ID", stmt.CustomerID},
		{"Period", stmt.Period.String()},
		{"Statement", stmt.StatementID},
		{"Version", stmt.Version},
		{"Notification", string(stmt.NotificationStatus)},
		{"Total Purchases", totalSales},
		{"Amount Paid", totalPaid},
		{"Balance Due", balanceDue},
		{"Number of Transactions", stmt.SalesCount},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]any{row[0], row[1]}); err != nil {
			return nil, err
		}
	}

	if err := f.SetSheetRow(linesSheet, "A1", &[]any{"Date", "Sale", "Billed", "Paid"}); err != nil {
		return nil, err
	}
	for i, line := range stmt.Lines {
		billed, _ := line.BilledAmount.Float64()
		paid, _ := line.PaidAmount.Float64()
		row := []any{line.SaleDate.Format(dateLayout), line.SaleID, billed, paid}
		if err := f.SetSheetRow(linesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetSheetRow(itemsSheet, "A1", &[]any{"Date", "Sale", "Product", "Unit", "Quantity", "Unit Price", "Line Total"}); err != nil {
		return nil, err
	}
	next := 2
	for _, sale := range detail.Sales {
		for _, it := range sale.Items {
			qty, _ := it.Quantity.Float64()
			price, _ := it.UnitPrice.Float64()
			total, _ := it.LineTotal.Float64()
			row := []any{sale.SaleDate.Format(dateLayout), sale.SaleID, it.ProductName, it.Unit, qty, price, total}
			if err := f.SetSheetRow(itemsSheet, fmt.Sprintf("A%d", next), &row); err != nil {
				return nil, err
			}
			next++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
