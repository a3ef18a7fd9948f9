package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToModelSale_GuestHasNullCustomer(t *testing.T) {
	empty := ""
	sale := domain.SaleRecord{SaleID: "s1", CustomerID: &empty, CustomerName: domain.DefaultGuestName}

	m, items := ToModelSale(sale)
	assert.Nil(t, m.CustomerID)
	assert.Empty(t, items)
}

func TestToModelSale_NumbersItemLines(t *testing.T) {
	id := "c1"
	sale := domain.SaleRecord{
		SaleID:     "s1",
		CustomerID: &id,
		Items: []domain.SaleItem{
			{ProductID: "a", Quantity: decimal.NewFromInt(1)},
			{ProductID: "b", Quantity: decimal.NewFromInt(2)},
		},
	}

	m, items := ToModelSale(sale)
	require.NotNil(t, m.CustomerID)
	assert.NotSame(t, sale.CustomerID, m.CustomerID)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].LineNo)
	assert.Equal(t, 2, items[1].LineNo)
	assert.Equal(t, "s1", items[1].SaleID)
}

func TestToDomainStatement_SummaryHasNoLines(t *testing.T) {
	stmt := domain.Statement{
		StatementID: "st1",
		Period:      domain.NewPeriod(3, 2024),
		Lines:       []domain.StatementLine{{SaleID: "s1", SaleDate: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}},
	}
	m, lines := ToModelStatement(stmt)
	assert.Equal(t, 3, m.PeriodMonth)
	assert.Equal(t, 2024, m.PeriodYear)

	summary := ToDomainStatement(m, nil)
	assert.Nil(t, summary.Lines)
	assert.Equal(t, stmt.Period, summary.Period)

	full := ToDomainStatement(m, lines)
	assert.Equal(t, stmt.Lines, full.Lines)
}
