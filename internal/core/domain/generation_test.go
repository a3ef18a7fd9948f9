package domain_test

import (
	"testing"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewGenerationReport(t *testing.T) {
	period := domain.Period{Month: 3, Year: 2024}

	tests := []struct {
		name        string
		results     []domain.GenerationResult
		wantMessage string
		wantCount   int
	}{
		{
			name:        "empty period",
			results:     nil,
			wantMessage: "0 bills generated, 0 updated",
			wantCount:   0,
		},
		{
			name: "created and replaced",
			results: []domain.GenerationResult{
				{CustomerName: "Ravi", Outcome: domain.GenerationReplaced},
				{CustomerName: "Anita", Outcome: domain.GenerationCreated},
				{CustomerName: "Suresh", Outcome: domain.GenerationCreated},
			},
			wantMessage: "2 bills generated, 1 updated",
			wantCount:   3,
		},
		{
			name: "all outcomes with skipped dropped",
			results: []domain.GenerationResult{
				{CustomerName: "A", Outcome: domain.GenerationCreated},
				{CustomerName: "B", Outcome: domain.GenerationUnchanged},
				{CustomerName: "C", Outcome: domain.GenerationLocked},
				{CustomerName: "D", Outcome: domain.GenerationFailed, Error: "boom"},
				{CustomerName: "E", Outcome: domain.GenerationSkipped},
			},
			wantMessage: "1 bills generated, 0 updated, 1 unchanged, 1 locked, 1 failed",
			wantCount:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := domain.NewGenerationReport(period, tt.results)
			assert.Equal(t, tt.wantMessage, report.Message)
			assert.Len(t, report.Results, tt.wantCount)
			assert.Equal(t, period, report.Period)
		})
	}
}

func TestNewGenerationReport_SortsByCustomerName(t *testing.T) {
	report := domain.NewGenerationReport(domain.Period{Month: 1, Year: 2024}, []domain.GenerationResult{
		{CustomerID: "c3", CustomerName: "Zoya", Outcome: domain.GenerationCreated},
		{CustomerID: "c1", CustomerName: "Amit", Outcome: domain.GenerationCreated},
		{CustomerID: "c2", CustomerName: "Meena", Outcome: domain.GenerationCreated},
	})

	names := make([]string, 0, len(report.Results))
	for _, r := range report.Results {
		names = append(names, r.CustomerName)
	}
	assert.Equal(t, []string{"Amit", "Meena", "Zoya"}, names)
}

func TestStatement_HasSameContent(t *testing.T) {
	stmt := domain.Statement{
		TotalSales:  decimal.RequireFromString("800.00"),
		TotalPaid:   decimal.RequireFromString("500.00"),
		BalanceDue:  decimal.RequireFromString("300.00"),
		SalesCount:  2,
		ContentHash: "abc",
	}
	same := domain.StatementTotals{
		TotalSales:  decimal.RequireFromString("800"),
		TotalPaid:   decimal.RequireFromString("500"),
		BalanceDue:  decimal.RequireFromString("300"),
		SalesCount:  2,
		ContentHash: "abc",
	}
	assert.True(t, stmt.HasSameContent(same))

	changed := same
	changed.TotalPaid = decimal.RequireFromString("800")
	changed.BalanceDue = decimal.Zero
	changed.ContentHash = "def"
	assert.False(t, stmt.HasSameContent(changed))
}

func TestSaleRecord_IsGuest(t *testing.T) {
	customerID := "cust-1"
	empty := ""

	assert.True(t, domain.SaleRecord{}.IsGuest())
	assert.True(t, domain.SaleRecord{CustomerID: &empty}.IsGuest())
	assert.False(t, domain.SaleRecord{CustomerID: &customerID}.IsGuest())
	assert.True(t, domain.SaleRecord{CustomerID: &customerID}.BelongsTo("cust-1"))
	assert.False(t, domain.SaleRecord{CustomerID: &customerID}.BelongsTo("cust-2"))
}
