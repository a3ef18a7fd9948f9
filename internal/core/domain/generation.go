package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// GenerationOutcome is what bill generation did for one customer.
type GenerationOutcome string

const (
	GenerationCreated   GenerationOutcome = "CREATED"
	GenerationReplaced  GenerationOutcome = "REPLACED"
	GenerationUnchanged GenerationOutcome = "UNCHANGED"
	GenerationLocked    GenerationOutcome = "LOCKED"
	GenerationFailed    GenerationOutcome = "FAILED"
	GenerationSkipped   GenerationOutcome = "SKIPPED"
)

// GenerationResult is the per-customer line of a generation report.
type GenerationResult struct {
	CustomerID         string            `json:"customerID"`
	CustomerName       string            `json:"customerName"`
	StatementID        string            `json:"statementID,omitempty"`
	Outcome            GenerationOutcome `json:"outcome"`
	TotalSales         decimal.Decimal   `json:"totalSales"`
	TotalPaid          decimal.Decimal   `json:"totalPaid"`
	BalanceDue         decimal.Decimal   `json:"balanceDue"`
	SalesCount         int               `json:"salesCount"`
	OutstandingBalance decimal.Decimal   `json:"outstandingBalance"`
	Attempts           int               `json:"attempts"`
	Error              string            `json:"error,omitempty"`
}

// GenerationReport partitions customers by outcome for one generate call.
type GenerationReport struct {
	Period    Period             `json:"period"`
	Results   []GenerationResult `json:"results"`
	Created   int                `json:"created"`
	Replaced  int                `json:"replaced"`
	Unchanged int                `json:"unchanged"`
	Locked    int                `json:"locked"`
	Failed    int                `json:"failed"`
	Message   string             `json:"message"`
}

// NewGenerationReport tallies results. Skipped customers are dropped.
func NewGenerationReport(period Period, results []GenerationResult) *GenerationReport {
	report := &GenerationReport{Period: period, Results: make([]GenerationResult, 0, len(results))}
	for _, r := range results {
		switch r.Outcome {
		case GenerationCreated:
			report.Created++
		case GenerationReplaced:
			report.Replaced++
		case GenerationUnchanged:
			report.Unchanged++
		case GenerationLocked:
			report.Locked++
		case GenerationFailed:
			report.Failed++
		default:
			continue
		}
		report.Results = append(report.Results, r)
	}
	sort.SliceStable(report.Results, func(i, j int) bool {
		a, b := report.Results[i], report.Results[j]
		if a.CustomerName != b.CustomerName {
			return a.CustomerName < b.CustomerName
		}
		return a.CustomerID < b.CustomerID
	})
	report.Message = report.summary()
	return report
}

func (r *GenerationReport) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d bills generated, %d updated", r.Created, r.Replaced)
	if r.Unchanged > 0 {
		fmt.Fprintf(&b, ", %d unchanged", r.Unchanged)
	}
	if r.Locked > 0 {
		fmt.Fprintf(&b, ", %d locked", r.Locked)
	}
	if r.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", r.Failed)
	}
	return b.String()
}

// ReconciliationResult is the outcome of recomputing one customer's balance.
type ReconciliationResult struct {
	CustomerID         string          `json:"customerID"`
	CustomerName       string          `json:"customerName"`
	PreviousBalance    decimal.Decimal `json:"previousBalance"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	Changed            bool            `json:"changed"`
	Error              string          `json:"error,omitempty"`
}
