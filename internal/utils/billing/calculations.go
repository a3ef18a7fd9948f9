package billing

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
)

// MoneyScale is the number of fractional digits kept for every amount (paise).
const MoneyScale int32 = 2

// QuantityScale allows fractional litres/kilograms down to a millilitre/gram.
const QuantityScale int32 = 3

// ValidateMoney rejects negative amounts and amounts with sub-paisa precision.
func ValidateMoney(amount decimal.Decimal, field string) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", apperrors.ErrValidation, field)
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return fmt.Errorf("%w: %s must have at most %d decimal places", apperrors.ErrValidation, field, MoneyScale)
	}
	return nil
}

// ValidateQuantity requires a strictly positive quantity within QuantityScale.
func ValidateQuantity(qty decimal.Decimal, field string) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", apperrors.ErrValidation, field)
	}
	if !qty.Equal(qty.Round(QuantityScale)) {
		return fmt.Errorf("%w: %s must have at most %d decimal places", apperrors.ErrValidation, field, QuantityScale)
	}
	return nil
}

// ComputeLineTotal returns quantity × unit price rounded to paise.
func ComputeLineTotal(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice).Round(MoneyScale)
}

// SaleTotal sums line totals.
func SaleTotal(items []domain.SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}

// SortRecords orders sales by date, then creation time, then id.
func SortRecords(records []domain.SaleRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.SaleDate.Equal(b.SaleDate) {
			return a.SaleDate.Before(b.SaleDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.SaleID < b.SaleID
	})
}

// GroupByCustomer splits registered sales by customer, keeping first-seen order.
// Guest sales are dropped.
func GroupByCustomer(records []domain.SaleRecord) ([]string, map[string][]domain.SaleRecord) {
	order := make([]string, 0)
	groups := make(map[string][]domain.SaleRecord)
	for _, r := range records {
		if r.IsGuest() {
			continue
		}
		id := *r.CustomerID
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], r)
	}
	return order, groups
}

// Aggregate computes statement totals over one customer's period records.
// Guest sales are ignored. The content hash covers the included sale set and
// each sale's billed and paid amounts, so any change to either is detected.
func Aggregate(records []domain.SaleRecord) domain.StatementTotals {
	included := make([]domain.SaleRecord, 0, len(records))
	for _, r := range records {
		if !r.IsGuest() {
			included = append(included, r)
		}
	}
	SortRecords(included)

	totals := domain.StatementTotals{
		TotalSales: decimal.Zero,
		TotalPaid:  decimal.Zero,
		Lines:      make([]domain.StatementLine, 0, len(included)),
	}
	h, _ := blake2b.New256(nil)
	for _, r := range included {
		billed := r.TotalAmount.Round(MoneyScale)
		paid := r.PaidAmount.Round(MoneyScale)
		totals.TotalSales = totals.TotalSales.Add(billed)
		totals.TotalPaid = totals.TotalPaid.Add(paid)
		totals.Lines = append(totals.Lines, domain.StatementLine{
			SaleID:       r.SaleID,
			SaleDate:     r.SaleDate,
			BilledAmount: billed,
			PaidAmount:   paid,
		})
		fmt.Fprintf(h, "%s|%s|%s\n", r.SaleID, billed.StringFixed(MoneyScale), paid.StringFixed(MoneyScale))
	}
	totals.SalesCount = len(included)
	totals.BalanceDue = totals.TotalSales.Sub(totals.TotalPaid)
	totals.ContentHash = hex.EncodeToString(h.Sum(nil))
	return totals
}

// OutstandingBalance is the sum of non-zero statement balances plus the unpaid
// part of every registered sale not frozen into any statement. Payments made on
// a covered sale after its statement was generated are taken off right away, so
// a locked statement never hides them.
func OutstandingBalance(statements []domain.Statement, sales []domain.SaleRecord) decimal.Decimal {
	// paid amount of each covered sale as frozen on its statement line
	frozenPaid := make(map[string]decimal.Decimal)
	outstanding := decimal.Zero
	for _, stmt := range statements {
		for _, line := range stmt.Lines {
			frozenPaid[line.SaleID] = line.PaidAmount
		}
		if !stmt.BalanceDue.IsZero() {
			outstanding = outstanding.Add(stmt.BalanceDue)
		}
	}
	for _, sale := range sales {
		if sale.IsGuest() {
			continue
		}
		linePaid, covered := frozenPaid[sale.SaleID]
		if !covered {
			outstanding = outstanding.Add(sale.Unpaid())
			continue
		}
		// Paid amounts only grow, so a positive delta is a later payment
		if paidSince := sale.PaidAmount.Sub(linePaid); paidSince.IsPositive() {
			outstanding = outstanding.Sub(paidSince)
		}
	}
	return outstanding
}

// AllocatePayment spreads amount over sales oldest first, never past a sale's
// unpaid part. It returns the allocations and whatever could not be placed.
func AllocatePayment(amount decimal.Decimal, sales []domain.SaleRecord) ([]domain.PaymentAllocation, decimal.Decimal) {
	ordered := make([]domain.SaleRecord, len(sales))
	copy(ordered, sales)
	SortRecords(ordered)

	left := amount
	allocations := make([]domain.PaymentAllocation, 0)
	for _, sale := range ordered {
		if !left.IsPositive() {
			break
		}
		unpaid := sale.Unpaid()
		if !unpaid.IsPositive() {
			continue
		}
		share := decimal.Min(unpaid, left)
		allocations = append(allocations, domain.PaymentAllocation{SaleID: sale.SaleID, Amount: share})
		left = left.Sub(share)
	}
	return allocations, left
}
