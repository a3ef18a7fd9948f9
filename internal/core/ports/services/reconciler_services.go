package services

import (
	"context"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReconcilerSvc is the only writer of Customer.OutstandingBalance.
type ReconcilerSvc interface {
	// RecomputeOutstanding recomputes and stores a customer's balance. It joins the
	// caller's transaction when one is in ctx.
	RecomputeOutstanding(ctx context.Context, customerID string) (decimal.Decimal, error)

	// ReconcileAll recomputes every customer. Failures are reported per customer.
	ReconcileAll(ctx context.Context) ([]domain.ReconciliationResult, error)
}
