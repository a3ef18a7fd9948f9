package services

import "errors"

// Billing rule violations. Services wrap them together with the apperrors
// category so handlers can map on either.
var (
	ErrSaleBilled          = errors.New("sale is included in a statement")
	ErrPaymentDecrease     = errors.New("paid amount cannot decrease")
	ErrPaymentExceedsTotal = errors.New("payment exceeds the amount billed")
	ErrGuestSale           = errors.New("guest sales are settled at the counter")
	ErrExportUnavailable   = errors.New("statement export is not configured")
)
