package repositories

import (
	"context"
)

// TransactionManager runs a unit of work atomically.
// The transaction travels in the context handed to fn; repositories called
// with that context take part in it. Nested calls join the outer transaction.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
