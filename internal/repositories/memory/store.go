package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
)

type txKey struct{}

// Store keeps customers, sales and statements in process memory.
// A transaction holds the store mutex for its whole duration, so units of work
// are fully serialized; a failed unit is rolled back from a snapshot.
type Store struct {
	mu sync.Mutex

	customers  map[string]domain.Customer
	sales      map[string]domain.SaleRecord
	statements map[string]domain.Statement

	// customerID|period -> statementID
	statementKeys map[string]string
}

type snapshot struct {
	customers     map[string]domain.Customer
	sales         map[string]domain.SaleRecord
	statements    map[string]domain.Statement
	statementKeys map[string]string
}

func New() *Store {
	return &Store{
		customers:     make(map[string]domain.Customer),
		sales:         make(map[string]domain.SaleRecord),
		statements:    make(map[string]domain.Statement),
		statementKeys: make(map[string]string),
	}
}

// NewRepositoryProvider exposes the store through the repository ports.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:     s,
		CustomerRepo:  s,
		SaleRepo:      s,
		StatementRepo: s,
	}
}

var (
	_ portsrepo.TransactionManager        = (*Store)(nil)
	_ portsrepo.CustomerRepositoryFacade  = (*Store)(nil)
	_ portsrepo.SaleRepositoryFacade      = (*Store)(nil)
	_ portsrepo.StatementRepositoryFacade = (*Store)(nil)
)

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the mutex unless ctx already runs inside this store's transaction.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTransaction implements portsrepo.TransactionManager.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// Maps hold values and every write replaces a whole entry, so copying the maps
// is enough to restore them.
func (s *Store) snapshot() snapshot {
	snap := snapshot{
		customers:     make(map[string]domain.Customer, len(s.customers)),
		sales:         make(map[string]domain.SaleRecord, len(s.sales)),
		statements:    make(map[string]domain.Statement, len(s.statements)),
		statementKeys: make(map[string]string, len(s.statementKeys)),
	}
	for k, v := range s.customers {
		snap.customers[k] = v
	}
	for k, v := range s.sales {
		snap.sales[k] = v
	}
	for k, v := range s.statements {
		snap.statements[k] = v
	}
	for k, v := range s.statementKeys {
		snap.statementKeys[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.customers = snap.customers
	s.sales = snap.sales
	s.statements = snap.statements
	s.statementKeys = snap.statementKeys
}

func cloneSale(sale domain.SaleRecord) domain.SaleRecord {
	if sale.CustomerID != nil {
		id := *sale.CustomerID
		sale.CustomerID = &id
	}
	items := make([]domain.SaleItem, len(sale.Items))
	copy(items, sale.Items)
	sale.Items = items
	return sale
}

func cloneStatement(stmt domain.Statement) domain.Statement {
	if stmt.NotifiedAt != nil {
		at := *stmt.NotifiedAt
		stmt.NotifiedAt = &at
	}
	lines := make([]domain.StatementLine, len(stmt.Lines))
	copy(lines, stmt.Lines)
	stmt.Lines = lines
	return stmt
}
