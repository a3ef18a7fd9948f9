package pgsql

import (
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:     &BaseRepository{Pool: dbPool},
		CustomerRepo:  newPgxCustomerRepository(dbPool),
		SaleRepo:      newPgxSaleRepository(dbPool),
		StatementRepo: newPgxStatementRepository(dbPool),
	}
}
