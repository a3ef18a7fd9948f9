package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
)

func statementKey(customerID string, period domain.Period) string {
	return customerID + "|" + period.String()
}

func (s *Store) FindStatementByID(ctx context.Context, statementID string) (*domain.Statement, error) {
	defer s.lock(ctx)()

	stmt, ok := s.statements[statementID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := cloneStatement(stmt)
	return &c, nil
}

// FindStatementsByCustomerPeriod scans instead of using the key index so that a
// broken index can never hide a duplicate.
func (s *Store) FindStatementsByCustomerPeriod(ctx context.Context, customerID string, period domain.Period) ([]domain.Statement, error) {
	defer s.lock(ctx)()

	result := make([]domain.Statement, 0, 1)
	for _, stmt := range s.statements {
		if stmt.CustomerID == customerID && stmt.Period == period {
			result = append(result, cloneStatement(stmt))
		}
	}
	return result, nil
}

func (s *Store) ListStatementsByPeriod(ctx context.Context, period domain.Period) ([]domain.Statement, error) {
	defer s.lock(ctx)()

	result := make([]domain.Statement, 0)
	for _, stmt := range s.statements {
		if stmt.Period != period {
			continue
		}
		summary := cloneStatement(stmt)
		summary.Lines = nil
		result = append(result, summary)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CustomerName != result[j].CustomerName {
			return result[i].CustomerName < result[j].CustomerName
		}
		return result[i].CustomerID < result[j].CustomerID
	})
	return result, nil
}

func (s *Store) ListStatementsByCustomer(ctx context.Context, customerID string) ([]domain.Statement, error) {
	defer s.lock(ctx)()

	result := make([]domain.Statement, 0)
	for _, stmt := range s.statements {
		if stmt.CustomerID == customerID {
			result = append(result, cloneStatement(stmt))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Period.Start().After(result[j].Period.Start())
	})
	return result, nil
}

func (s *Store) IsSaleBilled(ctx context.Context, saleID string) (bool, error) {
	defer s.lock(ctx)()

	for _, stmt := range s.statements {
		if stmt.Covers(saleID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) InsertStatement(ctx context.Context, statement domain.Statement) error {
	defer s.lock(ctx)()

	key := statementKey(statement.CustomerID, statement.Period)
	if existing, taken := s.statementKeys[key]; taken {
		return fmt.Errorf("%w: statement %s already exists for customer %s period %s",
			apperrors.ErrConflict, existing, statement.CustomerID, statement.Period)
	}
	if _, exists := s.statements[statement.StatementID]; exists {
		return fmt.Errorf("%w: statement %s", apperrors.ErrDuplicate, statement.StatementID)
	}
	s.statements[statement.StatementID] = cloneStatement(statement)
	s.statementKeys[key] = statement.StatementID
	return nil
}

func (s *Store) ReplaceStatement(ctx context.Context, statement domain.Statement, expectedVersion int) error {
	defer s.lock(ctx)()

	stored, ok := s.statements[statement.StatementID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: statement %s is at version %d, expected %d",
			apperrors.ErrConflict, statement.StatementID, stored.Version, expectedVersion)
	}

	next := cloneStatement(statement)
	next.CustomerID = stored.CustomerID
	next.Period = stored.Period
	next.CreatedAt = stored.CreatedAt
	next.CreatedBy = stored.CreatedBy
	next.Version = expectedVersion + 1
	s.statements[statement.StatementID] = next
	return nil
}

func (s *Store) UpdateNotificationStatus(ctx context.Context, statementID string, contentHash string, status domain.NotificationStatus, errMsg string, at time.Time) (*domain.Statement, error) {
	defer s.lock(ctx)()

	stored, ok := s.statements[statementID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if stored.ContentHash != contentHash {
		return nil, fmt.Errorf("%w: statement %s was regenerated during delivery", apperrors.ErrConflict, statementID)
	}

	stored = cloneStatement(stored)
	stored.NotificationStatus = status
	stored.NotificationError = errMsg
	stored.NotifiedAt = &at
	stored.LastUpdatedAt = at
	stored.Version++
	s.statements[statementID] = stored

	c := cloneStatement(stored)
	return &c, nil
}
