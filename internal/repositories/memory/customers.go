package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

func (s *Store) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	defer s.lock(ctx)()

	c, ok := s.customers[customerID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

// FindCustomerForUpdate needs no row lock: the transaction already owns the store.
func (s *Store) FindCustomerForUpdate(ctx context.Context, customerID string) (*domain.Customer, error) {
	return s.FindCustomerByID(ctx, customerID)
}

func (s *Store) ListCustomers(ctx context.Context, activeOnly bool) ([]domain.Customer, error) {
	defer s.lock(ctx)()

	result := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if activeOnly && !c.IsActive {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].CustomerID < result[j].CustomerID
	})
	return result, nil
}

func (s *Store) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	defer s.lock(ctx)()

	if _, exists := s.customers[customer.CustomerID]; exists {
		return fmt.Errorf("%w: customer %s", apperrors.ErrDuplicate, customer.CustomerID)
	}
	s.customers[customer.CustomerID] = customer
	return nil
}

func (s *Store) UpdateOutstandingBalance(ctx context.Context, customerID string, balance decimal.Decimal, at time.Time) error {
	defer s.lock(ctx)()

	c, ok := s.customers[customerID]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.OutstandingBalance = balance
	c.LastUpdatedAt = at
	s.customers[customerID] = c
	return nil
}
