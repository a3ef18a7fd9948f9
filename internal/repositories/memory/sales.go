package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	"github.com/SscSPs/dairy_billing_app/internal/utils/billing"
	"github.com/SscSPs/dairy_billing_app/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

func (s *Store) FindSaleByID(ctx context.Context, saleID string) (*domain.SaleRecord, error) {
	defer s.lock(ctx)()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := cloneSale(sale)
	return &c, nil
}

func (s *Store) FindSalesByIDs(ctx context.Context, saleIDs []string) ([]domain.SaleRecord, error) {
	defer s.lock(ctx)()

	result := make([]domain.SaleRecord, 0, len(saleIDs))
	for _, id := range saleIDs {
		if sale, ok := s.sales[id]; ok {
			result = append(result, cloneSale(sale))
		}
	}
	billing.SortRecords(result)
	return result, nil
}

func (s *Store) RecordsForPeriod(ctx context.Context, customerID *string, period domain.Period) ([]domain.SaleRecord, error) {
	defer s.lock(ctx)()

	result := make([]domain.SaleRecord, 0)
	for _, sale := range s.sales {
		if sale.IsGuest() || !period.Contains(sale.SaleDate) {
			continue
		}
		if customerID != nil && !sale.BelongsTo(*customerID) {
			continue
		}
		result = append(result, cloneSale(sale))
	}
	billing.SortRecords(result)
	return result, nil
}

func (s *Store) ListSalesByCustomer(ctx context.Context, customerID string) ([]domain.SaleRecord, error) {
	defer s.lock(ctx)()

	result := make([]domain.SaleRecord, 0)
	for _, sale := range s.sales {
		if sale.BelongsTo(customerID) {
			result = append(result, cloneSale(sale))
		}
	}
	billing.SortRecords(result)
	return result, nil
}

func (s *Store) ListSales(ctx context.Context, customerID *string, limit int, nextToken *string) ([]domain.SaleRecord, *string, error) {
	defer s.lock(ctx)()

	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	rows := make([]domain.SaleRecord, 0)
	for _, sale := range s.sales {
		if customerID != nil && !sale.BelongsTo(*customerID) {
			continue
		}
		if cursor != nil && !cursor.After(sale.SaleDate, sale.CreatedAt, sale.SaleID) {
			continue
		}
		rows = append(rows, sale)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.SaleDate.Equal(b.SaleDate) {
			return a.SaleDate.After(b.SaleDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.SaleID > b.SaleID
	})

	var token *string
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		t := pagination.EncodeToken(last.SaleDate, last.CreatedAt, last.SaleID)
		token = &t
	}

	result := make([]domain.SaleRecord, len(rows))
	for i, r := range rows {
		result[i] = cloneSale(r)
	}
	return result, token, nil
}

func (s *Store) SaveSale(ctx context.Context, sale domain.SaleRecord) error {
	defer s.lock(ctx)()

	if _, exists := s.sales[sale.SaleID]; exists {
		return fmt.Errorf("%w: sale %s", apperrors.ErrDuplicate, sale.SaleID)
	}
	s.sales[sale.SaleID] = cloneSale(sale)
	return nil
}

func (s *Store) UpdateSalePaidAmount(ctx context.Context, saleID string, paidAmount decimal.Decimal, userID string, at time.Time) error {
	defer s.lock(ctx)()

	sale, ok := s.sales[saleID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if paidAmount.LessThan(sale.PaidAmount) || paidAmount.GreaterThan(sale.TotalAmount) {
		return fmt.Errorf("%w: paid amount for sale %s moved to %s", apperrors.ErrConflict, saleID, sale.PaidAmount.StringFixed(2))
	}
	sale = cloneSale(sale)
	sale.PaidAmount = paidAmount
	sale.LastUpdatedAt = at
	sale.LastUpdatedBy = userID
	s.sales[saleID] = sale
	return nil
}

func (s *Store) DeleteSale(ctx context.Context, saleID string) error {
	defer s.lock(ctx)()

	if _, ok := s.sales[saleID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.sales, saleID)
	return nil
}
