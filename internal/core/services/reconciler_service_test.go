package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReconcilerServiceTestSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *ReconcilerServiceTestSuite) SetupTest() {
	s.f = newFixture()
	s.ctx = context.Background()
}

func TestReconcilerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerServiceTestSuite))
}

func (s *ReconcilerServiceTestSuite) TestRecomputeOutstanding_StatementsPlusUnbilled() {
	c := s.f.addCustomer(s.T(), "Uma")
	s.f.addSale(s.T(), c, "2024-03-01", "100.00", "25.00")
	s.f.addSale(s.T(), c, "2024-03-09", "50.00", "50.00")
	s.f.generate(s.T(), march, false)
	s.f.addSale(s.T(), c, "2024-04-02", "40.00", "10.00")

	balance, err := s.f.reconciler.RecomputeOutstanding(s.ctx, c)
	s.Require().NoError(err)
	s.True(dec("105").Equal(balance), balance.String())
}

func (s *ReconcilerServiceTestSuite) TestRecomputeOutstanding_RepairsDrift() {
	c := s.f.addCustomer(s.T(), "Vani")
	s.f.addSale(s.T(), c, "2024-03-01", "80.00", "0")
	s.Require().NoError(s.f.repos.CustomerRepo.UpdateOutstandingBalance(s.ctx, c, decimal.NewFromInt(9999), fixedNow))

	balance, err := s.f.reconciler.RecomputeOutstanding(s.ctx, c)
	s.Require().NoError(err)
	s.True(dec("80").Equal(balance))
	s.True(dec("80").Equal(s.f.balance(s.T(), c)))
}

func (s *ReconcilerServiceTestSuite) TestRecomputeOutstanding_UnknownCustomer() {
	_, err := s.f.reconciler.RecomputeOutstanding(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ReconcilerServiceTestSuite) TestReconcileAll_ReportsChanges() {
	a := s.f.addCustomer(s.T(), "Anu")
	b := s.f.addCustomer(s.T(), "Bindu")
	s.f.addSale(s.T(), a, "2024-03-01", "80.00", "0")
	s.Require().NoError(s.f.repos.CustomerRepo.UpdateOutstandingBalance(s.ctx, b, decimal.NewFromInt(5), fixedNow))

	results, err := s.f.reconciler.ReconcileAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(results, 2)

	s.Equal(a, results[0].CustomerID)
	s.False(results[0].Changed)
	s.True(dec("80").Equal(results[0].OutstandingBalance))

	s.Equal(b, results[1].CustomerID)
	s.True(results[1].Changed)
	s.True(dec("5").Equal(results[1].PreviousBalance))
	s.True(results[1].OutstandingBalance.IsZero())
}
