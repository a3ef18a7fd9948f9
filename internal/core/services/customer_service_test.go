package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/core/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock CustomerRepository ---
type MockCustomerRepository struct {
	mock.Mock
}

var _ portsrepo.CustomerRepositoryFacade = (*MockCustomerRepository)(nil)

func (m *MockCustomerRepository) FindCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindCustomerForUpdate(ctx context.Context, customerID string) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListCustomers(ctx context.Context, activeOnly bool) ([]domain.Customer, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) SaveCustomer(ctx context.Context, customer domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) UpdateOutstandingBalance(ctx context.Context, customerID string, balance decimal.Decimal, at time.Time) error {
	args := m.Called(ctx, customerID, balance, at)
	return args.Error(0)
}

type CustomerServiceTestSuite struct {
	suite.Suite
	mockRepo *MockCustomerRepository
	svc      portssvc.CustomerSvcFacade
	ctx      context.Context
}

func (s *CustomerServiceTestSuite) SetupTest() {
	s.mockRepo = new(MockCustomerRepository)
	s.svc = services.NewCustomerService(s.mockRepo)
	s.ctx = context.Background()
}

func TestCustomerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CustomerServiceTestSuite))
}

func (s *CustomerServiceTestSuite) TestCreateCustomer_Success() {
	s.mockRepo.On("SaveCustomer", s.ctx, mock.MatchedBy(func(c domain.Customer) bool {
		return c.Name == "Yamuna" && c.IsActive && c.CreditLimit.Equal(domain.DefaultCreditLimit) &&
			c.OutstandingBalance.IsZero() && c.CreatedBy == testUserID && c.CustomerID != ""
	})).Return(nil).Once()

	customer, err := s.svc.CreateCustomer(s.ctx, dto.CreateCustomerRequest{Name: " Yamuna ", Phone: "98450", Email: "y@example.com"}, testUserID)
	s.Require().NoError(err)
	s.Equal("Yamuna", customer.Name)
	s.mockRepo.AssertExpectations(s.T())
}

func (s *CustomerServiceTestSuite) TestCreateCustomer_Validation() {
	_, err := s.svc.CreateCustomer(s.ctx, dto.CreateCustomerRequest{Name: "  "}, testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.CreateCustomer(s.ctx, dto.CreateCustomerRequest{Name: "Z", Email: "nope"}, testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	negative := decimal.NewFromInt(-1)
	_, err = s.svc.CreateCustomer(s.ctx, dto.CreateCustomerRequest{Name: "Z", CreditLimit: &negative}, testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	s.mockRepo.AssertNotCalled(s.T(), "SaveCustomer", mock.Anything, mock.Anything)
}

func (s *CustomerServiceTestSuite) TestCreateCustomer_RepositoryError() {
	repoErr := errors.New("db down")
	s.mockRepo.On("SaveCustomer", s.ctx, mock.AnythingOfType("domain.Customer")).Return(repoErr).Once()

	_, err := s.svc.CreateCustomer(s.ctx, dto.CreateCustomerRequest{Name: "Zoya"}, testUserID)
	s.ErrorIs(err, repoErr)
}

func (s *CustomerServiceTestSuite) TestGetCustomer_NotFound() {
	s.mockRepo.On("FindCustomerByID", s.ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := s.svc.GetCustomer(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *CustomerServiceTestSuite) TestListCustomers_PassesFilter() {
	expected := []domain.Customer{{CustomerID: "c1", Name: "A"}}
	s.mockRepo.On("ListCustomers", s.ctx, false).Return(expected, nil).Once()

	customers, err := s.svc.ListCustomers(s.ctx, dto.ListCustomersParams{ActiveOnly: false})
	s.Require().NoError(err)
	s.Equal(expected, customers)
	s.mockRepo.AssertExpectations(s.T())
}
