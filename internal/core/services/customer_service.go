package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portsrepo "github.com/SscSPs/dairy_billing_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/utils/billing"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type customerService struct {
	BaseService
	customerRepo portsrepo.CustomerRepositoryFacade
	validate     *validator.Validate
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(customerRepo portsrepo.CustomerRepositoryFacade) portssvc.CustomerSvcFacade {
	return &customerService{
		customerRepo: customerRepo,
		validate:     validator.New(),
	}
}

var _ portssvc.CustomerSvcFacade = (*customerService)(nil)

func (s *customerService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest, userID string) (*domain.Customer, error) {
	// --- Basic Validation ---
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: customer name is required", apperrors.ErrValidation)
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if err := s.validate.Var(email, "email"); err != nil {
			return nil, fmt.Errorf("%w: invalid email %q", apperrors.ErrValidation, email)
		}
	}
	// Absent limit means the shop default, an explicit zero means no credit
	creditLimit := domain.DefaultCreditLimit
	if req.CreditLimit != nil {
		creditLimit = *req.CreditLimit
	}
	if err := billing.ValidateMoney(creditLimit, "creditLimit"); err != nil {
		return nil, err
	}

	// New customers start with nothing owed
	now := s.Now()
	customer := domain.Customer{
		CustomerID:         uuid.NewString(),
		Name:               name,
		Phone:              strings.TrimSpace(req.Phone),
		Address:            strings.TrimSpace(req.Address),
		Email:              email,
		CreditLimit:        creditLimit,
		OutstandingBalance: decimal.Zero,
		IsActive:           true,
		AuditFields:        domain.NewAuditFields(userID, now),
	}

	if err := s.customerRepo.SaveCustomer(ctx, customer); err != nil {
		s.LogError(ctx, err, "Failed to save customer", slog.String("name", name))
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	s.LogInfo(ctx, "Customer created", slog.String("customer_id", customer.CustomerID))
	return &customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", customerID, err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, params dto.ListCustomersParams) ([]domain.Customer, error) {
	customers, err := s.customerRepo.ListCustomers(ctx, params.ActiveOnly)
	if err != nil {
		s.LogError(ctx, err, "Failed to list customers")
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}
