package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/core/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type NotificationServiceTestSuite struct {
	suite.Suite
	f          *fixture
	ctx        context.Context
	dispatcher *MockStatementDispatcher
	svc        portssvc.NotificationSvc
	stmt       domain.Statement
}

func (s *NotificationServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.f = newFixture()
	s.dispatcher = new(MockStatementDispatcher)
	s.svc = services.NewNotificationService(s.f.repos, s.dispatcher, 50*time.Millisecond)

	c := s.f.addCustomer(s.T(), "Meera")
	s.f.addSale(s.T(), c, "2024-03-04", "150.00", "0")
	s.f.generate(s.T(), march, false)
	found, err := s.f.repos.StatementRepo.FindStatementsByCustomerPeriod(s.ctx, c, march)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.stmt = found[0]
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}

func (s *NotificationServiceTestSuite) stored() *domain.Statement {
	stmt, err := s.f.repos.StatementRepo.FindStatementByID(s.ctx, s.stmt.StatementID)
	s.Require().NoError(err)
	return stmt
}

func (s *NotificationServiceTestSuite) TestSendStatement_Delivered() {
	s.dispatcher.On("Send", mock.Anything, mock.MatchedBy(func(msg domain.StatementMessage) bool {
		return msg.Recipient == "meera@example.com" && msg.Statement.StatementID == s.stmt.StatementID && len(msg.Sales) == 1
	})).Return(domain.Delivered("msg-123")).Once()

	result, err := s.svc.SendStatement(s.ctx, dto.SendNotificationRequest{
		StatementID:    s.stmt.StatementID,
		RecipientEmail: " meera@example.com ",
	}, testUserID)
	s.Require().NoError(err)
	s.Equal(domain.NotificationSent, result.NotificationStatus)
	s.Equal("msg-123", result.Outcome.ProviderMessageID)

	stored := s.stored()
	s.Equal(domain.NotificationSent, stored.NotificationStatus)
	s.NotNil(stored.NotifiedAt)
	s.Empty(stored.NotificationError)
	s.dispatcher.AssertExpectations(s.T())
}

func (s *NotificationServiceTestSuite) TestSendStatement_InvalidAddressWritesNothing() {
	for _, addr := range []string{"", "not-an-email", "a@"} {
		_, err := s.svc.SendStatement(s.ctx, dto.SendNotificationRequest{StatementID: s.stmt.StatementID, RecipientEmail: addr}, testUserID)
		s.ErrorIs(err, apperrors.ErrValidation, addr)
	}
	s.Equal(domain.NotificationNotSent, s.stored().NotificationStatus)
	s.dispatcher.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything)
}

func (s *NotificationServiceTestSuite) TestSendStatement_UnknownStatement() {
	_, err := s.svc.SendStatement(s.ctx, dto.SendNotificationRequest{StatementID: "missing", RecipientEmail: "x@example.com"}, testUserID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *NotificationServiceTestSuite) TestSendStatement_ProviderFailureIsRecorded() {
	s.dispatcher.On("Send", mock.Anything, mock.Anything).
		Return(domain.DeliveryFailure(domain.DeliveryFailed, "provider returned 500")).Once()

	_, err := s.svc.SendStatement(s.ctx, dto.SendNotificationRequest{StatementID: s.stmt.StatementID, RecipientEmail: "meera@example.com"}, testUserID)
	s.ErrorIs(err, apperrors.ErrDelivery)
	var deliveryErr *apperrors.DeliveryError
	s.Require().True(errors.As(err, &deliveryErr))
	s.Equal(string(domain.DeliveryFailed), deliveryErr.Reason)

	stored := s.stored()
	s.Equal(domain.NotificationFailed, stored.NotificationStatus)
	s.Contains(stored.NotificationError, "provider returned 500")
	// The statement itself is untouched.
	s.Equal(s.stmt.ContentHash, stored.ContentHash)
	s.True(s.stmt.BalanceDue.Equal(stored.BalanceDue))
}

func (s *NotificationServiceTestSuite) TestSendStatement_Timeout() {
	s.dispatcher.On("Send", mock.Anything, mock.Anything).Return(blockUntilDone).Once()

	start := time.Now()
	_, err := s.svc.SendStatement(s.ctx, dto.SendNotificationRequest{StatementID: s.stmt.StatementID, RecipientEmail: "meera@example.com"}, testUserID)
	s.Less(time.Since(start), 5*time.Second)

	var deliveryErr *apperrors.DeliveryError
	s.Require().True(errors.As(err, &deliveryErr))
	s.Equal(string(domain.DeliveryTimeout), deliveryErr.Reason)
	s.Equal(domain.NotificationFailed, s.stored().NotificationStatus)
}

func (s *NotificationServiceTestSuite) TestSendStatement_PanickingDispatcher() {
	s.dispatcher.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	}).Return(domain.Delivered("never")).Once()

	_, err := s.svc.SendStatement(s.ctx, dto.SendNotificationRequest{StatementID: s.stmt.StatementID, RecipientEmail: "meera@example.com"}, testUserID)
	s.ErrorIs(err, apperrors.ErrDelivery)
	s.Equal(domain.NotificationFailed, s.stored().NotificationStatus)
}

func (s *NotificationServiceTestSuite) TestSendStatement_RegeneratedDuringDeliveryIsNotMarkedSent() {
	c := s.stmt.CustomerID
	s.dispatcher.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		// A new sale and a regeneration land while the email is in flight.
		s.f.addSale(s.T(), c, "2024-03-05", "10.00", "0")
		s.f.generate(s.T(), march, false)
	}).Return(domain.Delivered("msg-1")).Once()

	_, err := s.svc.SendStatement(s.ctx, dto.SendNotificationRequest{StatementID: s.stmt.StatementID, RecipientEmail: "meera@example.com"}, testUserID)
	s.ErrorIs(err, apperrors.ErrConflict)

	stored := s.stored()
	s.Equal(domain.NotificationNotSent, stored.NotificationStatus)
	s.NotEqual(s.stmt.ContentHash, stored.ContentHash)
}
