package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/handlers"
	"github.com/SscSPs/dairy_billing_app/internal/middleware"
	"github.com/SscSPs/dairy_billing_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type HandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	jwtSecret    string
	userID       string
	billing      *MockBillingService
	notification *MockNotificationService
	sales        *MockSaleService
	customers    *MockCustomerService
	reconciler   *MockReconcilerService
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.userID = "user-1"

	suite.billing = new(MockBillingService)
	suite.notification = new(MockNotificationService)
	suite.sales = new(MockSaleService)
	suite.customers = new(MockCustomerService)
	suite.reconciler = new(MockReconcilerService)

	cfg := &config.Config{
		IsProduction: true,
		AuthEnabled:  true,
		JWTSecret:    suite.jwtSecret,
		RateLimit:    "1000-M",
		CORSOrigins:  []string{"http://localhost:3000"},
	}
	container := &portssvc.ServiceContainer{
		Customer:     suite.customers,
		Sale:         suite.sales,
		Billing:      suite.billing,
		Reconciler:   suite.reconciler,
		Notification: suite.notification,
	}

	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(nil))
	suite.Require().NoError(handlers.RegisterRoutes(suite.router, cfg, container, handlers.RouteDeps{}))
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.billing.AssertExpectations(suite.T())
	suite.notification.AssertExpectations(suite.T())
	suite.sales.AssertExpectations(suite.T())
	suite.customers.AssertExpectations(suite.T())
	suite.reconciler.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) token() string {
	claims := jwt.RegisteredClaims{
		Issuer:    "dairy-test",
		Subject:   suite.userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(suite.jwtSecret))
	suite.Require().NoError(err)
	return signed
}

func (suite *HandlerTestSuite) do(method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+suite.token())
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v))
}

func (suite *HandlerTestSuite) TestHealth_NoAuth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestMissingToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/monthly?month=3&year=2024", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestGenerateBills_Success() {
	report := domain.NewGenerationReport(domain.NewPeriod(3, 2024), []domain.GenerationResult{
		{CustomerID: "c1", CustomerName: "Asha", Outcome: domain.GenerationCreated, StatementID: "s1"},
	})
	suite.billing.On("GenerateBills", mock.Anything,
		dto.GenerateBillsRequest{Month: 3, Year: 2024, Force: false}, suite.userID,
	).Return(report, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/billing/generate", `{"month":3,"year":2024}`)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.GenerationReportResponse
	suite.decode(w, &resp)
	suite.Equal(1, resp.Created)
	suite.Equal(report.Message, resp.Message)
	suite.Len(resp.Results, 1)
}

func (suite *HandlerTestSuite) TestGenerateBills_InvalidMonth() {
	w := suite.do(http.MethodPost, "/api/v1/billing/generate", `{"month":13,"year":2024}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListMonthly_RequiresPeriod() {
	w := suite.do(http.MethodGet, "/api/v1/billing/monthly", "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestListMonthly_Success() {
	stmts := []domain.Statement{{StatementID: "s1", CustomerID: "c1", CustomerName: "Asha", Period: domain.NewPeriod(3, 2024), SalesCount: 2}}
	suite.billing.On("ListStatementsForPeriod", mock.Anything, domain.NewPeriod(3, 2024)).Return(stmts, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/billing/monthly?month=3&year=2024", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp []dto.StatementSummaryResponse
	suite.decode(w, &resp)
	suite.Require().Len(resp, 1)
	suite.Equal("s1", resp[0].StatementID)
	suite.Equal(3, resp[0].Month)
}

func (suite *HandlerTestSuite) TestGetStatement_NotFound() {
	suite.billing.On("GetStatement", mock.Anything, "missing").
		Return(nil, fmt.Errorf("failed to get statement: %w", apperrors.ErrNotFound)).Once()

	w := suite.do(http.MethodGet, "/api/v1/billing/statements/missing", "")

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestExportStatement_PDF() {
	doc := &domain.StatementDocument{Filename: "statement-2024-03-c1.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3")}
	suite.billing.On("ExportStatement", mock.Anything, "s1", domain.ExportFormatPDF).Return(doc, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/billing/statements/s1/export", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("application/pdf", w.Header().Get("Content-Type"))
	suite.Contains(w.Header().Get("Content-Disposition"), "statement-2024-03-c1.pdf")
	suite.Equal("%PDF-1.3", w.Body.String())
}

func (suite *HandlerTestSuite) TestExportStatement_BadFormat() {
	w := suite.do(http.MethodGet, "/api/v1/billing/statements/s1/export?format=csv", "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestStatementPayment_Success() {
	result := &domain.StatementPaymentResult{
		Statement:          domain.Statement{StatementID: "s1", Period: domain.NewPeriod(3, 2024)},
		Outcome:            domain.GenerationReplaced,
		Allocations:        []domain.PaymentAllocation{{SaleID: "a", Amount: decimal.NewFromInt(300)}},
		OutstandingBalance: decimal.NewFromInt(0),
	}
	suite.billing.On("RecordStatementPayment", mock.Anything, "s1",
		mock.MatchedBy(func(r dto.StatementPaymentRequest) bool { return r.Amount.Equal(decimal.NewFromInt(300)) }),
		suite.userID,
	).Return(result, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/billing/statements/s1/payments", `{"amount":"300.00"}`)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.StatementPaymentResponse
	suite.decode(w, &resp)
	suite.Equal("REPLACED", resp.Outcome)
	suite.Len(resp.Allocations, 1)
}

func (suite *HandlerTestSuite) TestSendNotification_DeliveryFailure() {
	suite.notification.On("SendStatement", mock.Anything,
		dto.SendNotificationRequest{StatementID: "s1", RecipientEmail: "a@example.com"}, suite.userID,
	).Return(nil, &apperrors.DeliveryError{Reason: "timeout", Detail: "no response within 15s"}).Once()

	w := suite.do(http.MethodPost, "/api/v1/billing/send-notification", `{"statementID":"s1","recipientEmail":"a@example.com"}`)

	suite.Equal(http.StatusBadGateway, w.Code)
	var body map[string]string
	suite.decode(w, &body)
	suite.Equal("timeout", body["reason"])
}

func (suite *HandlerTestSuite) TestSendNotification_InvalidAddress() {
	suite.notification.On("SendStatement", mock.Anything, mock.Anything, suite.userID).
		Return(nil, fmt.Errorf("%w: invalid_address: recipient \"\" is not a valid email address", apperrors.ErrValidation)).Once()

	w := suite.do(http.MethodPost, "/api/v1/billing/send-notification", `{"statementID":"s1"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCreateSale_Success() {
	customerID := "c1"
	sale := &domain.SaleRecord{
		SaleID:      "sale-1",
		CustomerID:  &customerID,
		SaleDate:    time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(125),
		PaidAmount:  decimal.Zero,
	}
	suite.sales.On("CreateSale", mock.Anything,
		mock.MatchedBy(func(r dto.CreateSaleRequest) bool { return r.CustomerID == "c1" && len(r.Items) == 1 }),
		suite.userID,
	).Return(sale, nil).Once()

	body := `{"customerID":"c1","saleDate":"2024-03-05","items":[{"productID":"p1","productName":"Milk","unit":"litre","quantity":"2","unitPrice":"62.50"}]}`
	w := suite.do(http.MethodPost, "/api/v1/sales", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.SaleResponse
	suite.decode(w, &resp)
	suite.Equal("2024-03-05", resp.SaleDate)
	suite.False(resp.IsGuest)
}

func (suite *HandlerTestSuite) TestCreateSale_NoItems() {
	w := suite.do(http.MethodPost, "/api/v1/sales", `{"customerID":"c1","saleDate":"2024-03-05","items":[]}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteSale_Billed() {
	suite.sales.On("DeleteSale", mock.Anything, "sale-1", suite.userID).
		Return(fmt.Errorf("%w: sale is included in a statement", apperrors.ErrConflict)).Once()

	w := suite.do(http.MethodDelete, "/api/v1/sales/sale-1", "")

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteSale_Success() {
	suite.sales.On("DeleteSale", mock.Anything, "sale-1", suite.userID).Return(nil).Once()

	w := suite.do(http.MethodDelete, "/api/v1/sales/sale-1", "")

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestRecordSalePayment_Decrease() {
	suite.sales.On("RecordSalePayment", mock.Anything, "sale-1", mock.Anything, suite.userID).
		Return(nil, fmt.Errorf("%w: paid amount cannot decrease", apperrors.ErrValidation)).Once()

	w := suite.do(http.MethodPut, "/api/v1/sales/sale-1/payment", `{"paidAmount":"10"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestCreateGuestSale() {
	sale := &domain.SaleRecord{SaleID: "g1", CustomerName: domain.DefaultGuestName, TotalAmount: decimal.NewFromInt(50), PaidAmount: decimal.NewFromInt(50)}
	suite.sales.On("CreateGuestSale", mock.Anything, mock.Anything, suite.userID).Return(sale, nil).Once()

	body := `{"saleDate":"2024-03-05","items":[{"productID":"p1","productName":"Curd","unit":"kg","quantity":"1","unitPrice":"50"}]}`
	w := suite.do(http.MethodPost, "/api/v1/guest-sales", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.SaleResponse
	suite.decode(w, &resp)
	suite.True(resp.IsGuest)
	suite.True(resp.IsPaid)
}

func (suite *HandlerTestSuite) TestReconcileCustomer() {
	suite.reconciler.On("RecomputeOutstanding", mock.Anything, "c1").Return(decimal.NewFromInt(105), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/customers/c1/reconcile", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ReconcileResponse
	suite.decode(w, &resp)
	suite.True(resp.OutstandingBalance.Equal(decimal.NewFromInt(105)))
}

func (suite *HandlerTestSuite) TestReconcileAll() {
	results := []domain.ReconciliationResult{{CustomerID: "c1", OutstandingBalance: decimal.NewFromInt(5), Changed: true}}
	suite.reconciler.On("ReconcileAll", mock.Anything).Return(results, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/customers/reconcile", "")

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestGetCustomer_NotFound() {
	suite.customers.On("GetCustomer", mock.Anything, "nope").Return(nil, apperrors.ErrNotFound).Once()

	w := suite.do(http.MethodGet, "/api/v1/customers/nope", "")

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestInvariantViolation_IsInternal() {
	suite.billing.On("ListStatementsForCustomer", mock.Anything, "c1").
		Return(nil, fmt.Errorf("%w: two statements for one period", apperrors.ErrInvariantViolation)).Once()

	w := suite.do(http.MethodGet, "/api/v1/billing/customers/c1", "")

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "two statements")
}
