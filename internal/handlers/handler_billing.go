package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/dairy_billing_app/internal/core/domain"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// billingHandler handles HTTP requests related to monthly statements.
type billingHandler struct {
	billingService      portssvc.BillingSvcFacade
	notificationService portssvc.NotificationSvc
}

func newBillingHandler(bs portssvc.BillingSvcFacade, ns portssvc.NotificationSvc) *billingHandler {
	return &billingHandler{
		billingService:      bs,
		notificationService: ns,
	}
}

// registerBillingRoutes registers routes related to billing.
func registerBillingRoutes(rg *gin.RouterGroup, billingService portssvc.BillingSvcFacade, notificationService portssvc.NotificationSvc) {
	h := newBillingHandler(billingService, notificationService)

	billing := rg.Group("/billing")
	{
		billing.GET("/monthly", h.listMonthlyStatements)
		billing.POST("/generate", h.generateBills)
		billing.POST("/send-notification", h.sendNotification)
		billing.GET("/customers/:customerID", h.listCustomerStatements)

		statements := billing.Group("/statements/:statementID")
		{
			statements.GET("", h.getStatement)
			statements.GET("/export", h.exportStatement)
			statements.POST("/payments", h.recordStatementPayment)
		}
	}
}

// generateBills godoc
// @Summary Generate monthly bills
// @Description Creates or refreshes one statement per customer with sales in the month. Delivered statements are only replaced with force.
// @Tags billing
// @Accept  json
// @Produce  json
// @Param   request body dto.GenerateBillsRequest true "Billing period"
// @Success 200 {object} dto.GenerationReportResponse
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 500 {object} map[string]string "Failed to generate bills"
// @Security BearerAuth
// @Router /billing/generate [post]
func (h *billingHandler) generateBills(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.GenerateBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, "GenerateBills", err)
		return
	}

	userID := middleware.ActorFromContext(c)
	logger.Info("Received request to generate bills",
		slog.Int("month", req.Month), slog.Int("year", req.Year), slog.Bool("force", req.Force))

	report, err := h.billingService.GenerateBills(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to generate bills")
		return
	}

	c.JSON(http.StatusOK, dto.ToGenerationReportResponse(report))
}

// listMonthlyStatements godoc
// @Summary List statements for a month
// @Description Returns statement summaries for the given month and year
// @Tags billing
// @Produce  json
// @Param   month query int true "Month (1-12)"
// @Param   year query int true "Year"
// @Success 200 {array} dto.StatementSummaryResponse
// @Failure 400 {object} map[string]string "Invalid period"
// @Failure 500 {object} map[string]string "Failed to list statements"
// @Security BearerAuth
// @Router /billing/monthly [get]
func (h *billingHandler) listMonthlyStatements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, logger, "ListMonthlyStatements", err)
		return
	}

	statements, err := h.billingService.ListStatementsForPeriod(c.Request.Context(), domain.NewPeriod(q.Month, q.Year))
	if err != nil {
		respondError(c, logger, err, "Failed to list statements")
		return
	}

	c.JSON(http.StatusOK, dto.ToStatementSummaryResponses(statements))
}

// listCustomerStatements godoc
// @Summary List a customer's statements
// @Tags billing
// @Produce  json
// @Param   customerID path string true "Customer ID"
// @Success 200 {array} dto.StatementResponse
// @Failure 404 {object} map[string]string "Customer not found"
// @Failure 500 {object} map[string]string "Failed to list statements"
// @Security BearerAuth
// @Router /billing/customers/{customerID} [get]
func (h *billingHandler) listCustomerStatements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	customerID := c.Param("customerID")

	statements, err := h.billingService.ListStatementsForCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, logger.With(slog.String("customer_id", customerID)), err, "Failed to list statements")
		return
	}

	responses := make([]dto.StatementResponse, len(statements))
	for i := range statements {
		responses[i] = dto.ToStatementResponse(&statements[i])
	}
	c.JSON(http.StatusOK, responses)
}

// getStatement godoc
// @Summary Get a statement
// @Description Returns the statement with its frozen lines and the current state of the sales it covers
// @Tags billing
// @Produce  json
// @Param   statementID path string true "Statement ID"
// @Success 200 {object} dto.StatementDetailResponse
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 500 {object} map[string]string "Failed to retrieve statement"
// @Security BearerAuth
// @Router /billing/statements/{statementID} [get]
func (h *billingHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	statementID := c.Param("statementID")

	detail, err := h.billingService.GetStatement(c.Request.Context(), statementID)
	if err != nil {
		respondError(c, logger.With(slog.String("statement_id", statementID)), err, "Failed to retrieve statement")
		return
	}

	c.JSON(http.StatusOK, dto.ToStatementDetailResponse(detail))
}

// exportStatement godoc
// @Summary Export a statement
// @Tags billing
// @Produce  application/pdf
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param   statementID path string true "Statement ID"
// @Param   format query string false "pdf or xlsx" Enums(pdf, xlsx)
// @Success 200 {file} file
// @Failure 400 {object} map[string]string "Unsupported format"
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 500 {object} map[string]string "Failed to export statement"
// @Security BearerAuth
// @Router /billing/statements/{statementID}/export [get]
func (h *billingHandler) exportStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	statementID := c.Param("statementID")
	var q dto.ExportStatementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, logger, "ExportStatement", err)
		return
	}

	doc, err := h.billingService.ExportStatement(c.Request.Context(), statementID, domain.ExportFormat(q.Format))
	if err != nil {
		respondError(c, logger.With(slog.String("statement_id", statementID)), err, "Failed to export statement")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// recordStatementPayment godoc
// @Summary Record a payment against a statement
// @Description Applies the amount to the statement's unpaid sales, oldest first, then reissues the statement
// @Tags billing
// @Accept  json
// @Produce  json
// @Param   statementID path string true "Statement ID"
// @Param   request body dto.StatementPaymentRequest true "Payment"
// @Success 200 {object} dto.StatementPaymentResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Failure 500 {object} map[string]string "Failed to record payment"
// @Security BearerAuth
// @Router /billing/statements/{statementID}/payments [post]
func (h *billingHandler) recordStatementPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	statementID := c.Param("statementID")
	var req dto.StatementPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, "RecordStatementPayment", err)
		return
	}

	result, err := h.billingService.RecordStatementPayment(c.Request.Context(), statementID, req, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, logger.With(slog.String("statement_id", statementID)), err, "Failed to record payment")
		return
	}

	c.JSON(http.StatusOK, dto.ToStatementPaymentResponse(result))
}

// sendNotification godoc
// @Summary Send a statement to the customer
// @Tags billing
// @Accept  json
// @Produce  json
// @Param   request body dto.SendNotificationRequest true "Statement and recipient"
// @Success 200 {object} dto.NotificationResponse
// @Failure 400 {object} map[string]string "Invalid address"
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 409 {object} map[string]string "Statement regenerated during delivery"
// @Failure 502 {object} map[string]string "Delivery failed"
// @Security BearerAuth
// @Router /billing/send-notification [post]
func (h *billingHandler) sendNotification(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, "SendNotification", err)
		return
	}

	result, err := h.notificationService.SendStatement(c.Request.Context(), req, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, logger.With(slog.String("statement_id", req.StatementID)), err, "Failed to send statement")
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationResponse(result))
}
