package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// customerHandler handles HTTP requests related to customers.
type customerHandler struct {
	customerService   portssvc.CustomerSvcFacade
	reconcilerService portssvc.ReconcilerSvc
}

func newCustomerHandler(cs portssvc.CustomerSvcFacade, rs portssvc.ReconcilerSvc) *customerHandler {
	return &customerHandler{
		customerService:   cs,
		reconcilerService: rs,
	}
}

// registerCustomerRoutes registers routes related to customers.
func registerCustomerRoutes(rg *gin.RouterGroup, customerService portssvc.CustomerSvcFacade, reconcilerService portssvc.ReconcilerSvc) {
	h := newCustomerHandler(customerService, reconcilerService)

	customers := rg.Group("/customers")
	{
		customers.POST("", h.createCustomer)
		customers.GET("", h.listCustomers)
		customers.POST("/reconcile", h.reconcileAll)
		customers.GET("/:customerID", h.getCustomer)
		customers.POST("/:customerID/reconcile", h.reconcileCustomer)
	}
}

// createCustomer godoc
// @Summary Register a customer
// @Tags customers
// @Accept  json
// @Produce  json
// @Param   customer body dto.CreateCustomerRequest true "Customer details"
// @Success 201 {object} dto.CustomerResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to create customer"
// @Security BearerAuth
// @Router /customers [post]
func (h *customerHandler) createCustomer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, "CreateCustomer", err)
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, logger, err, "Failed to create customer")
		return
	}

	logger.Info("Customer created", slog.String("customer_id", customer.CustomerID))
	c.JSON(http.StatusCreated, dto.ToCustomerResponse(customer))
}

// listCustomers godoc
// @Summary List customers
// @Tags customers
// @Produce  json
// @Param   activeOnly query bool false "Only active customers" default(true)
// @Success 200 {array} dto.CustomerResponse
// @Failure 500 {object} map[string]string "Failed to list customers"
// @Security BearerAuth
// @Router /customers [get]
func (h *customerHandler) listCustomers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListCustomersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, "ListCustomers", err)
		return
	}

	customers, err := h.customerService.ListCustomers(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list customers")
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerResponses(customers))
}

// getCustomer godoc
// @Summary Get a customer
// @Tags customers
// @Produce  json
// @Param   customerID path string true "Customer ID"
// @Success 200 {object} dto.CustomerResponse
// @Failure 404 {object} map[string]string "Customer not found"
// @Failure 500 {object} map[string]string "Failed to retrieve customer"
// @Security BearerAuth
// @Router /customers/{customerID} [get]
func (h *customerHandler) getCustomer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	customerID := c.Param("customerID")

	customer, err := h.customerService.GetCustomer(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, logger.With(slog.String("customer_id", customerID)), err, "Failed to retrieve customer")
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerResponse(customer))
}

// reconcileCustomer godoc
// @Summary Recompute a customer's outstanding balance
// @Tags customers
// @Produce  json
// @Param   customerID path string true "Customer ID"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 404 {object} map[string]string "Customer not found"
// @Failure 500 {object} map[string]string "Failed to reconcile balance"
// @Security BearerAuth
// @Router /customers/{customerID}/reconcile [post]
func (h *customerHandler) reconcileCustomer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	customerID := c.Param("customerID")

	balance, err := h.reconcilerService.RecomputeOutstanding(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, logger.With(slog.String("customer_id", customerID)), err, "Failed to reconcile balance")
		return
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{CustomerID: customerID, OutstandingBalance: balance})
}

// reconcileAll godoc
// @Summary Recompute every customer's outstanding balance
// @Tags customers
// @Produce  json
// @Success 200 {array} domain.ReconciliationResult
// @Failure 500 {object} map[string]string "Failed to reconcile balances"
// @Security BearerAuth
// @Router /customers/reconcile [post]
func (h *customerHandler) reconcileAll(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	results, err := h.reconcilerService.ReconcileAll(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile balances")
		return
	}

	c.JSON(http.StatusOK, results)
}
