package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/dto"
	"github.com/SscSPs/dairy_billing_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// saleHandler handles HTTP requests related to sales.
type saleHandler struct {
	saleService portssvc.SaleSvcFacade
}

func newSaleHandler(ss portssvc.SaleSvcFacade) *saleHandler {
	return &saleHandler{saleService: ss}
}

// registerSaleRoutes registers routes related to sales.
func registerSaleRoutes(rg *gin.RouterGroup, saleService portssvc.SaleSvcFacade) {
	h := newSaleHandler(saleService)

	sales := rg.Group("/sales")
	{
		sales.POST("", h.createSale)
		sales.GET("", h.listSales)
		sales.GET("/:saleID", h.getSale)
		sales.PUT("/:saleID/payment", h.recordSalePayment)
		sales.DELETE("/:saleID", h.deleteSale)
	}
	rg.POST("/guest-sales", h.createGuestSale)
}

// createSale godoc
// @Summary Record a sale to a registered customer
// @Description Line totals and the sale total are computed from the items
// @Tags sales
// @Accept  json
// @Produce  json
// @Param   sale body dto.CreateSaleRequest true "Sale details"
// @Success 201 {object} dto.SaleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Customer not found"
// @Failure 500 {object} map[string]string "Failed to create sale"
// @Security BearerAuth
// @Router /sales [post]
func (h *saleHandler) createSale(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, "CreateSale", err)
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), req, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, logger.With(slog.String("customer_id", req.CustomerID)), err, "Failed to create sale")
		return
	}

	logger.Info("Sale created", slog.String("sale_id", sale.SaleID), slog.String("total", sale.TotalAmount.StringFixed(2)))
	c.JSON(http.StatusCreated, dto.ToSaleResponse(sale))
}

// createGuestSale godoc
// @Summary Record an anonymous counter sale
// @Description Guest sales are paid in full and never appear on a statement
// @Tags sales
// @Accept  json
// @Produce  json
// @Param   sale body dto.CreateGuestSaleRequest true "Sale details"
// @Success 201 {object} dto.SaleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to create sale"
// @Security BearerAuth
// @Router /guest-sales [post]
func (h *saleHandler) createGuestSale(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateGuestSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, "CreateGuestSale", err)
		return
	}

	sale, err := h.saleService.CreateGuestSale(c.Request.Context(), req, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, logger, err, "Failed to create sale")
		return
	}

	c.JSON(http.StatusCreated, dto.ToSaleResponse(sale))
}

// listSales godoc
// @Summary List sales
// @Description Newest first, paginated with an opaque token
// @Tags sales
// @Produce  json
// @Param   customerID query string false "Filter by customer"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListSalesResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 500 {object} map[string]string "Failed to list sales"
// @Security BearerAuth
// @Router /sales [get]
func (h *saleHandler) listSales(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListSalesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, "ListSales", err)
		return
	}

	page, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list sales")
		return
	}

	c.JSON(http.StatusOK, page)
}

// getSale godoc
// @Summary Get a sale
// @Tags sales
// @Produce  json
// @Param   saleID path string true "Sale ID"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} map[string]string "Sale not found"
// @Failure 500 {object} map[string]string "Failed to retrieve sale"
// @Security BearerAuth
// @Router /sales/{saleID} [get]
func (h *saleHandler) getSale(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	saleID := c.Param("saleID")

	sale, err := h.saleService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		respondError(c, logger.With(slog.String("sale_id", saleID)), err, "Failed to retrieve sale")
		return
	}

	c.JSON(http.StatusOK, dto.ToSaleResponse(sale))
}

// recordSalePayment godoc
// @Summary Record a payment on a sale
// @Description Sets the new cumulative paid amount. It may only increase and never exceed the total.
// @Tags sales
// @Accept  json
// @Produce  json
// @Param   saleID path string true "Sale ID"
// @Param   request body dto.RecordSalePaymentRequest true "Paid amount"
// @Success 200 {object} dto.SaleResponse
// @Failure 400 {object} map[string]string "Invalid amount"
// @Failure 404 {object} map[string]string "Sale not found"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Failure 500 {object} map[string]string "Failed to record payment"
// @Security BearerAuth
// @Router /sales/{saleID}/payment [put]
func (h *saleHandler) recordSalePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	saleID := c.Param("saleID")
	var req dto.RecordSalePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, "RecordSalePayment", err)
		return
	}

	sale, err := h.saleService.RecordSalePayment(c.Request.Context(), saleID, req, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, logger.With(slog.String("sale_id", saleID)), err, "Failed to record payment")
		return
	}

	c.JSON(http.StatusOK, dto.ToSaleResponse(sale))
}

// deleteSale godoc
// @Summary Delete a sale
// @Description Refused once the sale is included in a statement
// @Tags sales
// @Param   saleID path string true "Sale ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Sale not found"
// @Failure 409 {object} map[string]string "Sale already billed"
// @Failure 500 {object} map[string]string "Failed to delete sale"
// @Security BearerAuth
// @Router /sales/{saleID} [delete]
func (h *saleHandler) deleteSale(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	saleID := c.Param("saleID")

	if err := h.saleService.DeleteSale(c.Request.Context(), saleID, middleware.ActorFromContext(c)); err != nil {
		respondError(c, logger.With(slog.String("sale_id", saleID)), err, "Failed to delete sale")
		return
	}

	logger.Info("Sale deleted", slog.String("sale_id", saleID))
	c.Status(http.StatusNoContent)
}
