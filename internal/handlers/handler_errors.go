package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/dairy_billing_app/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses. Only validation and
// conflict messages are echoed back; everything else gets fallback.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var deliveryErr *apperrors.DeliveryError
	switch {
	case errors.As(err, &deliveryErr):
		logger.Warn("Statement delivery failed", slog.String("reason", deliveryErr.Reason), slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": deliveryErr.Error(), "reason": deliveryErr.Reason})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflict", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvariantViolation):
		logger.Error("Invariant violation", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func bindError(c *gin.Context, logger *slog.Logger, op string, err error) {
	logger.Warn("Failed to bind request for "+op, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
}
