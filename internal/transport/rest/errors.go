package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError переводит доменные ошибки в HTTP статусы.
func respondError(c echo.Context, err error) error {
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrSessionIDRequired):
		return c.JSON(http.StatusBadRequest, errorResponse{Code: "validation_error", Message: err.Error()})
	case domain.IsNotFound(err):
		return c.JSON(http.StatusNotFound, errorResponse{Code: "not_found", Message: err.Error()})
	case errors.Is(err, domain.ErrCartVersionConflict):
		return c.JSON(http.StatusConflict, errorResponse{Code: "version_conflict", Message: "cart was modified concurrently, retry the request"})
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return c.JSON(http.StatusConflict, errorResponse{Code: "idempotency_mismatch", Message: err.Error()})
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "catalog_unavailable", Message: "product catalog is unavailable"})
	default:
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Code: "unavailable", Message: "cart storage is unavailable"})
	}
}
