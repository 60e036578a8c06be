package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	cartservice "github.com/vladislavdragonenkov/cart/internal/service/cart"
)

type addItemRequest struct {
	ProductID string `json:"product_id"`
	// Quantity опционально; отсутствие означает 1.
	Quantity *int32 `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int32  `json:"quantity"`
	Mode     string `json:"mode"`
}

type mutationResponse struct {
	Status string          `json:"status"`
	View   domain.CartView `json:"view"`
}

type removeResponse struct {
	Status      string          `json:"status"`
	RemovedName string          `json:"removed_name"`
	View        domain.CartView `json:"view"`
}

type clearResponse struct {
	Status       string `json:"status"`
	ItemsRemoved int32  `json:"items_removed"`
}

type countResponse struct {
	TotalItems         int32 `json:"total_items"`
	UniqueProductCount int   `json:"unique_product_count"`
	IsEmpty            bool  `json:"is_empty"`
}

type verifyResponse struct {
	cartservice.VerifyReport
	View domain.CartView `json:"view"`
}

func (s *Server) addItem(c echo.Context) error {
	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Code: "invalid_request", Message: "unable to parse request body"})
	}

	quantity := domain.MinQuantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	result, err := s.service.Add(c.Request().Context(), SessionID(c), req.ProductID, quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, mutationResponse{Status: string(result.Status), View: result.View})
}

func (s *Server) updateItem(c echo.Context) error {
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Code: "invalid_request", Message: "unable to parse request body"})
	}

	mode, err := cartservice.ParseUpdateMode(req.Mode)
	if err != nil {
		return respondError(c, err)
	}

	result, err := s.service.Update(c.Request().Context(), SessionID(c), c.Param("productId"), req.Quantity, mode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, mutationResponse{Status: string(result.Status), View: result.View})
}

func (s *Server) removeItem(c echo.Context) error {
	result, err := s.service.Remove(c.Request().Context(), SessionID(c), c.Param("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, removeResponse{
		Status:      string(cartservice.StatusSuccess),
		RemovedName: result.RemovedName,
		View:        result.View,
	})
}

func (s *Server) clearCart(c echo.Context) error {
	result, err := s.service.Clear(c.Request().Context(), SessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, clearResponse{
		Status:       string(cartservice.StatusSuccess),
		ItemsRemoved: result.ItemsRemoved,
	})
}

func (s *Server) getCart(c echo.Context) error {
	view, err := s.service.View(c.Request().Context(), SessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) getCount(c echo.Context) error {
	count, err := s.service.Count(c.Request().Context(), SessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, countResponse{
		TotalItems:         count.TotalItems,
		UniqueProductCount: count.UniqueProductCount,
		IsEmpty:            count.IsEmpty,
	})
}

func (s *Server) getTotals(c echo.Context) error {
	totals, err := s.service.Totals(c.Request().Context(), SessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, totals)
}

func (s *Server) verifyCart(c echo.Context) error {
	result, err := s.service.Verify(c.Request().Context(), SessionID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, verifyResponse{VerifyReport: result.Report, View: result.View})
}
