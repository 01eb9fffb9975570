package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/internal/api/dto"
	"github.com/shopfront/order-platform/internal/application"
	"github.com/shopfront/order-platform/pkg/api"
	"github.com/shopfront/order-platform/pkg/logging"
	"github.com/shopfront/order-platform/pkg/middleware"
	"github.com/shopfront/order-platform/pkg/tracing"
)

// AdminHandler handles back office requests
type AdminHandler struct {
	lifecycle OrderLifecycle
	queries   OrderReader
	ledger    LedgerReader
	logger    *logging.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(lifecycle OrderLifecycle, queries OrderReader, ledger LedgerReader, logger *logging.Logger) *AdminHandler {
	return &AdminHandler{
		lifecycle: lifecycle,
		queries:   queries,
		ledger:    ledger,
		logger:    logger,
	}
}

// actor names the admin in audit records
func actor(c *gin.Context) string {
	if principal, ok := middleware.PrincipalFromGin(c); ok {
		if principal.Username != "" {
			return principal.Username
		}
		return principal.Subject
	}
	return ""
}

// ListOrders handles GET /api/v1/admin/orders
func (h *AdminHandler) ListOrders(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var params dto.ListOrdersParams
	if appErr := middleware.BindQueryAndValidate(c, &params); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	page := api.ParsePagination(c, application.DefaultAdminPageSize)

	result, err := h.queries.ListOrders(c.Request.Context(), application.ListOrdersQuery{
		Page:     page.Page,
		PageSize: page.PageSize,
		Status:   params.Status,
		Sort:     params.Sort,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetOrder handles GET /api/v1/admin/orders/:orderId
func (h *AdminHandler) GetOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.queries.GetOrderDetails(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ChangeStatus handles PUT /api/v1/admin/orders/:orderId/status
func (h *AdminHandler) ChangeStatus(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req dto.ChangeStatusRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	orderID := c.Param("orderId")
	middleware.AddSpanAttributes(c,
		tracing.OrderIDKey.String(orderID),
		tracing.OrderTargetKey.String(req.Status),
	)

	result, err := h.lifecycle.ChangeStatus(c.Request.Context(), application.ChangeStatusCommand{
		OrderID: orderID,
		Status:  req.Status,
		Actor:   actor(c),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// AcceptReturn handles POST /api/v1/admin/orders/:orderId/return/accept
func (h *AdminHandler) AcceptReturn(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.lifecycle.AcceptReturn(c.Request.Context(), application.ResolveReturnCommand{
		OrderID: c.Param("orderId"),
		Actor:   actor(c),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RejectReturn handles POST /api/v1/admin/orders/:orderId/return/reject
func (h *AdminHandler) RejectReturn(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.lifecycle.RejectReturn(c.Request.Context(), application.ResolveReturnCommand{
		OrderID: c.Param("orderId"),
		Actor:   actor(c),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// SalesReport handles GET /api/v1/admin/reports/sales
func (h *AdminHandler) SalesReport(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var params dto.SalesReportParams
	if appErr := middleware.BindQueryAndValidate(c, &params); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.queries.SalesReport(c.Request.Context(), application.SalesReportQuery{Status: params.Status})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetStock handles GET /api/v1/admin/products/:productId/stock
func (h *AdminHandler) GetStock(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.ledger.GetStock(c.Request.Context(), c.Param("productId"))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
