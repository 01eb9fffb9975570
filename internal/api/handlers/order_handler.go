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

// OrderHandler handles customer order requests
type OrderHandler struct {
	placement OrderPlacer
	lifecycle OrderLifecycle
	queries   OrderReader
	logger    *logging.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(placement OrderPlacer, lifecycle OrderLifecycle, queries OrderReader, logger *logging.Logger) *OrderHandler {
	return &OrderHandler{
		placement: placement,
		lifecycle: lifecycle,
		queries:   queries,
		logger:    logger,
	}
}

// PlaceOrder handles POST /api/v1/orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	userID := CallerID(c)
	if userID == "" {
		responder.RespondUnauthorized("")
		return
	}

	var req dto.PlaceOrderRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, tracing.PaymentMethodKey.String(req.PaymentMethod))

	result, err := h.placement.PlaceOrder(c.Request.Context(), application.PlaceOrderCommand{
		UserID:        userID,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		TotalPrice:    req.TotalPrice,
		SubTotal:      req.SubTotal,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// PlaceGatewayOrder handles POST /api/v1/orders/gateway
func (h *OrderHandler) PlaceGatewayOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	userID := CallerID(c)
	if userID == "" {
		responder.RespondUnauthorized("")
		return
	}

	var req dto.PlaceGatewayOrderRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.placement.PlaceGatewayOrder(c.Request.Context(), application.PlaceGatewayOrderCommand{
		UserID:     userID,
		AddressID:  req.AddressID,
		TotalPrice: req.TotalPrice,
		SubTotal:   req.SubTotal,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	middleware.AddSpanAttributes(c,
		tracing.OrderIDKey.String(result.OrderID),
		tracing.GatewayOrderIDKey.String(result.GatewayOrderID),
	)

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var params dto.ListOrdersParams
	if appErr := middleware.BindQueryAndValidate(c, &params); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	page := api.ParsePagination(c, application.DefaultUserPageSize)

	result, err := h.queries.ListUserOrders(c.Request.Context(), application.ListUserOrdersQuery{
		UserID:   CallerID(c),
		Page:     page.Page,
		PageSize: page.PageSize,
		Sort:     params.Sort,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetOrder handles GET /api/v1/orders/:orderId
func (h *OrderHandler) GetOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	result, err := h.queries.GetUserOrder(c.Request.Context(), application.GetUserOrderQuery{
		UserID:  CallerID(c),
		OrderID: c.Param("orderId"),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// CancelOrder handles POST /api/v1/orders/:orderId/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	orderID := c.Param("orderId")
	middleware.AddSpanAttributes(c, tracing.OrderIDKey.String(orderID))

	result, err := h.lifecycle.CancelOrder(c.Request.Context(), application.CancelOrderCommand{
		UserID:  CallerID(c),
		OrderID: orderID,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// RequestReturn handles POST /api/v1/orders/:orderId/return
func (h *OrderHandler) RequestReturn(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req dto.ReturnRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.lifecycle.RequestReturn(c.Request.Context(), application.RequestReturnCommand{
		UserID:  CallerID(c),
		OrderID: c.Param("orderId"),
		Reason:  req.Reason,
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
