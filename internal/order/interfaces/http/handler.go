// Package http 订单服务 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	invdomain "github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	"github.com/wyfcoding/ordermanagement/internal/order/application"
	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	commands *application.OrderCommandService
	queries  *application.OrderQueryService
}

// NewOrderHandler 创建订单 HTTP 处理器实例
func NewOrderHandler(commands *application.OrderCommandService, queries *application.OrderQueryService) *OrderHandler {
	return &OrderHandler{commands: commands, queries: queries}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/orders")
	{
		g.POST("", h.PlaceOrder)
		g.GET("", h.ListOrders)
		g.GET("/code/:code", h.GetOrderByCode)
		g.GET("/:id", h.GetOrder)
		g.PUT("/:id/status", h.SetStatus)
		g.POST("/:id/cancel", h.CancelOrder)
	}
}

// OrderItemReq 下单行项目请求
type OrderItemReq struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

// PlaceOrderReq 下单请求
type PlaceOrderReq struct {
	DealerID     uint           `json:"dealer_id" binding:"required"`
	OrderCode    string         `json:"order_code"`
	Status       string         `json:"status"`
	DeliveryDate *time.Time     `json:"delivery_date,omitempty"`
	Items        []OrderItemReq `json:"items" binding:"required"`
}

// PlaceOrder 下单
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if req.Status != "" && !domain.OrderStatus(req.Status).Valid() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid status", "")
		return
	}

	items := make([]application.OrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid unit_price", "")
			return
		}
		items = append(items, application.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}

	order, err := h.commands.PlaceOrder(c.Request.Context(), application.PlaceOrderCommand{
		DealerID:     req.DealerID,
		OrderCode:    req.OrderCode,
		Status:       domain.OrderStatus(req.Status),
		DeliveryDate: req.DeliveryDate,
		Items:        items,
	})
	if err != nil {
		h.writePlaceOrderError(c, err)
		return
	}

	response.Success(c, gin.H{
		"order_id":     order.ID,
		"order_code":   order.OrderCode,
		"total_amount": order.TotalAmount.String(),
	})
}

// writePlaceOrderError 将下单失败的类型化错误映射为 HTTP 状态码
func (h *OrderHandler) writePlaceOrderError(c *gin.Context, err error) {
	var stockErr *invdomain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"code":       http.StatusConflict,
			"message":    stockErr.Error(),
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
			"shortfall":  stockErr.Shortfall(),
		})
	case errors.Is(err, domain.ErrEmptyOrder):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrDealerNotFound),
		errors.Is(err, invdomain.ErrProductNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrDuplicateOrderCode):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "Failed to place order", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// SetStatusReq 状态变更请求
type SetStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus 变更订单状态
func (h *OrderHandler) SetStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	var req SetStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	status := domain.OrderStatus(req.Status)
	if !status.Valid() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid status", "")
		return
	}

	err = h.commands.SetStatus(c.Request.Context(), application.SetStatusCommand{OrderID: id, Status: status})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		case errors.Is(err, domain.ErrInvalidTransition):
			response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		default:
			logging.Error(c.Request.Context(), "Failed to change order status", "id", id, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	response.Success(c, nil)
}

// CancelOrder 取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	err = h.commands.CancelOrder(c.Request.Context(), application.CancelOrderCommand{OrderID: id})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		case errors.Is(err, domain.ErrInvalidTransition):
			response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		default:
			logging.Error(c.Request.Context(), "Failed to cancel order", "id", id, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	response.Success(c, nil)
}

// GetOrder 获取订单
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	order, err := h.queries.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to get order", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, order)
}

// GetOrderByCode 按编码获取订单
func (h *OrderHandler) GetOrderByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "code is required", "")
		return
	}

	order, err := h.queries.GetOrderByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to get order", "code", code, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, order)
}

// ListOrders 订单列表，支持按经销商或状态过滤
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offset", "")
		return
	}

	if dealerStr := c.Query("dealer_id"); dealerStr != "" {
		dealerID, err := parseID(dealerStr)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid dealer_id", "")
			return
		}
		orders, total, err := h.queries.ListByDealer(c.Request.Context(), dealerID, limit, offset)
		if err != nil {
			logging.Error(c.Request.Context(), "Failed to list orders", "dealer_id", dealerID, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
			return
		}
		response.Success(c, gin.H{"total": total, "items": orders})
		return
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.OrderStatus(statusStr)
		if !status.Valid() {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid status", "")
			return
		}
		orders, total, err := h.queries.ListByStatus(c.Request.Context(), status, limit, offset)
		if err != nil {
			logging.Error(c.Request.Context(), "Failed to list orders", "status", status, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
			return
		}
		response.Success(c, gin.H{"total": total, "items": orders})
		return
	}

	response.ErrorWithStatus(c, http.StatusBadRequest, "dealer_id or status is required", "")
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
