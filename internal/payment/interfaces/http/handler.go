// Package http 付款服务 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	dealerdomain "github.com/wyfcoding/ordermanagement/internal/dealer/domain"
	"github.com/wyfcoding/ordermanagement/internal/payment/application"
	"github.com/wyfcoding/ordermanagement/internal/payment/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// PaymentHandler 付款 HTTP 处理器
type PaymentHandler struct {
	app *application.PaymentService
}

// NewPaymentHandler 创建付款 HTTP 处理器实例
func NewPaymentHandler(app *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/payments")
	{
		g.POST("", h.RecordPayment)
		g.GET("", h.ListPayments)
		g.GET("/:id", h.GetPayment)
		g.DELETE("/:id", h.DeletePayment)
	}
}

// RecordPaymentReq 登记付款请求
type RecordPaymentReq struct {
	DealerID uint       `json:"dealer_id" binding:"required"`
	OrderID  *uint      `json:"order_id,omitempty"`
	Amount   string     `json:"amount" binding:"required"`
	Method   string     `json:"method" binding:"required"`
	Remark   string     `json:"remark"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
}

// RecordPayment 登记付款
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount", "")
		return
	}

	payment, err := h.app.RecordPayment(c.Request.Context(), application.RecordPaymentCommand{
		DealerID: req.DealerID,
		OrderID:  req.OrderID,
		Amount:   amount,
		Method:   domain.PaymentMethod(req.Method),
		Remark:   req.Remark,
		PaidAt:   req.PaidAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, dealerdomain.ErrDealerNotFound):
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		case errors.Is(err, domain.ErrInvalidAmount):
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		default:
			logging.Error(c.Request.Context(), "Failed to record payment", "dealer_id", req.DealerID, "error", err)
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}

	response.Success(c, gin.H{
		"payment_id": payment.ID,
		"payment_no": payment.PaymentNo,
	})
}

// GetPayment 获取付款记录
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	payment, err := h.app.GetPayment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to get payment", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, payment)
}

// ListPayments 按经销商分页查询付款记录
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	dealerStr := c.Query("dealer_id")
	if dealerStr == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "dealer_id is required", "")
		return
	}
	dealerID, err := parseID(dealerStr)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid dealer_id", "")
		return
	}

	pageStr := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid page", "")
		return
	}

	sizeStr := c.DefaultQuery("page_size", "50")
	pageSize, err := strconv.Atoi(sizeStr)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid page_size", "")
		return
	}

	payments, total, err := h.app.ListDealerPayments(c.Request.Context(), dealerID, page, pageSize)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list payments", "dealer_id", dealerID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"total": total, "items": payments})
}

// DeletePayment 删除付款记录
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	if err := h.app.DeletePayment(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to delete payment", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, nil)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
