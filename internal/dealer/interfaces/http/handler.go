// Package http 经销商服务 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ordermanagement/internal/dealer/application"
	"github.com/wyfcoding/ordermanagement/internal/dealer/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// DealerHandler 经销商 HTTP 处理器
type DealerHandler struct {
	app    *application.DealerService
	ledger *application.LedgerQueryService
}

// NewDealerHandler 创建经销商 HTTP 处理器实例
func NewDealerHandler(app *application.DealerService, ledger *application.LedgerQueryService) *DealerHandler {
	return &DealerHandler{app: app, ledger: ledger}
}

// RegisterRoutes 注册路由
func (h *DealerHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/dealers")
	{
		g.POST("", h.CreateDealer)
		g.GET("", h.ListDealers)
		g.GET("/code/:code", h.GetDealerByCode)
		g.GET("/:id", h.GetDealer)
		g.GET("/:id/balance", h.GetBalance)
		g.PUT("/:id", h.UpdateDealer)
		g.DELETE("/:id", h.DeleteDealer)
	}
}

// DealerReq 经销商创建与更新请求
type DealerReq struct {
	Code        string `json:"code"`
	FirmName    string `json:"firm_name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
}

// CreateDealer 注册经销商
func (h *DealerHandler) CreateDealer(c *gin.Context) {
	var req DealerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if req.Code == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "code is required", "")
		return
	}

	dealer := &domain.Dealer{
		Code:        req.Code,
		FirmName:    req.FirmName,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
	}
	if err := h.app.CreateDealer(c.Request.Context(), dealer); err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to create dealer", "code", req.Code, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"dealer_id": dealer.ID})
}

// UpdateDealer 更新经销商
func (h *DealerHandler) UpdateDealer(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	var req DealerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dealer := &domain.Dealer{
		Code:        req.Code,
		FirmName:    req.FirmName,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
	}
	dealer.ID = id

	if err := h.app.UpdateDealer(c.Request.Context(), dealer); err != nil {
		if errors.Is(err, domain.ErrDealerNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to update dealer", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, nil)
}

// GetDealer 获取经销商
func (h *DealerHandler) GetDealer(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	dealer, err := h.app.GetDealer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrDealerNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to get dealer", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, dealer)
}

// GetDealerByCode 按编码获取经销商
func (h *DealerHandler) GetDealerByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "code is required", "")
		return
	}

	dealer, err := h.app.GetDealerByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrDealerNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to get dealer", "code", code, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, dealer)
}

// ListDealers 经销商列表
func (h *DealerHandler) ListDealers(c *gin.Context) {
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

	dealers, total, err := h.app.ListDealers(c.Request.Context(), page, pageSize)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list dealers", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"total": total, "items": dealers})
}

// DeleteDealer 删除经销商
func (h *DealerHandler) DeleteDealer(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	if err := h.app.DeleteDealer(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrDealerNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to delete dealer", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, nil)
}

// GetBalance 查询经销商应付余额
func (h *DealerHandler) GetBalance(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrDealerNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to compute dealer balance", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, balance)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
