// Package http 库存服务 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ordermanagement/internal/inventory/application"
	"github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// ProductHandler 商品与库存 HTTP 处理器
type ProductHandler struct {
	app *application.InventoryService
}

// NewProductHandler 创建商品 HTTP 处理器实例
func NewProductHandler(app *application.InventoryService) *ProductHandler {
	return &ProductHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *ProductHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/products")
	{
		g.POST("", h.CreateProduct)
		g.GET("", h.ListProducts)
		g.GET("/low-stock", h.ListLowStock)
		g.GET("/code/:code", h.GetProductByCode)
		g.GET("/:id", h.GetProduct)
		g.PUT("/:id", h.UpdateProduct)
		g.DELETE("/:id", h.DeleteProduct)
	}
}

// CreateProductReq 创建商品请求
type CreateProductReq struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
	OnHand    int    `json:"on_hand"`
	MinStock  int    `json:"min_stock"`
}

// CreateProduct 创建商品
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid unit_price", "")
		return
	}

	id, err := h.app.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Code:      req.Code,
		Name:      req.Name,
		UnitPrice: price,
		OnHand:    req.OnHand,
		MinStock:  req.MinStock,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to create product", "code", req.Code, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"product_id": id})
}

// UpdateProductReq 更新商品请求
type UpdateProductReq struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	MinStock  int    `json:"min_stock"`
}

// UpdateProduct 更新商品基础信息
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	var req UpdateProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.UpdateProductCommand{ID: id, Name: req.Name, MinStock: req.MinStock}
	if req.UnitPrice != "" {
		price, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid unit_price", "")
			return
		}
		cmd.UnitPrice = price
	}

	if err := h.app.UpdateProduct(c.Request.Context(), cmd); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to update product", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, nil)
}

// GetProduct 获取商品
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	product, err := h.app.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to get product", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, product)
}

// GetProductByCode 按编码获取商品
func (h *ProductHandler) GetProductByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "code is required", "")
		return
	}

	product, err := h.app.GetProductByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to get product", "code", code, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, product)
}

// ListProducts 商品列表
func (h *ProductHandler) ListProducts(c *gin.Context) {
	limit, offset, ok := parsePage(c)
	if !ok {
		return
	}

	products, total, err := h.app.ListProducts(c.Request.Context(), limit, offset)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list products", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"total": total, "items": products})
}

// ListLowStock 低库存商品列表
func (h *ProductHandler) ListLowStock(c *gin.Context) {
	products, err := h.app.ListLowStock(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list low stock products", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, products)
}

// DeleteProduct 删除商品
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	if err := h.app.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to delete product", "id", id, "error", err)
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

func parsePage(c *gin.Context) (limit, offset int, ok bool) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return 0, 0, false
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err = strconv.Atoi(offsetStr)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offset", "")
		return 0, 0, false
	}
	return limit, offset, true
}
