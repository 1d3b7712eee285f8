// Package domain 包含库存模块的领域模型
// 商品的在库数量是本系统唯一被并发写入的共享资源，
// 只允许通过 Reserve/Release 两个入口变更。
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrProductNotFound 商品不存在
var ErrProductNotFound = errors.New("product not found")

// ErrInsufficientStock 库存不足
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrDuplicateCode 商品编码已存在
var ErrDuplicateCode = errors.New("product code already exists")

// InsufficientStockError 携带商品与缺口信息的库存不足错误，
// 调用方据此决定是否调整数量后重试。
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Unwrap 支持 errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// Shortfall 缺口数量
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

// Product 商品实体
type Product struct {
	gorm.Model
	// 商品编码，人工指定且唯一
	Code string `gorm:"column:code;type:varchar(32);uniqueIndex;not null" json:"code"`
	// 商品名称
	Name string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	// 单价
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(20,4);not null" json:"unit_price"`
	// 在库数量，恒为非负
	OnHand int `gorm:"column:on_hand;not null;default:0" json:"on_hand"`
	// 最低库存阈值
	MinStock int `gorm:"column:min_stock;not null;default:10" json:"min_stock"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// Validate 校验商品字段
func (p *Product) Validate() error {
	if p.Code == "" {
		return errors.New("product code is required")
	}
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if p.UnitPrice.IsNegative() {
		return errors.New("unit price must not be negative")
	}
	if p.OnHand < 0 {
		return errors.New("on-hand quantity must not be negative")
	}
	return nil
}

// IsLowStock 是否达到低库存阈值
func (p *Product) IsLowStock() bool {
	return p.OnHand <= p.MinStock
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 创建商品
	Create(ctx context.Context, product *Product) error
	// 更新商品
	Update(ctx context.Context, product *Product) error
	// 获取商品
	GetByID(ctx context.Context, id uint) (*Product, error)
	// 按编码获取商品
	GetByCode(ctx context.Context, code string) (*Product, error)
	// 商品列表
	List(ctx context.Context, limit, offset int) ([]*Product, int64, error)
	// 低库存商品列表
	ListLowStock(ctx context.Context) ([]*Product, error)
	// 删除商品
	Delete(ctx context.Context, id uint) error

	// DecrementStock 原子的检查并扣减：只有当在库数量足够时才扣减，
	// 否则返回 InsufficientStockError。与调用方事务共享同一事务上下文。
	DecrementStock(ctx context.Context, productID uint, quantity int) error
	// IncrementStock 无条件回补库存
	IncrementStock(ctx context.Context, productID uint, quantity int) error
}
