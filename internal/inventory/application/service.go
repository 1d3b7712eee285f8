// Package application 库存模块应用层
package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
	"github.com/wyfcoding/pkg/logging"
)

// EventPublisher 库存事件发布端口
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// InventoryService 库存应用服务。
// Reserve/Release 是订单流程中变更在库数量的唯一入口。
type InventoryService struct {
	repo    domain.ProductRepository
	metrics *metrics.Metrics
	events  EventPublisher
	// 商品未显式设置 min_stock 时的默认阈值
	defaultMinStock int
}

// NewInventoryService 创建库存应用服务
func NewInventoryService(repo domain.ProductRepository, m *metrics.Metrics, events EventPublisher, defaultMinStock int) *InventoryService {
	if defaultMinStock <= 0 {
		defaultMinStock = 10
	}
	return &InventoryService{repo: repo, metrics: m, events: events, defaultMinStock: defaultMinStock}
}

// Reserve 原子预留库存。库存不足时返回 InsufficientStockError，
// 错误会使调用方的外层事务整体回滚。
func (s *InventoryService) Reserve(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return errors.New("reserve quantity must be positive")
	}

	if err := s.repo.DecrementStock(ctx, productID, quantity); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) && s.metrics != nil {
			s.metrics.InsufficientStockTotal.Inc()
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.StockReservationsTotal.Inc()
	}
	s.publish(ctx, domain.StockReservedEvent{
		ProductID:  productID,
		Quantity:   quantity,
		OccurredAt: time.Now(),
	})
	s.checkLowStock(ctx, productID)
	return nil
}

// Release 回补库存。用于订单取消，无条件增加在库数量。
func (s *InventoryService) Release(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return errors.New("release quantity must be positive")
	}

	if err := s.repo.IncrementStock(ctx, productID, quantity); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.StockReleasesTotal.Inc()
	}
	s.publish(ctx, domain.StockReleasedEvent{
		ProductID:  productID,
		Quantity:   quantity,
		OccurredAt: time.Now(),
	})
	return nil
}

type namedEvent interface {
	EventName() string
}

// publish 事件发布是尽力而为，失败只记日志
func (s *InventoryService) publish(ctx context.Context, event namedEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event.EventName(), event); err != nil {
		logging.Error(ctx, "failed to publish inventory event", "event", event.EventName(), "error", err)
	}
}

// checkLowStock 预留后若跌破阈值则发出预警
func (s *InventoryService) checkLowStock(ctx context.Context, productID uint) {
	if s.events == nil {
		return
	}
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		logging.Warn(ctx, "failed to check stock level after reservation", "product_id", productID, "error", err)
		return
	}
	if product.IsLowStock() {
		s.publish(ctx, domain.LowStockEvent{
			ProductID:  product.ID,
			Code:       product.Code,
			OnHand:     product.OnHand,
			MinStock:   product.MinStock,
			OccurredAt: time.Now(),
		})
	}
}

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Code      string
	Name      string
	UnitPrice decimal.Decimal
	OnHand    int
	MinStock  int
}

// CreateProduct 创建商品
func (s *InventoryService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (uint, error) {
	minStock := cmd.MinStock
	if minStock <= 0 {
		minStock = s.defaultMinStock
	}

	product := &domain.Product{
		Code:      cmd.Code,
		Name:      cmd.Name,
		UnitPrice: cmd.UnitPrice,
		OnHand:    cmd.OnHand,
		MinStock:  minStock,
	}
	if err := product.Validate(); err != nil {
		return 0, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return 0, err
	}

	logging.Info(ctx, "product created", "product_id", product.ID, "code", product.Code)
	return product.ID, nil
}

// UpdateProductCommand 更新商品命令
type UpdateProductCommand struct {
	ID        uint
	Name      string
	UnitPrice decimal.Decimal
	MinStock  int
}

// UpdateProduct 更新商品基础信息。
// 在库数量不在此处修改，避免绕过 Reserve/Release。
func (s *InventoryService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) error {
	product, err := s.repo.GetByID(ctx, cmd.ID)
	if err != nil {
		return err
	}

	if cmd.Name != "" {
		product.Name = cmd.Name
	}
	if !cmd.UnitPrice.IsZero() {
		product.UnitPrice = cmd.UnitPrice
	}
	if cmd.MinStock > 0 {
		product.MinStock = cmd.MinStock
	}

	if err := product.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, product)
}

// GetProduct 获取商品
func (s *InventoryService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProductByCode 按编码获取商品
func (s *InventoryService) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	return s.repo.GetByCode(ctx, code)
}

// ListProducts 商品列表
func (s *InventoryService) ListProducts(ctx context.Context, limit, offset int) ([]*domain.Product, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}

// ListLowStock 低库存商品列表
func (s *InventoryService) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	start := time.Now()
	products, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	logging.Debug(ctx, "low stock scan finished", "count", len(products), "duration", time.Since(start))
	return products, nil
}

// DeleteProduct 删除商品
func (s *InventoryService) DeleteProduct(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
