// Package mysql 提供商品仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"gorm.io/gorm"
)

// productRepositoryImpl 是 domain.ProductRepository 接口的 GORM 实现。
type productRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepositoryImpl{db: db}
}

// getDB 优先使用 context 中携带的事务句柄，保证与调用方同事务。
func (r *productRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// Create 实现 domain.ProductRepository.Create
func (r *productRepositoryImpl) Create(ctx context.Context, product *domain.Product) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(product).Error; err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateCode
		}
		logging.Error(ctx, "product_repository.create failed", "code", product.Code, "error", err)
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update 实现 domain.ProductRepository.Update
func (r *productRepositoryImpl) Update(ctx context.Context, product *domain.Product) error {
	if err := r.getDB(ctx).WithContext(ctx).Save(product).Error; err != nil {
		logging.Error(ctx, "product_repository.update failed", "id", product.ID, "error", err)
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// GetByID 实现 domain.ProductRepository.GetByID
func (r *productRepositoryImpl) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.getDB(ctx).WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		logging.Error(ctx, "product_repository.get failed", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// GetByCode 实现 domain.ProductRepository.GetByCode
func (r *productRepositoryImpl) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	var product domain.Product
	if err := r.getDB(ctx).WithContext(ctx).Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		logging.Error(ctx, "product_repository.get_by_code failed", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// List 实现 domain.ProductRepository.List
func (r *productRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*domain.Product, int64, error) {
	var products []*domain.Product
	var total int64

	db := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("code asc").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		logging.Error(ctx, "product_repository.list failed", "error", err)
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// ListLowStock 实现 domain.ProductRepository.ListLowStock
func (r *productRepositoryImpl) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	var products []*domain.Product
	if err := r.getDB(ctx).WithContext(ctx).
		Where("on_hand <= min_stock").
		Order("on_hand asc").
		Find(&products).Error; err != nil {
		logging.Error(ctx, "product_repository.list_low_stock failed", "error", err)
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

// Delete 实现 domain.ProductRepository.Delete
func (r *productRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := r.getDB(ctx).WithContext(ctx).Delete(&domain.Product{}, id)
	if res.Error != nil {
		logging.Error(ctx, "product_repository.delete failed", "id", id, "error", res.Error)
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// DecrementStock 实现 domain.ProductRepository.DecrementStock
// 扣减是一条带充足性检查的条件 UPDATE，检查与扣减之间不存在窗口；
// 两个并发订单争抢同一商品时在该行上串行化，落败方拿到 InsufficientStockError。
func (r *productRepositoryImpl) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("decrement quantity must be positive, got %d", quantity)
	}

	res := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND on_hand >= ?", productID, quantity).
		Update("on_hand", gorm.Expr("on_hand - ?", quantity))
	if res.Error != nil {
		logging.Error(ctx, "product_repository.decrement_stock failed", "product_id", productID, "error", res.Error)
		return fmt.Errorf("failed to decrement stock: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// 没有命中行：区分商品不存在与库存不足，读取在同一事务内完成。
	var product domain.Product
	if err := r.getDB(ctx).WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("failed to read product after rejected decrement: %w", err)
	}
	return &domain.InsufficientStockError{
		ProductID: productID,
		Requested: quantity,
		Available: product.OnHand,
	}
}

// IncrementStock 实现 domain.ProductRepository.IncrementStock
func (r *productRepositoryImpl) IncrementStock(ctx context.Context, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("increment quantity must be positive, got %d", quantity)
	}

	res := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", productID).
		Update("on_hand", gorm.Expr("on_hand + ?", quantity))
	if res.Error != nil {
		logging.Error(ctx, "product_repository.increment_stock failed", "product_id", productID, "error", res.Error)
		return fmt.Errorf("failed to increment stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// isDuplicateKey 识别唯一键冲突，MySQL 1062 / SQLite UNIQUE constraint
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
