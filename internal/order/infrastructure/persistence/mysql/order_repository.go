// Package mysql 提供订单仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"gorm.io/gorm"
)

// orderRepositoryImpl 是 domain.OrderRepository 接口的 GORM 实现。
type orderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepositoryImpl{db: db}
}

// Transaction 实现 domain.OrderRepository.Transaction。
// 事务句柄通过 context 下传，所有感知 contextx 的仓储在回调内共享同一事务。
func (r *orderRepositoryImpl) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *orderRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// Create 实现 domain.OrderRepository.Create。
// 订单头与行项目经由关联一次写入，处于调用方事务内。
func (r *orderRepositoryImpl) Create(ctx context.Context, order *domain.Order) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateOrderCode
		}
		logging.Error(ctx, "order_repository.create failed", "order_code", order.OrderCode, "error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Get 实现 domain.OrderRepository.Get
func (r *orderRepositoryImpl) Get(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	if err := r.getDB(ctx).WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		logging.Error(ctx, "order_repository.get failed", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.InitMachine()
	return &order, nil
}

// GetByCode 实现 domain.OrderRepository.GetByCode
func (r *orderRepositoryImpl) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	var order domain.Order
	if err := r.getDB(ctx).WithContext(ctx).Preload("Items").
		Where("order_code = ?", code).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		logging.Error(ctx, "order_repository.get_by_code failed", "order_code", code, "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.InitMachine()
	return &order, nil
}

// ListByDealer 实现 domain.OrderRepository.ListByDealer
func (r *orderRepositoryImpl) ListByDealer(ctx context.Context, dealerID uint, limit, offset int) ([]*domain.Order, int64, error) {
	return r.list(ctx, r.getDB(ctx).WithContext(ctx).Model(&domain.Order{}).Where("dealer_id = ?", dealerID), limit, offset)
}

// ListByStatus 实现 domain.OrderRepository.ListByStatus
func (r *orderRepositoryImpl) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, int64, error) {
	return r.list(ctx, r.getDB(ctx).WithContext(ctx).Model(&domain.Order{}).Where("status = ?", string(status)), limit, offset)
}

func (r *orderRepositoryImpl) list(ctx context.Context, query *gorm.DB, limit, offset int) ([]*domain.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*domain.Order
	if err := query.Preload("Items").
		Order("created_at desc").Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		logging.Error(ctx, "order_repository.list failed", "error", err)
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	for _, o := range orders {
		o.InitMachine()
	}
	return orders, total, nil
}

// UpdateStatus 实现 domain.OrderRepository.UpdateStatus。
// 只变更状态列，总金额与行项目在创建后不可变。
// 条件更新守卫先前观察到的状态，两个并发变更中后到者
// 不会覆盖已提交的终态。
func (r *orderRepositoryImpl) UpdateStatus(ctx context.Context, id uint, from, to domain.OrderStatus) error {
	db := r.getDB(ctx).WithContext(ctx)
	res := db.Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		logging.Error(ctx, "order_repository.update_status failed", "id", id, "error", res.Error)
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// 同一事务内区分订单不存在与状态已被并发修改
		var current domain.Order
		if err := db.Select("status").First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			logging.Error(ctx, "order_repository.update_status failed", "id", id, "error", err)
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, to)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
