// Package mysql 提供付款记录仓储的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wyfcoding/ordermanagement/internal/payment/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"gorm.io/gorm"
)

type paymentRepositoryImpl struct {
	db *gorm.DB
}

// NewPaymentRepository 创建付款记录仓储实例
func NewPaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return &paymentRepositoryImpl{db: db}
}

func (r *paymentRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// Create 实现 domain.PaymentRepository.Create
func (r *paymentRepositoryImpl) Create(ctx context.Context, payment *domain.Payment) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(payment).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrDuplicatePaymentNo
		}
		logging.Error(ctx, "payment_repository.create failed", "payment_no", payment.PaymentNo, "error", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID 实现 domain.PaymentRepository.GetByID
func (r *paymentRepositoryImpl) GetByID(ctx context.Context, id uint) (*domain.Payment, error) {
	var payment domain.Payment
	if err := r.getDB(ctx).WithContext(ctx).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		logging.Error(ctx, "payment_repository.get failed", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// GetByPaymentNo 实现 domain.PaymentRepository.GetByPaymentNo
func (r *paymentRepositoryImpl) GetByPaymentNo(ctx context.Context, paymentNo string) (*domain.Payment, error) {
	var payment domain.Payment
	if err := r.getDB(ctx).WithContext(ctx).Where("payment_no = ?", paymentNo).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		logging.Error(ctx, "payment_repository.get_by_no failed", "payment_no", paymentNo, "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// ListByDealer 实现 domain.PaymentRepository.ListByDealer
func (r *paymentRepositoryImpl) ListByDealer(ctx context.Context, dealerID uint, limit, offset int) ([]*domain.Payment, int64, error) {
	var payments []*domain.Payment
	var total int64

	db := r.getDB(ctx).WithContext(ctx).Model(&domain.Payment{}).Where("dealer_id = ?", dealerID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("paid_at desc").Limit(limit).Offset(offset).Find(&payments).Error; err != nil {
		logging.Error(ctx, "payment_repository.list failed", "dealer_id", dealerID, "error", err)
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, total, nil
}

// Delete 实现 domain.PaymentRepository.Delete
func (r *paymentRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := r.getDB(ctx).WithContext(ctx).Delete(&domain.Payment{}, id)
	if res.Error != nil {
		logging.Error(ctx, "payment_repository.delete failed", "id", id, "error", res.Error)
		return fmt.Errorf("failed to delete payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}
