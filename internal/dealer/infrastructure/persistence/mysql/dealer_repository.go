// Package mysql 提供经销商仓储与台账读取端口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ordermanagement/internal/dealer/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"gorm.io/gorm"
)

// dealerRepositoryImpl 是 domain.DealerRepository 接口的 GORM 实现。
type dealerRepositoryImpl struct {
	db *gorm.DB
}

// NewDealerRepository 创建经销商仓储实例
func NewDealerRepository(db *gorm.DB) domain.DealerRepository {
	return &dealerRepositoryImpl{db: db}
}

func (r *dealerRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// Create 实现 domain.DealerRepository.Create
func (r *dealerRepositoryImpl) Create(ctx context.Context, dealer *domain.Dealer) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(dealer).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrDuplicateCode
		}
		logging.Error(ctx, "dealer_repository.create failed", "code", dealer.Code, "error", err)
		return fmt.Errorf("failed to create dealer: %w", err)
	}
	return nil
}

// Update 实现 domain.DealerRepository.Update
func (r *dealerRepositoryImpl) Update(ctx context.Context, dealer *domain.Dealer) error {
	if err := r.getDB(ctx).WithContext(ctx).Save(dealer).Error; err != nil {
		logging.Error(ctx, "dealer_repository.update failed", "id", dealer.ID, "error", err)
		return fmt.Errorf("failed to update dealer: %w", err)
	}
	return nil
}

// GetByID 实现 domain.DealerRepository.GetByID
func (r *dealerRepositoryImpl) GetByID(ctx context.Context, id uint) (*domain.Dealer, error) {
	var dealer domain.Dealer
	if err := r.getDB(ctx).WithContext(ctx).First(&dealer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDealerNotFound
		}
		logging.Error(ctx, "dealer_repository.get failed", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get dealer: %w", err)
	}
	return &dealer, nil
}

// GetByCode 实现 domain.DealerRepository.GetByCode
func (r *dealerRepositoryImpl) GetByCode(ctx context.Context, code string) (*domain.Dealer, error) {
	var dealer domain.Dealer
	if err := r.getDB(ctx).WithContext(ctx).Where("code = ?", code).First(&dealer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDealerNotFound
		}
		logging.Error(ctx, "dealer_repository.get_by_code failed", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get dealer: %w", err)
	}
	return &dealer, nil
}

// List 实现 domain.DealerRepository.List
func (r *dealerRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*domain.Dealer, int64, error) {
	var dealers []*domain.Dealer
	var total int64

	db := r.getDB(ctx).WithContext(ctx).Model(&domain.Dealer{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("code asc").Limit(limit).Offset(offset).Find(&dealers).Error; err != nil {
		logging.Error(ctx, "dealer_repository.list failed", "error", err)
		return nil, 0, fmt.Errorf("failed to list dealers: %w", err)
	}
	return dealers, total, nil
}

// Delete 实现 domain.DealerRepository.Delete
func (r *dealerRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := r.getDB(ctx).WithContext(ctx).Delete(&domain.Dealer{}, id)
	if res.Error != nil {
		logging.Error(ctx, "dealer_repository.delete failed", "id", id, "error", res.Error)
		return fmt.Errorf("failed to delete dealer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrDealerNotFound
	}
	return nil
}

// Exists 实现 domain.DealerRepository.Exists
func (r *dealerRepositoryImpl) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.getDB(ctx).WithContext(ctx).Model(&domain.Dealer{}).
		Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check dealer existence: %w", err)
	}
	return count > 0, nil
}

// ledgerSourceImpl 台账读取端口的 GORM 实现。
// 直接读取订单与付款表，只读不写。
type ledgerSourceImpl struct {
	db *gorm.DB
}

// NewLedgerSource 创建台账读取端口实例
func NewLedgerSource(db *gorm.DB) *ledgerSourceImpl {
	return &ledgerSourceImpl{db: db}
}

var (
	_ domain.OrderAmountSource   = (*ledgerSourceImpl)(nil)
	_ domain.PaymentAmountSource = (*ledgerSourceImpl)(nil)
)

// OrderAmountsByDealer 实现 domain.OrderAmountSource
func (r *ledgerSourceImpl) OrderAmountsByDealer(ctx context.Context, dealerID uint) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := r.db.WithContext(ctx).Table("orders").
		Where("dealer_id = ? AND deleted_at IS NULL", dealerID).
		Pluck("total_amount", &amounts).Error; err != nil {
		logging.Error(ctx, "ledger_source.order_amounts failed", "dealer_id", dealerID, "error", err)
		return nil, fmt.Errorf("failed to load order amounts: %w", err)
	}
	return amounts, nil
}

// PaymentAmountsByDealer 实现 domain.PaymentAmountSource
func (r *ledgerSourceImpl) PaymentAmountsByDealer(ctx context.Context, dealerID uint) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := r.db.WithContext(ctx).Table("payments").
		Where("dealer_id = ? AND deleted_at IS NULL", dealerID).
		Pluck("amount", &amounts).Error; err != nil {
		logging.Error(ctx, "ledger_source.payment_amounts failed", "dealer_id", dealerID, "error", err)
		return nil, fmt.Errorf("failed to load payment amounts: %w", err)
	}
	return amounts, nil
}
