// Package application 实现经销商模块的应用服务。
package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/ordermanagement/internal/dealer/domain"
	"github.com/wyfcoding/pkg/logging"
)

// DealerService 经销商应用服务
type DealerService struct {
	repo domain.DealerRepository
}

// NewDealerService 创建经销商应用服务实例
func NewDealerService(repo domain.DealerRepository) *DealerService {
	return &DealerService{repo: repo}
}

// CreateDealer 注册新经销商。
func (s *DealerService) CreateDealer(ctx context.Context, dealer *domain.Dealer) error {
	if err := dealer.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, dealer); err != nil {
		return err
	}
	logging.Info(ctx, "dealer created", "dealer_id", dealer.ID, "code", dealer.Code)
	return nil
}

// UpdateDealer 更新经销商联系信息。编码创建后不可修改。
func (s *DealerService) UpdateDealer(ctx context.Context, dealer *domain.Dealer) error {
	existing, err := s.repo.GetByID(ctx, dealer.ID)
	if err != nil {
		return err
	}
	if dealer.Code != "" && dealer.Code != existing.Code {
		return fmt.Errorf("dealer code is immutable")
	}
	dealer.Code = existing.Code
	if err := dealer.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, dealer)
}

// GetDealer 按 ID 查询经销商。
func (s *DealerService) GetDealer(ctx context.Context, id uint) (*domain.Dealer, error) {
	return s.repo.GetByID(ctx, id)
}

// GetDealerByCode 按编码查询经销商。
func (s *DealerService) GetDealerByCode(ctx context.Context, code string) (*domain.Dealer, error) {
	return s.repo.GetByCode(ctx, code)
}

// ListDealers 分页查询经销商列表。
func (s *DealerService) ListDealers(ctx context.Context, page, pageSize int) ([]*domain.Dealer, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.repo.List(ctx, pageSize, (page-1)*pageSize)
}

// DeleteDealer 删除经销商。
func (s *DealerService) DeleteDealer(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logging.Info(ctx, "dealer deleted", "dealer_id", id)
	return nil
}

// Exists 判断经销商是否存在，供订单模块下单前校验使用。
func (s *DealerService) Exists(ctx context.Context, id uint) (bool, error) {
	return s.repo.Exists(ctx, id)
}
