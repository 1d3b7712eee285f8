package application

import (
	"context"

	"github.com/wyfcoding/ordermanagement/internal/dealer/domain"
)

// LedgerQueryService 经销商台账查询服务。
// 余额为纯读取侧派生结果，不落库、不缓存，每次查询重新计算。
type LedgerQueryService struct {
	dealers  domain.DealerRepository
	orders   domain.OrderAmountSource
	payments domain.PaymentAmountSource
}

// NewLedgerQueryService 创建台账查询服务实例
func NewLedgerQueryService(
	dealers domain.DealerRepository,
	orders domain.OrderAmountSource,
	payments domain.PaymentAmountSource,
) *LedgerQueryService {
	return &LedgerQueryService{dealers: dealers, orders: orders, payments: payments}
}

// GetBalance 计算指定经销商的应付余额。
// 余额 = 累计订货金额 - 累计付款金额。
func (s *LedgerQueryService) GetBalance(ctx context.Context, dealerID uint) (*domain.Balance, error) {
	exists, err := s.dealers.Exists(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrDealerNotFound
	}

	ordered, err := s.orders.OrderAmountsByDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	paid, err := s.payments.PaymentAmountsByDealer(ctx, dealerID)
	if err != nil {
		return nil, err
	}

	balance := domain.ComputeBalance(dealerID, ordered, paid)
	return &balance, nil
}
