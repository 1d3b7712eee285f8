package application

import (
	"context"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	repo domain.OrderRepository
}

// NewOrderQueryService 创建订单查询服务
func NewOrderQueryService(repo domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

// GetOrder 获取订单详情
func (s *OrderQueryService) GetOrder(ctx context.Context, id uint) (*OrderDTO, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(order), nil
}

// GetOrderByCode 按编码获取订单详情
func (s *OrderQueryService) GetOrderByCode(ctx context.Context, code string) (*OrderDTO, error) {
	order, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return toDTO(order), nil
}

// ListByDealer 经销商订单列表
func (s *OrderQueryService) ListByDealer(ctx context.Context, dealerID uint, limit, offset int) ([]*OrderDTO, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	orders, total, err := s.repo.ListByDealer(ctx, dealerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toDTOs(orders), total, nil
}

// ListByStatus 按状态列出订单
func (s *OrderQueryService) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*OrderDTO, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	orders, total, err := s.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toDTOs(orders), total, nil
}

func toDTOs(orders []*domain.Order) []*OrderDTO {
	dtos := make([]*OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toDTO(o)
	}
	return dtos
}
