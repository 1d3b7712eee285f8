// Package application 订单模块应用层
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
)

// OrderCommandService 订单命令服务。
// PlaceOrder 是创建订单的唯一入口：订单头、行项目与库存扣减
// 在一个事务作用域内全部成功或全部失败。
type OrderCommandService struct {
	repo    domain.OrderRepository
	stock   domain.StockReserver
	dealers domain.DealerDirectory
	events  domain.EventPublisher
	metrics *metrics.Metrics
	// 取消订单时是否回补库存
	releaseOnCancel bool
}

// NewOrderCommandService 创建订单命令服务
func NewOrderCommandService(
	repo domain.OrderRepository,
	stock domain.StockReserver,
	dealers domain.DealerDirectory,
	events domain.EventPublisher,
	m *metrics.Metrics,
	releaseOnCancel bool,
) *OrderCommandService {
	return &OrderCommandService{
		repo:            repo,
		stock:           stock,
		dealers:         dealers,
		events:          events,
		metrics:         m,
		releaseOnCancel: releaseOnCancel,
	}
}

// PlaceOrder 下单。
// 任一行项目失败（商品不存在、库存不足、约束冲突）都会使
// 订单头、行项目与已执行的扣减整体回滚，调用方看到一个类型化错误。
func (s *OrderCommandService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	if len(cmd.Items) == 0 {
		s.countFailed()
		return nil, domain.ErrEmptyOrder
	}

	code := cmd.OrderCode
	if code == "" {
		code = generateOrderCode()
	}

	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for _, req := range cmd.Items {
		items = append(items, domain.OrderItem{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
		})
	}

	order, err := domain.NewOrder(code, cmd.DealerID, cmd.Status, cmd.DeliveryDate, items)
	if err != nil {
		s.countFailed()
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(txCtx context.Context) error {
		exists, err := s.dealers.Exists(txCtx, cmd.DealerID)
		if err != nil {
			return fmt.Errorf("failed to look up dealer: %w", err)
		}
		if !exists {
			return domain.ErrDealerNotFound
		}

		if err := s.repo.Create(txCtx, order); err != nil {
			return err
		}

		// 按调用方给定顺序逐项预留；预留与订单写入共享事务
		for _, item := range order.Items {
			if err := s.stock.Reserve(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		event := domain.OrderPlacedEvent{
			OrderID:     order.ID,
			OrderCode:   order.OrderCode,
			DealerID:    order.DealerID,
			TotalAmount: order.TotalAmount,
			ItemCount:   len(order.Items),
			OccurredAt:  time.Now(),
		}
		return s.events.Publish(txCtx, event.EventName(), event)
	})
	if err != nil {
		s.countFailed()
		logging.Warn(ctx, "order placement rejected",
			"order_code", code,
			"dealer_id", cmd.DealerID,
			"error", err,
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersPlacedTotal.Inc()
	}
	logging.Info(ctx, "order placed",
		"order_id", order.ID,
		"order_code", order.OrderCode,
		"dealer_id", order.DealerID,
		"total_amount", order.TotalAmount.String(),
		"items", len(order.Items),
	)
	return order, nil
}

// SetStatus 变更订单状态。
// 只持久化状态列；迁移合法性由订单状态机裁决。
func (s *OrderCommandService) SetStatus(ctx context.Context, cmd SetStatusCommand) error {
	order, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}

	oldStatus := order.Status
	if err := order.TransitionTo(ctx, cmd.Status); err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateStatus(txCtx, order.ID, oldStatus, cmd.Status); err != nil {
			return err
		}
		event := domain.OrderStatusChangedEvent{
			OrderID:    order.ID,
			OrderCode:  order.OrderCode,
			OldStatus:  oldStatus,
			NewStatus:  cmd.Status,
			OccurredAt: time.Now(),
		}
		return s.events.Publish(txCtx, event.EventName(), event)
	})
	if err != nil {
		return err
	}

	if cmd.Status == domain.OrderStatusCancelled {
		s.afterCancel(ctx, order)
	}

	logging.Info(ctx, "order status changed",
		"order_id", order.ID,
		"old_status", oldStatus,
		"new_status", cmd.Status,
	)
	return nil
}

// CancelOrder 取消订单
func (s *OrderCommandService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) error {
	return s.SetStatus(ctx, SetStatusCommand{
		OrderID: cmd.OrderID,
		Status:  domain.OrderStatusCancelled,
	})
}

// afterCancel 取消后的库存回补，受 releaseOnCancel 策略控制。
// 回补是尽力而为：失败只记日志，不向调用方传播，
// 因为它不威胁库存非负不变量。
func (s *OrderCommandService) afterCancel(ctx context.Context, order *domain.Order) {
	released := false
	if s.releaseOnCancel {
		released = true
		for _, item := range order.Items {
			if err := s.stock.Release(ctx, item.ProductID, item.Quantity); err != nil {
				released = false
				logging.Error(ctx, "failed to release stock for cancelled order",
					"order_id", order.ID,
					"product_id", item.ProductID,
					"quantity", item.Quantity,
					"error", err,
				)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.OrdersCancelledTotal.Inc()
	}

	event := domain.OrderCancelledEvent{
		OrderID:       order.ID,
		OrderCode:     order.OrderCode,
		DealerID:      order.DealerID,
		StockReleased: released,
		OccurredAt:    time.Now(),
	}
	if err := s.events.Publish(ctx, event.EventName(), event); err != nil {
		logging.Error(ctx, "failed to publish order cancelled event", "order_id", order.ID, "error", err)
	}
}

func (s *OrderCommandService) countFailed() {
	if s.metrics != nil {
		s.metrics.OrdersFailedTotal.Inc()
	}
}

// generateOrderCode 生成日期加唯一后缀的订单编码
func generateOrderCode() string {
	return fmt.Sprintf("SO%s-%d", time.Now().Format("20060102"), idgen.GenID())
}
