package domain

import "context"

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Transaction 打开事务作用域并在其中执行回调；
	// 回调收到的 context 携带事务句柄，回调内的所有仓储调用共享同一事务。
	// 回调返回错误时整体回滚，否则提交。
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Create 持久化订单头与全部行项目
	Create(ctx context.Context, order *Order) error
	// Get 获取订单（含行项目）
	Get(ctx context.Context, id uint) (*Order, error)
	// GetByCode 按订单编码获取
	GetByCode(ctx context.Context, code string) (*Order, error)
	// ListByDealer 获取经销商订单列表
	ListByDealer(ctx context.Context, dealerID uint, limit, offset int) ([]*Order, int64, error)
	// ListByStatus 按状态获取订单列表
	ListByStatus(ctx context.Context, status OrderStatus, limit, offset int) ([]*Order, int64, error)
	// UpdateStatus 仅持久化状态字段。
	// 更新以 from 为条件守卫，状态在校验后被并发修改时
	// 返回 ErrInvalidTransition 而不是覆盖写入。
	UpdateStatus(ctx context.Context, id uint, from, to OrderStatus) error
}

// StockReserver 库存预留端口，由库存模块实现。
// Reserve 必须与通过 context 传入的事务共享同一事务上下文。
type StockReserver interface {
	Reserve(ctx context.Context, productID uint, quantity int) error
	Release(ctx context.Context, productID uint, quantity int) error
}

// DealerDirectory 经销商查询端口，下单前校验经销商存在。
type DealerDirectory interface {
	Exists(ctx context.Context, dealerID uint) (bool, error)
}

// EventPublisher 领域事件发布端口
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}
