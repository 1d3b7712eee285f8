package application

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// OrderItemRequest 下单行项目请求
type OrderItemRequest struct {
	ProductID uint
	Quantity  int
	// 下单时点商定的单价，按请求记录，不回查商品当前价格
	UnitPrice decimal.Decimal
}

// PlaceOrderCommand 下单命令
type PlaceOrderCommand struct {
	DealerID uint
	// 为空时自动生成
	OrderCode string
	// 为空时默认 PENDING
	Status       domain.OrderStatus
	DeliveryDate *time.Time
	Items        []OrderItemRequest
}

// SetStatusCommand 状态变更命令
type SetStatusCommand struct {
	OrderID uint
	Status  domain.OrderStatus
}

// CancelOrderCommand 取消订单命令
type CancelOrderCommand struct {
	OrderID uint
	Reason  string
}
