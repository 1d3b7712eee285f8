package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent 订单创建事件
type OrderPlacedEvent struct {
	OrderID     uint            `json:"order_id"`
	OrderCode   string          `json:"order_code"`
	DealerID    uint            `json:"dealer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// EventName 事件名称
func (OrderPlacedEvent) EventName() string { return "order.placed" }

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderID    uint        `json:"order_id"`
	OrderCode  string      `json:"order_code"`
	OldStatus  OrderStatus `json:"old_status"`
	NewStatus  OrderStatus `json:"new_status"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// EventName 事件名称
func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

// OrderCancelledEvent 订单取消事件
type OrderCancelledEvent struct {
	OrderID       uint      `json:"order_id"`
	OrderCode     string    `json:"order_code"`
	DealerID      uint      `json:"dealer_id"`
	StockReleased bool      `json:"stock_released"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventName 事件名称
func (OrderCancelledEvent) EventName() string { return "order.cancelled" }
