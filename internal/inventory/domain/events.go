package domain

import "time"

// StockReservedEvent 库存预留事件
type StockReservedEvent struct {
	ProductID  uint      `json:"product_id"`
	Quantity   int       `json:"quantity"`
	OrderCode  string    `json:"order_code"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventName 事件名称
func (StockReservedEvent) EventName() string { return "inventory.stock_reserved" }

// StockReleasedEvent 库存回补事件
type StockReleasedEvent struct {
	ProductID  uint      `json:"product_id"`
	Quantity   int       `json:"quantity"`
	OrderCode  string    `json:"order_code"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventName 事件名称
func (StockReleasedEvent) EventName() string { return "inventory.stock_released" }

// LowStockEvent 低库存预警事件
type LowStockEvent struct {
	ProductID  uint      `json:"product_id"`
	Code       string    `json:"code"`
	OnHand     int       `json:"on_hand"`
	MinStock   int       `json:"min_stock"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventName 事件名称
func (LowStockEvent) EventName() string { return "inventory.low_stock" }
