// Package domain 包含订单模块的领域模型
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/fsm"
	"gorm.io/gorm"
)

// ErrOrderNotFound 订单不存在
var ErrOrderNotFound = errors.New("order not found")

// ErrEmptyOrder 订单没有行项目
var ErrEmptyOrder = errors.New("order must contain at least one line item")

// ErrDealerNotFound 经销商不存在
var ErrDealerNotFound = errors.New("dealer not found")

// ErrInvalidTransition 不允许的状态迁移
var ErrInvalidTransition = errors.New("invalid order status transition")

// ErrDuplicateOrderCode 订单编码已存在
var ErrDuplicateOrderCode = errors.New("order code already exists")

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Valid 是否为已知状态
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal 终态不再迁出
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order 订单聚合根。
// 独占其行项目；总金额在创建时固定，是成交时的财务记录，
// 后续商品调价不影响已有订单。
type Order struct {
	gorm.Model
	// 订单编码，唯一
	OrderCode string `gorm:"column:order_code;type:varchar(32);uniqueIndex;not null" json:"order_code"`
	// 经销商 ID
	DealerID uint `gorm:"column:dealer_id;index;not null" json:"dealer_id"`
	// 订单状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 总金额，创建时按行项目求和后固定
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(20,4);not null" json:"total_amount"`
	// 交付日期，可空
	DeliveryDate *time.Time `gorm:"column:delivery_date" json:"delivery_date,omitempty"`
	// 行项目
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	machine *fsm.Machine[string, string] `gorm:"-"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单行项目。
// 单价为下单时点记录，独立于商品当前价格。
type OrderItem struct {
	gorm.Model
	OrderID   uint            `gorm:"column:order_id;index;not null" json:"order_id"`
	ProductID uint            `gorm:"column:product_id;index;not null" json:"product_id"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(20,4);not null" json:"unit_price"`
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal 行小计
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder 创建订单聚合，校验行项目并计算总金额。
func NewOrder(orderCode string, dealerID uint, status OrderStatus, deliveryDate *time.Time, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if status == "" {
		status = OrderStatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown order status %q", status)
	}

	total := decimal.Zero
	for i := range items {
		if items[i].Quantity <= 0 {
			return nil, fmt.Errorf("line item %d: quantity must be positive, got %d", i, items[i].Quantity)
		}
		if items[i].UnitPrice.IsNegative() {
			return nil, fmt.Errorf("line item %d: unit price must not be negative", i)
		}
		total = total.Add(items[i].Subtotal())
	}

	o := &Order{
		OrderCode:    orderCode,
		DealerID:     dealerID,
		Status:       status,
		TotalAmount:  total,
		DeliveryDate: deliveryDate,
		Items:        items,
	}
	o.initMachine()
	return o, nil
}

// initMachine 构建状态机。
// 非终态之间自由迁移，COMPLETED 与 CANCELLED 为终态不再迁出。
func (o *Order) initMachine() {
	m := fsm.NewMachine[string, string](string(o.Status))
	open := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped}
	all := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled}
	for _, from := range open {
		for _, to := range all {
			if from == to {
				continue
			}
			m.AddTransition(string(from), string(to), string(to))
		}
	}
	o.machine = m
}

// InitMachine 确保状态机已初始化（从仓储加载后需要）
func (o *Order) InitMachine() {
	if o.machine == nil {
		o.initMachine()
	}
}

// TransitionTo 迁移到目标状态
func (o *Order) TransitionTo(ctx context.Context, target OrderStatus) error {
	if !target.Valid() {
		return fmt.Errorf("unknown order status %q", target)
	}
	o.InitMachine()
	if err := o.machine.Trigger(ctx, string(target)); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	o.Status = target
	return nil
}

// CanBeCancelled 是否可以取消
func (o *Order) CanBeCancelled() bool {
	return !o.Status.IsTerminal()
}
