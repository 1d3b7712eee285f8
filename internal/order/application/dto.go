package application

import (
	"time"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
)

// OrderDTO 订单视图
type OrderDTO struct {
	ID           uint           `json:"id"`
	OrderCode    string         `json:"order_code"`
	DealerID     uint           `json:"dealer_id"`
	Status       string         `json:"status"`
	TotalAmount  string         `json:"total_amount"`
	DeliveryDate *time.Time     `json:"delivery_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Items        []OrderItemDTO `json:"items"`
}

// OrderItemDTO 行项目视图
type OrderItemDTO struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// toDTO 领域对象转视图
func toDTO(order *domain.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
			Subtotal:  item.Subtotal().String(),
		})
	}
	return &OrderDTO{
		ID:           order.ID,
		OrderCode:    order.OrderCode,
		DealerID:     order.DealerID,
		Status:       string(order.Status),
		TotalAmount:  order.TotalAmount.String(),
		DeliveryDate: order.DeliveryDate,
		CreatedAt:    order.CreatedAt,
		Items:        items,
	}
}
