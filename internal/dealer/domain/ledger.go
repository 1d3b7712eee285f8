package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Balance 经销商财务状况。
// Outstanding 为正表示经销商欠款，为负表示预付。
type Balance struct {
	DealerID     uint            `json:"dealer_id"`
	TotalOrdered decimal.Decimal `json:"total_ordered"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

// OrderAmountSource 订单金额读取端口，返回经销商全部订单的总金额序列。
type OrderAmountSource interface {
	OrderAmountsByDealer(ctx context.Context, dealerID uint) ([]decimal.Decimal, error)
}

// PaymentAmountSource 付款金额读取端口，返回经销商全部付款的金额序列。
type PaymentAmountSource interface {
	PaymentAmountsByDealer(ctx context.Context, dealerID uint) ([]decimal.Decimal, error)
}

// ComputeBalance 纯计算：逐笔求和，不持久化任何派生状态。
func ComputeBalance(dealerID uint, orderAmounts, paymentAmounts []decimal.Decimal) Balance {
	totalOrdered := decimal.Zero
	for _, amount := range orderAmounts {
		totalOrdered = totalOrdered.Add(amount)
	}

	totalPaid := decimal.Zero
	for _, amount := range paymentAmounts {
		totalPaid = totalPaid.Add(amount)
	}

	return Balance{
		DealerID:     dealerID,
		TotalOrdered: totalOrdered,
		TotalPaid:    totalPaid,
		Outstanding:  totalOrdered.Sub(totalPaid),
	}
}
