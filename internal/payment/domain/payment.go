// Package domain 定义付款记录的领域模型。
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrPaymentNotFound 付款记录不存在
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInvalidAmount 付款金额必须为正数
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrDuplicatePaymentNo 付款单号重复
	ErrDuplicatePaymentNo = errors.New("duplicate payment number")
)

// PaymentMethod 付款方式
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCash         PaymentMethod = "CASH"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodOther        PaymentMethod = "OTHER"
)

// Valid 判断付款方式是否合法
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodCash, MethodCheque, MethodOther:
		return true
	}
	return false
}

// Payment 经销商付款记录。
// 付款冲减经销商应付余额，可选关联到具体订单。
type Payment struct {
	gorm.Model
	PaymentNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_no"`
	DealerID  uint            `gorm:"index;not null" json:"dealer_id"`
	OrderID   *uint           `gorm:"index" json:"order_id,omitempty"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Method    PaymentMethod   `gorm:"type:varchar(32);not null" json:"method"`
	Remark    string          `gorm:"type:varchar(255)" json:"remark"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}

// Validate 校验付款记录
func (p *Payment) Validate() error {
	if p.DealerID == 0 {
		return errors.New("dealer id is required")
	}
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !p.Method.Valid() {
		return errors.New("invalid payment method")
	}
	return nil
}

// PaymentRepository 付款记录仓储接口
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id uint) (*Payment, error)
	GetByPaymentNo(ctx context.Context, paymentNo string) (*Payment, error)
	ListByDealer(ctx context.Context, dealerID uint, limit, offset int) ([]*Payment, int64, error)
	Delete(ctx context.Context, id uint) error
}
