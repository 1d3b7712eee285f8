// Package application 实现付款模块的应用服务。
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	dealerdomain "github.com/wyfcoding/ordermanagement/internal/dealer/domain"
	"github.com/wyfcoding/ordermanagement/internal/payment/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
)

// DealerChecker 经销商存在性校验端口
type DealerChecker interface {
	Exists(ctx context.Context, dealerID uint) (bool, error)
}

// RecordPaymentCommand 登记付款命令
type RecordPaymentCommand struct {
	DealerID uint                 `json:"dealer_id" binding:"required"`
	OrderID  *uint                `json:"order_id,omitempty"`
	Amount   decimal.Decimal      `json:"amount" binding:"required"`
	Method   domain.PaymentMethod `json:"method" binding:"required"`
	Remark   string               `json:"remark"`
	PaidAt   *time.Time           `json:"paid_at,omitempty"`
}

// PaymentService 付款应用服务
type PaymentService struct {
	repo    domain.PaymentRepository
	dealers DealerChecker
}

// NewPaymentService 创建付款应用服务实例
func NewPaymentService(repo domain.PaymentRepository, dealers DealerChecker) *PaymentService {
	return &PaymentService{repo: repo, dealers: dealers}
}

// RecordPayment 登记一笔经销商付款，冲减其应付余额。
func (s *PaymentService) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (*domain.Payment, error) {
	exists, err := s.dealers.Exists(ctx, cmd.DealerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dealerdomain.ErrDealerNotFound
	}

	paidAt := time.Now()
	if cmd.PaidAt != nil {
		paidAt = *cmd.PaidAt
	}

	payment := &domain.Payment{
		PaymentNo: generatePaymentNo(),
		DealerID:  cmd.DealerID,
		OrderID:   cmd.OrderID,
		Amount:    cmd.Amount,
		Method:    cmd.Method,
		Remark:    cmd.Remark,
		PaidAt:    paidAt,
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	logging.Info(ctx, "payment recorded",
		"payment_no", payment.PaymentNo,
		"dealer_id", payment.DealerID,
		"amount", payment.Amount.String())
	return payment, nil
}

// GetPayment 按 ID 查询付款记录。
func (s *PaymentService) GetPayment(ctx context.Context, id uint) (*domain.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListDealerPayments 分页查询经销商的付款记录。
func (s *PaymentService) ListDealerPayments(ctx context.Context, dealerID uint, page, pageSize int) ([]*domain.Payment, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.repo.ListByDealer(ctx, dealerID, pageSize, (page-1)*pageSize)
}

// DeletePayment 删除付款记录。
func (s *PaymentService) DeletePayment(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func generatePaymentNo() string {
	return fmt.Sprintf("PAY%s-%d", time.Now().Format("20060102"), idgen.GenID())
}
