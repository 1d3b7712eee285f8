// Package domain 包含经销商模块的领域模型
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrDealerNotFound 经销商不存在
var ErrDealerNotFound = errors.New("dealer not found")

// ErrDuplicateCode 经销商编码已存在
var ErrDuplicateCode = errors.New("dealer code already exists")

// Dealer 经销商实体
type Dealer struct {
	gorm.Model
	// 经销商编码，唯一
	Code string `gorm:"column:code;type:varchar(32);uniqueIndex;not null" json:"code"`
	// 商号
	FirmName string `gorm:"column:firm_name;type:varchar(255);not null" json:"firm_name"`
	// 联系人
	ContactName string `gorm:"column:contact_name;type:varchar(100)" json:"contact_name"`
	// 联系电话
	Phone string `gorm:"column:phone;type:varchar(32)" json:"phone"`
	// 邮箱
	Email string `gorm:"column:email;type:varchar(255)" json:"email"`
	// 地址
	Address string `gorm:"column:address;type:varchar(500)" json:"address"`
}

// TableName 指定表名
func (Dealer) TableName() string {
	return "dealers"
}

// Validate 校验经销商字段
func (d *Dealer) Validate() error {
	if d.Code == "" {
		return errors.New("dealer code is required")
	}
	if d.FirmName == "" {
		return errors.New("firm name is required")
	}
	return nil
}

// DealerRepository 经销商仓储接口
type DealerRepository interface {
	Create(ctx context.Context, dealer *Dealer) error
	Update(ctx context.Context, dealer *Dealer) error
	GetByID(ctx context.Context, id uint) (*Dealer, error)
	GetByCode(ctx context.Context, code string) (*Dealer, error)
	List(ctx context.Context, limit, offset int) ([]*Dealer, int64, error)
	Delete(ctx context.Context, id uint) error
	// Exists 下单前的存在性校验
	Exists(ctx context.Context, id uint) (bool, error)
}
