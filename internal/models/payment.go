package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录（与订单一一对应）
type Payment struct {
	ID            uint           `gorm:"primarykey" json:"id"`                        // 主键
	PaymentID     string         `gorm:"uniqueIndex;not null" json:"payment_id"`      // 支付单号（PAY+UUID8）
	OrderID       uint           `gorm:"uniqueIndex;not null" json:"order_id"`        // 订单ID
	Amount        Money          `gorm:"type:decimal(20,2);not null" json:"amount"`   // 支付金额（等于订单应付总额）
	Method        string         `gorm:"type:varchar(32);not null" json:"method"`     // 支付方式
	Status        string         `gorm:"index;not null" json:"status"`                // 支付状态
	TransactionID string         `gorm:"index" json:"transaction_id,omitempty"`       // 网关流水号（模拟网关）
	FailureReason string         `gorm:"type:varchar(500)" json:"failure_reason,omitempty"` // 失败原因
	CompletedAt   *time.Time     `gorm:"index" json:"completed_at"`                   // 完成时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间

	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 关联订单
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
