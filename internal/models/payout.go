package models

import (
	"time"

	"gorm.io/gorm"
)

// Payout 农户提现申请
type Payout struct {
	ID          uint           `gorm:"primarykey" json:"id"`                         // 主键
	PayoutID    string         `gorm:"uniqueIndex;not null" json:"payout_id"`        // 提现单号（PYT+UUID8）
	FarmerID    uint           `gorm:"index;not null" json:"farmer_id"`              // 农户ID
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"`    // 提现金额
	Method      string         `gorm:"type:varchar(32);not null" json:"method"`      // 提现方式
	Status      string         `gorm:"index;not null" json:"status"`                 // 提现状态（pending/processing/completed/rejected）
	AccountInfo string         `gorm:"type:varchar(500)" json:"account_info,omitempty"` // 收款账户信息
	Remark      string         `gorm:"type:varchar(500)" json:"remark,omitempty"`    // 审核备注
	ProcessedAt *time.Time     `gorm:"index" json:"processed_at"`                    // 审核时间
	CompletedAt *time.Time     `gorm:"index" json:"completed_at"`                    // 打款完成时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                      // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间

	Farmer *User `gorm:"foreignKey:FarmerID" json:"farmer,omitempty"` // 关联农户
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}
