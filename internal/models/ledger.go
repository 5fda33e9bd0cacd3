package models

import (
	"time"
)

// SalesLedgerEntry 农户销售台账（只追加，余额 = 全部条目金额求和）
// 正数为确认收货入账，负数为提现完成出账。
type SalesLedgerEntry struct {
	ID          uint      `gorm:"primarykey" json:"id"`                       // 主键
	FarmerID    uint      `gorm:"index;not null" json:"farmer_id"`            // 农户ID
	EntryType   string    `gorm:"type:varchar(32);not null;index" json:"entry_type"` // 条目类型（sale_accrual/payout_debit）
	Amount      Money     `gorm:"type:decimal(20,2);not null" json:"amount"`  // 带符号金额
	OrderItemID *uint     `gorm:"index" json:"order_item_id,omitempty"`       // 来源订单项（入账）
	PayoutID    *uint     `gorm:"index" json:"payout_id,omitempty"`           // 来源提现单（出账）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                    // 创建时间
}

// TableName 指定表名
func (SalesLedgerEntry) TableName() string {
	return "sales_ledger_entries"
}
