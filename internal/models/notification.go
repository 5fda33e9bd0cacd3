package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification 站内通知（由订单生命周期事件异步落库）
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`                       // 主键
	UserID    uint           `gorm:"index;not null" json:"user_id"`              // 接收人ID
	EventType string         `gorm:"type:varchar(50);not null;index" json:"event_type"` // 事件类型
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`    // 标题
	Body      string         `gorm:"type:text" json:"body"`                      // 正文
	OrderID   *uint          `gorm:"index" json:"order_id,omitempty"`            // 关联订单
	Payload   JSON           `gorm:"type:json" json:"payload,omitempty"`         // 附加数据
	IsRead    bool           `gorm:"default:false;index" json:"is_read"`         // 是否已读
	ReadAt    *time.Time     `json:"read_at"`                                    // 已读时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                 // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
