package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表（下单时从商品快照，不随后续改价变动）
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                                 // 订单ID
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                               // 商品ID
	FarmerID    uint           `gorm:"index;not null" json:"farmer_id"`                                // 农户ID（下单时冗余）
	ProductName string         `gorm:"type:varchar(200);not null" json:"product_name"`                 // 商品名称快照
	Unit        string         `gorm:"type:varchar(20);not null;default:'kg'" json:"unit"`             // 计量单位快照
	Quantity    Quantity       `gorm:"type:decimal(20,2);not null" json:"quantity"`                    // 数量
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`        // 单价快照
	TotalPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`       // 小计
	ItemStatus  string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"item_status"` // 订单项状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
	Farmer  *User    `gorm:"foreignKey:FarmerID" json:"farmer,omitempty"`   // 关联农户
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
