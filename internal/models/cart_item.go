package models

import (
	"time"

	"gorm.io/gorm"
)

// CartItem 购物车项（每用户每商品唯一，数量追加）
type CartItem struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                         // 主键
	UserID     uint           `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`    // 买家ID
	ProductID  uint           `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"` // 商品ID
	Quantity   Quantity       `gorm:"type:decimal(20,2);not null" json:"quantity"`                  // 数量
	UnitPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`      // 加购时单价快照
	TotalPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`     // 小计（每次变更重算）
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
