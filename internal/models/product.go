package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表（农产品）
type Product struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                            // 主键
	FarmerID          uint           `gorm:"not null;index" json:"farmer_id"`                                 // 农户ID
	Name              string         `gorm:"type:varchar(200);not null" json:"name"`                          // 商品名称
	Slug              string         `gorm:"uniqueIndex;not null" json:"slug"`                                // 唯一标识
	Description       string         `gorm:"type:text" json:"description"`                                    // 商品描述
	Category          string         `gorm:"type:varchar(50);index" json:"category"`                          // 品类（vegetables/fruits/grains/dairy）
	Unit              string         `gorm:"type:varchar(20);not null;default:'kg'" json:"unit"`              // 计量单位
	PricePerUnit      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_per_unit"`     // 单价
	AvailableQuantity Quantity       `gorm:"type:decimal(20,2);not null;default:0" json:"available_quantity"` // 可售数量（预留后扣减）
	Status            string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`   // 商品状态（draft/active/inactive/sold_out）
	Images            StringArray    `gorm:"type:json" json:"images"`                                         // 图片数组
	IsOrganic         bool           `gorm:"default:false" json:"is_organic"`                                 // 是否有机
	HarvestDate       *time.Time     `json:"harvest_date,omitempty"`                                          // 采收日期
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt         time.Time      `json:"updated_at"`                                                      // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	Farmer *User `gorm:"foreignKey:FarmerID" json:"farmer,omitempty"` // 关联农户
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
