package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号（ORD+日期+随机数字）
	UserID          uint           `gorm:"index;not null" json:"user_id"`                             // 买家ID
	Status          string         `gorm:"index;not null" json:"status"`                              // 订单状态（由订单项状态聚合得出）
	PaymentStatus   string         `gorm:"index;not null;default:'pending'" json:"payment_status"`    // 支付状态
	Subtotal        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 商品小计
	ShippingFee     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"` // 运费
	TaxAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`   // 税额
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 应付总额（创建时一次算定）
	ShippingName    string         `gorm:"type:varchar(100);not null" json:"shipping_name"`           // 收货人
	ShippingPhone   string         `gorm:"type:varchar(32);not null" json:"shipping_phone"`           // 收货电话
	ShippingAddress string         `gorm:"type:varchar(500);not null" json:"shipping_address"`        // 收货地址
	TrackingNumber  string         `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`        // 物流单号
	DeliveryCompany string         `gorm:"type:varchar(100)" json:"delivery_company,omitempty"`       // 物流公司
	CancelReason    string         `gorm:"type:varchar(500)" json:"cancel_reason,omitempty"`          // 取消/拒单原因
	ConfirmedAt     *time.Time     `gorm:"index" json:"confirmed_at"`                                 // 接单时间
	ShippedAt       *time.Time     `gorm:"index" json:"shipped_at"`                                   // 发货时间
	DeliveredAt     *time.Time     `gorm:"index" json:"delivered_at"`                                 // 收货时间
	CancelledAt     *time.Time     `gorm:"index" json:"cancelled_at"`                                 // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`   // 关联买家
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
