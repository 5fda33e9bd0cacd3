package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（买家/农户/管理员共用一张表，按 role 区分）
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                             // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`                // 邮箱
	PasswordHash string         `gorm:"not null" json:"-"`                                // 密码哈希（不返回给前端）
	DisplayName  string         `gorm:"default:''" json:"display_name"`                   // 昵称
	Role         string         `gorm:"type:varchar(20);not null;index" json:"role"`      // 角色（buyer/farmer/admin）
	Phone        string         `gorm:"type:varchar(32)" json:"phone,omitempty"`          // 联系电话
	Address      string         `gorm:"type:varchar(500)" json:"address,omitempty"`       // 默认地址
	FarmName     string         `gorm:"type:varchar(200)" json:"farm_name,omitempty"`     // 农场名称（仅农户）
	FarmLocation string         `gorm:"type:varchar(500)" json:"farm_location,omitempty"` // 农场地址（仅农户）
	Status       string         `gorm:"default:'active'" json:"status"`                   // 账号状态
	LastLoginAt  *time.Time     `json:"last_login_at"`                                    // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                          // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsFarmer 判断是否农户
func (u *User) IsFarmer() bool {
	return u != nil && u.Role == "farmer"
}

// IsAdmin 判断是否管理员
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}
