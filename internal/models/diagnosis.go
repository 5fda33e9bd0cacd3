package models

import (
	"time"

	"gorm.io/gorm"
)

// DiagnosisRecord 病害诊断记录（调用外部推理服务，尽力而为）
type DiagnosisRecord struct {
	ID             uint           `gorm:"primarykey" json:"id"`                            // 主键
	UserID         uint           `gorm:"index;not null" json:"user_id"`                   // 提交人ID
	ImagePath      string         `gorm:"type:varchar(500);not null" json:"image_path"`    // 图片存储路径
	CropName       string         `gorm:"type:varchar(100)" json:"crop_name,omitempty"`    // 作物名称
	Disease        string         `gorm:"type:varchar(200)" json:"disease,omitempty"`      // 识别病害
	Confidence     float64        `gorm:"default:0" json:"confidence"`                     // 置信度（0-100）
	Recommendation string         `gorm:"type:text" json:"recommendation,omitempty"`       // 防治建议
	Status         string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // 诊断状态
	FailureReason  string         `gorm:"type:varchar(500)" json:"failure_reason,omitempty"` // 失败原因
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (DiagnosisRecord) TableName() string {
	return "diagnosis_records"
}
