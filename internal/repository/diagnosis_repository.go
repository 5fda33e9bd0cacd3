package repository

import (
	"errors"
	"strings"

	"github.com/betteragri-next/internal/models"

	"gorm.io/gorm"
)

// DiagnosisRepository 诊断记录数据访问接口
type DiagnosisRepository interface {
	Create(record *models.DiagnosisRecord) error
	Update(record *models.DiagnosisRecord) error
	GetByIDAndUser(id, userID uint) (*models.DiagnosisRecord, error)
	List(filter DiagnosisListFilter) ([]models.DiagnosisRecord, int64, error)
}

// GormDiagnosisRepository GORM 实现
type GormDiagnosisRepository struct {
	db *gorm.DB
}

// NewDiagnosisRepository 创建诊断记录仓库
func NewDiagnosisRepository(db *gorm.DB) *GormDiagnosisRepository {
	return &GormDiagnosisRepository{db: db}
}

// Create 创建诊断记录
func (r *GormDiagnosisRepository) Create(record *models.DiagnosisRecord) error {
	return r.db.Create(record).Error
}

// Update 更新诊断记录
func (r *GormDiagnosisRepository) Update(record *models.DiagnosisRecord) error {
	return r.db.Save(record).Error
}

// GetByIDAndUser 获取当前用户的诊断记录
func (r *GormDiagnosisRepository) GetByIDAndUser(id, userID uint) (*models.DiagnosisRecord, error) {
	var record models.DiagnosisRecord
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List 诊断记录列表
func (r *GormDiagnosisRepository) List(filter DiagnosisListFilter) ([]models.DiagnosisRecord, int64, error) {
	query := r.db.Model(&models.DiagnosisRecord{}).Where("user_id = ?", filter.UserID)
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.DiagnosisRecord
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
