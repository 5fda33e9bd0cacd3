package repository

import (
	"github.com/betteragri-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository 销售台账数据访问接口（只追加）
type LedgerRepository interface {
	Append(entry *models.SalesLedgerEntry) error
	BalanceByFarmer(farmerID uint) (decimal.Decimal, error)
	ListByFarmer(farmerID uint, page, pageSize int) ([]models.SalesLedgerEntry, int64, error)
	WithTx(tx *gorm.DB) *GormLedgerRepository
}

// GormLedgerRepository GORM 实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建台账仓库
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Append 追加台账条目
func (r *GormLedgerRepository) Append(entry *models.SalesLedgerEntry) error {
	return r.db.Create(entry).Error
}

// BalanceByFarmer 农户累计余额（全部条目带符号金额求和）
func (r *GormLedgerRepository) BalanceByFarmer(farmerID uint) (decimal.Decimal, error) {
	if farmerID == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	err := r.db.Model(&models.SalesLedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("farmer_id = ?", farmerID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// ListByFarmer 农户台账明细
func (r *GormLedgerRepository) ListByFarmer(farmerID uint, page, pageSize int) ([]models.SalesLedgerEntry, int64, error) {
	query := r.db.Model(&models.SalesLedgerEntry{}).Where("farmer_id = ?", farmerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.SalesLedgerEntry
	query = applyPagination(query, page, pageSize)
	if err := query.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
