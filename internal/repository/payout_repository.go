package repository

import (
	"errors"
	"strings"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutRepository 提现数据访问接口
type PayoutRepository interface {
	Create(payout *models.Payout) error
	GetByID(id uint) (*models.Payout, error)
	GetByPayoutID(payoutID string) (*models.Payout, error)
	Update(payout *models.Payout) error
	List(filter PayoutListFilter) ([]models.Payout, int64, error)
	SumOpenAmountByFarmer(farmerID uint) (decimal.Decimal, error)
	WithTx(tx *gorm.DB) *GormPayoutRepository
}

// GormPayoutRepository GORM 实现
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository 创建提现仓库
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) *GormPayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// Create 创建提现申请
func (r *GormPayoutRepository) Create(payout *models.Payout) error {
	return r.db.Create(payout).Error
}

// GetByID 根据 ID 获取提现申请
func (r *GormPayoutRepository) GetByID(id uint) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByPayoutID 根据提现单号获取提现申请
func (r *GormPayoutRepository) GetByPayoutID(payoutID string) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.Where("payout_id = ?", payoutID).First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// Update 更新提现申请
func (r *GormPayoutRepository) Update(payout *models.Payout) error {
	return r.db.Save(payout).Error
}

// List 提现申请列表
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.Payout, int64, error) {
	query := r.db.Model(&models.Payout{})
	if filter.FarmerID != 0 {
		query = query.Where("farmer_id = ?", filter.FarmerID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payouts []models.Payout
	query = applyPagination(query.Preload("Farmer"), filter.Page, filter.PageSize)
	if err := query.Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}

// SumOpenAmountByFarmer 汇总农户未完结提现申请的占用金额
func (r *GormPayoutRepository) SumOpenAmountByFarmer(farmerID uint) (decimal.Decimal, error) {
	if farmerID == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	err := r.db.Model(&models.Payout{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("farmer_id = ? AND status IN ?", farmerID,
			[]string{constants.PayoutStatusPending, constants.PayoutStatusProcessing}).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}
