package service

import (
	"strings"
	"time"

	"github.com/betteragri-next/internal/config"
	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequestPayoutInput 提现申请输入
type RequestPayoutInput struct {
	FarmerID    uint
	Amount      models.Money
	Method      string
	AccountInfo string
}

// FarmerBalance 农户账户余额概览
type FarmerBalance struct {
	LedgerBalance models.Money `json:"ledger_balance"` // 台账净额
	OnHold        models.Money `json:"on_hold"`        // 审核中提现占用
	Available     models.Money `json:"available"`      // 可提现金额
}

// PayoutService 提现服务
type PayoutService struct {
	payoutRepo      repository.PayoutRepository
	ledgerRepo      repository.LedgerRepository
	orderRepo       repository.OrderRepository
	userRepo        repository.UserRepository
	notificationSvc *NotificationService
	minAmount       decimal.Decimal
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	cfg *config.Config,
	payoutRepo repository.PayoutRepository,
	ledgerRepo repository.LedgerRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	notificationSvc *NotificationService,
) *PayoutService {
	minAmount, err := decimal.NewFromString(cfg.Payout.MinAmount)
	if err != nil {
		minAmount = decimal.Zero
	}
	return &PayoutService{
		payoutRepo:      payoutRepo,
		ledgerRepo:      ledgerRepo,
		orderRepo:       orderRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		minAmount:       minAmount,
	}
}

var allowedPayoutMethods = map[string]struct{}{
	constants.PayoutMethodBankTransfer: {},
	constants.PayoutMethodUPI:          {},
}

// Balance 农户可提现余额：台账净额减去审核中提现占用
func (s *PayoutService) Balance(farmerID uint) (*FarmerBalance, error) {
	ledgerBalance, err := s.ledgerRepo.BalanceByFarmer(farmerID)
	if err != nil {
		return nil, err
	}
	onHold, err := s.payoutRepo.SumOpenAmountByFarmer(farmerID)
	if err != nil {
		return nil, err
	}
	return &FarmerBalance{
		LedgerBalance: models.NewMoneyFromDecimal(ledgerBalance),
		OnHold:        models.NewMoneyFromDecimal(onHold),
		Available:     models.NewMoneyFromDecimal(ledgerBalance.Sub(onHold)),
	}, nil
}

// Request 农户发起提现申请。余额校验与创建在同一事务内完成。
func (s *PayoutService) Request(input RequestPayoutInput) (*models.Payout, error) {
	if _, ok := allowedPayoutMethods[input.Method]; !ok {
		return nil, ErrPayoutMethodInvalid
	}
	amount := input.Amount.Decimal.Round(2)
	if !amount.IsPositive() || amount.LessThan(s.minAmount) {
		return nil, ErrPayoutAmountInvalid
	}
	if strings.TrimSpace(input.AccountInfo) == "" {
		return nil, ErrPayoutAmountInvalid
	}

	var payout *models.Payout
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txPayouts := s.payoutRepo.WithTx(tx)
		txLedger := s.ledgerRepo.WithTx(tx)

		// 锁农户行，将余额校验与申请创建串行化
		farmer, err := s.userRepo.WithTx(tx).GetByIDForUpdate(input.FarmerID)
		if err != nil {
			return err
		}
		if farmer == nil {
			return ErrPermissionDenied
		}

		ledgerBalance, err := txLedger.BalanceByFarmer(input.FarmerID)
		if err != nil {
			return err
		}
		onHold, err := txPayouts.SumOpenAmountByFarmer(input.FarmerID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(ledgerBalance.Sub(onHold)) {
			return ErrInsufficientBalance
		}

		now := time.Now()
		payout = &models.Payout{
			PayoutID:    generatePayoutID(),
			FarmerID:    input.FarmerID,
			Amount:      models.NewMoneyFromDecimal(amount),
			Method:      input.Method,
			Status:      constants.PayoutStatusPending,
			AccountInfo: strings.TrimSpace(input.AccountInfo),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return txPayouts.Create(payout)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payout_requested", "payout_id", payout.PayoutID, "farmer_id", payout.FarmerID, "amount", payout.Amount.String())
	return payout, nil
}

// Approve 管理员审核通过，进入打款流程
func (s *PayoutService) Approve(payoutID string, remark string) (*models.Payout, error) {
	payout, err := s.transition(payoutID, constants.PayoutStatusPending, constants.PayoutStatusProcessing, remark)
	if err != nil {
		return nil, err
	}
	logger.Infow("payout_approved", "payout_id", payout.PayoutID, "farmer_id", payout.FarmerID)
	return payout, nil
}

// Reject 管理员驳回提现，占用随之释放
func (s *PayoutService) Reject(payoutID string, remark string) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByPayoutID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	if payout.Status != constants.PayoutStatusPending && payout.Status != constants.PayoutStatusProcessing {
		return nil, ErrPayoutStatusInvalid
	}
	payout.Status = constants.PayoutStatusRejected
	payout.Remark = strings.TrimSpace(remark)
	payout.UpdatedAt = time.Now()
	if err := s.payoutRepo.Update(payout); err != nil {
		return nil, err
	}

	s.emitPayoutUpdated(payout)
	logger.Infow("payout_rejected", "payout_id", payout.PayoutID, "farmer_id", payout.FarmerID, "remark", payout.Remark)
	return payout, nil
}

// Complete 打款完成：置完成并在台账记一笔出账
func (s *PayoutService) Complete(payoutID string) (*models.Payout, error) {
	var payout *models.Payout
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txPayouts := s.payoutRepo.WithTx(tx)
		txLedger := s.ledgerRepo.WithTx(tx)

		p, err := txPayouts.GetByPayoutID(payoutID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPayoutNotFound
		}
		if p.Status != constants.PayoutStatusProcessing {
			return ErrPayoutStatusInvalid
		}

		now := time.Now()
		p.Status = constants.PayoutStatusCompleted
		p.CompletedAt = &now
		p.UpdatedAt = now
		if err := txPayouts.Update(p); err != nil {
			return err
		}

		refID := p.ID
		entry := &models.SalesLedgerEntry{
			FarmerID:  p.FarmerID,
			EntryType: constants.LedgerEntryPayoutDebit,
			Amount:    models.NewMoneyFromDecimal(p.Amount.Decimal.Neg()),
			PayoutID:  &refID,
			CreatedAt: now,
		}
		if err := txLedger.Append(entry); err != nil {
			return err
		}
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitPayoutUpdated(payout)
	logger.Infow("payout_completed", "payout_id", payout.PayoutID, "farmer_id", payout.FarmerID, "amount", payout.Amount.String())
	return payout, nil
}

// GetForFarmer 农户查询自己的提现单
func (s *PayoutService) GetForFarmer(farmerID uint, payoutID string) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByPayoutID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil || payout.FarmerID != farmerID {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

// List 提现列表（按过滤条件，农户侧带 FarmerID）
func (s *PayoutService) List(filter repository.PayoutListFilter) ([]models.Payout, int64, error) {
	return s.payoutRepo.List(filter)
}

// Ledger 农户台账流水
func (s *PayoutService) Ledger(farmerID uint, page, pageSize int) ([]models.SalesLedgerEntry, int64, error) {
	return s.ledgerRepo.ListByFarmer(farmerID, page, pageSize)
}

// transition 单步状态推进
func (s *PayoutService) transition(payoutID, from, to, remark string) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetByPayoutID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	if payout.Status != from {
		return nil, ErrPayoutStatusInvalid
	}
	now := time.Now()
	payout.Status = to
	payout.ProcessedAt = &now
	payout.UpdatedAt = now
	if strings.TrimSpace(remark) != "" {
		payout.Remark = strings.TrimSpace(remark)
	}
	if err := s.payoutRepo.Update(payout); err != nil {
		return nil, err
	}
	s.emitPayoutUpdated(payout)
	return payout, nil
}

func (s *PayoutService) emitPayoutUpdated(payout *models.Payout) {
	s.notificationSvc.Emit(constants.NotificationPayoutUpdated, payout.FarmerID, 0, map[string]interface{}{
		"payout_id": payout.PayoutID,
		"status":    payout.Status,
	})
}

// generatePayoutID 生成提现单号：PYT + UUID 前 8 位
func generatePayoutID() string {
	return "PYT" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
