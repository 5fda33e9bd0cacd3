package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/betteragri-next/internal/config"
	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestPayoutService(db *gorm.DB) *PayoutService {
	cfg := &config.Config{}
	cfg.Payout.MinAmount = "10.00"
	notificationSvc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	return NewPayoutService(
		cfg,
		repository.NewPayoutRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		notificationSvc,
	)
}

func appendAccrual(t *testing.T, db *gorm.DB, farmerID uint, amount string) {
	t.Helper()
	entry := models.SalesLedgerEntry{
		FarmerID:  farmerID,
		EntryType: constants.LedgerEntrySaleAccrual,
		Amount:    models.NewMoneyFromDecimal(decimal.RequireFromString(amount)),
		CreatedAt: time.Now(),
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("append accrual failed: %v", err)
	}
}

func assertBalance(t *testing.T, svc *PayoutService, farmerID uint, ledger, onHold, available string) {
	t.Helper()
	balance, err := svc.Balance(farmerID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if !balance.LedgerBalance.Decimal.Equal(decimal.RequireFromString(ledger)) {
		t.Fatalf("expected ledger %s, got %s", ledger, balance.LedgerBalance.String())
	}
	if !balance.OnHold.Decimal.Equal(decimal.RequireFromString(onHold)) {
		t.Fatalf("expected on hold %s, got %s", onHold, balance.OnHold.String())
	}
	if !balance.Available.Decimal.Equal(decimal.RequireFromString(available)) {
		t.Fatalf("expected available %s, got %s", available, balance.Available.String())
	}
}

func TestPayoutRequestValidation(t *testing.T) {
	db := setupMarketTestDB(t, "payout_validation")
	svc := newTestPayoutService(db)
	farmer := createTestUser(t, db, "farmer_payout_v@example.com", constants.RoleFarmer)
	appendAccrual(t, db, farmer.ID, "100.00")

	base := RequestPayoutInput{
		FarmerID:    farmer.ID,
		Amount:      models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
		Method:      constants.PayoutMethodBankTransfer,
		AccountInfo: "6222 0202 0000 1234",
	}

	bad := base
	bad.Method = "paypal"
	if _, err := svc.Request(bad); !errors.Is(err, ErrPayoutMethodInvalid) {
		t.Fatalf("expected invalid method, got: %v", err)
	}

	bad = base
	bad.Amount = models.NewMoneyFromDecimal(decimal.RequireFromString("5.00"))
	if _, err := svc.Request(bad); !errors.Is(err, ErrPayoutAmountInvalid) {
		t.Fatalf("expected amount below minimum rejected, got: %v", err)
	}

	bad = base
	bad.AccountInfo = "  "
	if _, err := svc.Request(bad); !errors.Is(err, ErrPayoutAmountInvalid) {
		t.Fatalf("expected missing account info rejected, got: %v", err)
	}

	bad = base
	bad.Amount = models.NewMoneyFromDecimal(decimal.RequireFromString("150.00"))
	if _, err := svc.Request(bad); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}

	// 事务内先锁农户行，农户不存在直接拒绝
	bad = base
	bad.FarmerID = farmer.ID + 100
	if _, err := svc.Request(bad); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected unknown farmer rejected, got: %v", err)
	}
}

func TestPayoutHoldAndRejectReleases(t *testing.T) {
	db := setupMarketTestDB(t, "payout_hold")
	svc := newTestPayoutService(db)
	farmer := createTestUser(t, db, "farmer_payout_h@example.com", constants.RoleFarmer)
	appendAccrual(t, db, farmer.ID, "100.00")

	payout, err := svc.Request(RequestPayoutInput{
		FarmerID:    farmer.ID,
		Amount:      models.NewMoneyFromDecimal(decimal.RequireFromString("60.00")),
		Method:      constants.PayoutMethodUPI,
		AccountInfo: "farmer@upi",
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	if !strings.HasPrefix(payout.PayoutID, "PYT") {
		t.Fatalf("unexpected payout id: %s", payout.PayoutID)
	}
	if payout.Status != constants.PayoutStatusPending {
		t.Fatalf("expected pending payout, got %s", payout.Status)
	}

	// 审核中的金额占用余额
	assertBalance(t, svc, farmer.ID, "100.00", "60.00", "40.00")
	if _, err := svc.Request(RequestPayoutInput{
		FarmerID:    farmer.ID,
		Amount:      models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
		Method:      constants.PayoutMethodUPI,
		AccountInfo: "farmer@upi",
	}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected held amount to block second request, got: %v", err)
	}

	// 驳回后占用释放
	rejected, err := svc.Reject(payout.PayoutID, "账户信息有误")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.PayoutStatusRejected || rejected.Remark == "" {
		t.Fatalf("unexpected rejected payout: %+v", rejected)
	}
	assertBalance(t, svc, farmer.ID, "100.00", "0", "100.00")
}

func TestPayoutCompleteAppendsDebit(t *testing.T) {
	db := setupMarketTestDB(t, "payout_complete")
	svc := newTestPayoutService(db)
	farmer := createTestUser(t, db, "farmer_payout_c@example.com", constants.RoleFarmer)
	appendAccrual(t, db, farmer.ID, "80.00")
	appendAccrual(t, db, farmer.ID, "20.00")

	payout, err := svc.Request(RequestPayoutInput{
		FarmerID:    farmer.ID,
		Amount:      models.NewMoneyFromDecimal(decimal.RequireFromString("60.00")),
		Method:      constants.PayoutMethodBankTransfer,
		AccountInfo: "6222 0202 0000 1234",
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	// 未审核不可直接打款
	if _, err := svc.Complete(payout.PayoutID); !errors.Is(err, ErrPayoutStatusInvalid) {
		t.Fatalf("expected invalid status before approve, got: %v", err)
	}

	approved, err := svc.Approve(payout.PayoutID, "审核通过")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.PayoutStatusProcessing || approved.ProcessedAt == nil {
		t.Fatalf("unexpected approved payout: %+v", approved)
	}
	// 打款中仍占用余额
	assertBalance(t, svc, farmer.ID, "100.00", "60.00", "40.00")

	completed, err := svc.Complete(payout.PayoutID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.PayoutStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed payout: %+v", completed)
	}

	// 完成后出账入台账，占用清零，余额守恒
	assertBalance(t, svc, farmer.ID, "40.00", "0", "40.00")

	var debit models.SalesLedgerEntry
	if err := db.Where("entry_type = ?", constants.LedgerEntryPayoutDebit).First(&debit).Error; err != nil {
		t.Fatalf("load debit entry failed: %v", err)
	}
	if !debit.Amount.Decimal.Equal(decimal.RequireFromString("-60.00")) {
		t.Fatalf("expected -60.00 debit, got %s", debit.Amount.String())
	}
	if debit.PayoutID == nil || *debit.PayoutID != completed.ID {
		t.Fatalf("expected debit linked to payout")
	}

	// 不可重复打款
	if _, err := svc.Complete(payout.PayoutID); !errors.Is(err, ErrPayoutStatusInvalid) {
		t.Fatalf("expected invalid status on re-complete, got: %v", err)
	}
}

func TestPayoutGetForFarmerScoped(t *testing.T) {
	db := setupMarketTestDB(t, "payout_scope")
	svc := newTestPayoutService(db)
	farmerA := createTestUser(t, db, "farmer_payout_a@example.com", constants.RoleFarmer)
	farmerB := createTestUser(t, db, "farmer_payout_b@example.com", constants.RoleFarmer)
	appendAccrual(t, db, farmerA.ID, "100.00")

	payout, err := svc.Request(RequestPayoutInput{
		FarmerID:    farmerA.ID,
		Amount:      models.NewMoneyFromDecimal(decimal.RequireFromString("30.00")),
		Method:      constants.PayoutMethodUPI,
		AccountInfo: "farmer@upi",
	})
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	if _, err := svc.GetForFarmer(farmerB.ID, payout.PayoutID); !errors.Is(err, ErrPayoutNotFound) {
		t.Fatalf("expected other farmer blocked, got: %v", err)
	}
	got, err := svc.GetForFarmer(farmerA.ID, payout.PayoutID)
	if err != nil {
		t.Fatalf("get for farmer failed: %v", err)
	}
	if got.PayoutID != payout.PayoutID {
		t.Fatalf("unexpected payout: %+v", got)
	}
}
