package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"

	"gorm.io/gorm"
)

func newTestPaymentService(db *gorm.DB) *PaymentService {
	notificationSvc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	return NewPaymentService(repository.NewPaymentRepository(db), repository.NewOrderRepository(db), notificationSvc)
}

func setupPaidableOrder(t *testing.T, name string) (*PaymentService, *gorm.DB, *models.Order, *models.User) {
	t.Helper()
	db := setupMarketTestDB(t, name)
	orderSvc := newTestOrderService(db)

	farmer := createTestUser(t, db, "farmer_"+name+"@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_"+name+"@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-"+name, "8.50", "100.00")
	addTestCartItem(t, db, buyer.ID, tomato, "4.00")

	order, err := orderSvc.Checkout(checkoutInputFor(buyer.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return newTestPaymentService(db), db, order, buyer
}

func TestCreatePaymentMatchesOrderTotal(t *testing.T) {
	svc, _, order, buyer := setupPaidableOrder(t, "payment_create")

	payment, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: constants.PaymentMethodCard})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if !strings.HasPrefix(payment.PaymentID, "PAY") {
		t.Fatalf("unexpected payment id: %s", payment.PaymentID)
	}
	if !payment.Amount.Decimal.Equal(order.TotalAmount.Decimal) {
		t.Fatalf("expected amount %s, got %s", order.TotalAmount.String(), payment.Amount.String())
	}
	if payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", payment.Status)
	}

	// 一单一支付：进行中的支付不可重复创建
	if _, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: constants.PaymentMethodUPI}); !errors.Is(err, ErrPaymentExists) {
		t.Fatalf("expected payment exists, got: %v", err)
	}
}

func TestCreatePaymentGuards(t *testing.T) {
	svc, db, order, buyer := setupPaidableOrder(t, "payment_guard")

	if _, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: "bitcoin"}); !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected invalid method, got: %v", err)
	}
	if _, err := svc.Create(CreatePaymentInput{UserID: buyer.ID + 100, OrderID: order.ID, Method: constants.PaymentMethodCard}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for other user, got: %v", err)
	}

	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", constants.OrderStatusCancelled).Error; err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if _, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: constants.PaymentMethodCard}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for cancelled order, got: %v", err)
	}
}

func TestMarkCompletedFlipsOrderPaymentStatus(t *testing.T) {
	svc, db, order, buyer := setupPaidableOrder(t, "payment_complete")

	payment, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: constants.PaymentMethodCard})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	completed, err := svc.MarkCompleted(payment.PaymentID, "TXN-001")
	if err != nil {
		t.Fatalf("mark completed failed: %v", err)
	}
	if completed.Status != constants.PaymentStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if completed.CompletedAt == nil || completed.TransactionID != "TXN-001" {
		t.Fatalf("unexpected completed payment: %+v", completed)
	}

	var refreshed models.Order
	if err := db.First(&refreshed, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if refreshed.PaymentStatus != constants.OrderPaymentStatusPaid {
		t.Fatalf("expected order paid, got %s", refreshed.PaymentStatus)
	}

	// 已完成的支付不可重复回调
	if _, err := svc.MarkCompleted(payment.PaymentID, "TXN-002"); !errors.Is(err, ErrPaymentStatusInvalid) {
		t.Fatalf("expected invalid status on re-complete, got: %v", err)
	}
	// 已支付订单不可再次发起支付
	if _, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: constants.PaymentMethodCard}); !errors.Is(err, ErrPaymentStatusInvalid) {
		t.Fatalf("expected invalid status for paid order, got: %v", err)
	}
}

func TestMarkFailedAllowsRecreate(t *testing.T) {
	svc, db, order, buyer := setupPaidableOrder(t, "payment_retry")

	payment, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: constants.PaymentMethodCard})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	failed, err := svc.MarkFailed(payment.PaymentID, "余额不足")
	if err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}
	if failed.Status != constants.PaymentStatusFailed || failed.FailureReason != "余额不足" {
		t.Fatalf("unexpected failed payment: %+v", failed)
	}

	var refreshed models.Order
	if err := db.First(&refreshed, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if refreshed.PaymentStatus != constants.OrderPaymentStatusFailed {
		t.Fatalf("expected order payment failed, got %s", refreshed.PaymentStatus)
	}

	// 失败后可重新发起，旧记录被顶替
	retry, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: constants.PaymentMethodUPI})
	if err != nil {
		t.Fatalf("recreate payment failed: %v", err)
	}
	if retry.PaymentID == payment.PaymentID {
		t.Fatalf("expected a fresh payment id")
	}
	var count int64
	if err := db.Unscoped().Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected old payment physically removed, got %d rows", count)
	}
}

func TestAuthorizeCallbackScopedToBuyerOrAdmin(t *testing.T) {
	svc, db, order, buyer := setupPaidableOrder(t, "payment_callback_scope")

	payment, err := svc.Create(CreatePaymentInput{UserID: buyer.ID, OrderID: order.ID, Method: constants.PaymentMethodCard})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	if err := svc.AuthorizeCallback(buyer.ID, constants.RoleBuyer, payment.PaymentID); err != nil {
		t.Fatalf("expected order buyer allowed, got: %v", err)
	}

	other := createTestUser(t, db, "buyer_other_callback@example.com", constants.RoleBuyer)
	if err := svc.AuthorizeCallback(other.ID, constants.RoleBuyer, payment.PaymentID); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected other buyer denied, got: %v", err)
	}
	if err := svc.AuthorizeCallback(other.ID, constants.RoleAdmin, payment.PaymentID); err != nil {
		t.Fatalf("expected admin allowed, got: %v", err)
	}
	if err := svc.AuthorizeCallback(buyer.ID, constants.RoleBuyer, "PAYMISSING1"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected unknown payment rejected, got: %v", err)
	}
}
