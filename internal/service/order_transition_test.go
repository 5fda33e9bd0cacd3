package service

import (
	"errors"
	"testing"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 两个农户各一件商品的订单，用于验证农户间互不影响的流转。
func setupTwoFarmerOrder(t *testing.T, name string) (*OrderService, *gorm.DB, *models.Order, *models.User, *models.User, *models.User) {
	t.Helper()
	db := setupMarketTestDB(t, name)
	svc := newTestOrderService(db)

	farmerA := createTestUser(t, db, "farmer_a_"+name+"@example.com", constants.RoleFarmer)
	farmerB := createTestUser(t, db, "farmer_b_"+name+"@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_"+name+"@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmerA.ID, "tomato-"+name, "8.50", "100.00")
	apple := createTestProduct(t, db, farmerB.ID, "apple-"+name, "12.00", "50.00")
	addTestCartItem(t, db, buyer.ID, tomato, "5.00")
	addTestCartItem(t, db, buyer.ID, apple, "2.00")

	order, err := svc.Checkout(checkoutInputFor(buyer.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return svc, db, order, farmerA, farmerB, buyer
}

func itemStatusByFarmer(t *testing.T, db *gorm.DB, orderID, farmerID uint) string {
	t.Helper()
	var item models.OrderItem
	if err := db.Where("order_id = ? AND farmer_id = ?", orderID, farmerID).First(&item).Error; err != nil {
		t.Fatalf("load order item failed: %v", err)
	}
	return item.ItemStatus
}

func TestAcceptItemsOnlyAffectsOwnItems(t *testing.T) {
	svc, db, order, farmerA, farmerB, _ := setupTwoFarmerOrder(t, "accept")

	updated, err := svc.AcceptItems(farmerA.ID, order.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
	if updated.ConfirmedAt == nil {
		t.Fatalf("expected confirmed_at set")
	}
	if got := itemStatusByFarmer(t, db, order.ID, farmerA.ID); got != constants.ItemStatusConfirmed {
		t.Fatalf("expected farmer A item confirmed, got %s", got)
	}
	if got := itemStatusByFarmer(t, db, order.ID, farmerB.ID); got != constants.ItemStatusPending {
		t.Fatalf("expected farmer B item untouched, got %s", got)
	}

	// 重复确认被拒绝
	if _, err := svc.AcceptItems(farmerA.ID, order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on re-accept, got: %v", err)
	}
	// 无关农户无可操作项
	if _, err := svc.AcceptItems(farmerA.ID+farmerB.ID+100, order.ID); !errors.Is(err, ErrNoItemsForFarmer) {
		t.Fatalf("expected no items error, got: %v", err)
	}
}

func TestRejectItemsReleasesStockAndKeepsOthers(t *testing.T) {
	svc, db, order, farmerA, farmerB, _ := setupTwoFarmerOrder(t, "reject")

	if _, err := svc.AcceptItems(farmerA.ID, order.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	updated, err := svc.RejectItems(farmerB.ID, order.ID, "库存盘亏")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing after partial reject, got %s", updated.Status)
	}
	if got := itemStatusByFarmer(t, db, order.ID, farmerB.ID); got != constants.ItemStatusCancelled {
		t.Fatalf("expected farmer B item cancelled, got %s", got)
	}

	// 农户 B 的库存回补：50 - 2 + 2 = 50
	var apple models.Product
	if err := db.Where("farmer_id = ?", farmerB.ID).First(&apple).Error; err != nil {
		t.Fatalf("load product failed: %v", err)
	}
	if !apple.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected stock released, got %s", apple.AvailableQuantity.String())
	}
}

func TestRejectAllItemsCancelsOrder(t *testing.T) {
	svc, db, order, farmerA, farmerB, _ := setupTwoFarmerOrder(t, "reject_all")

	if _, err := svc.RejectItems(farmerA.ID, order.ID, "暂停出售"); err != nil {
		t.Fatalf("reject A failed: %v", err)
	}
	updated, err := svc.RejectItems(farmerB.ID, order.ID, "暂停出售")
	if err != nil {
		t.Fatalf("reject B failed: %v", err)
	}
	if updated.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled order, got %s", updated.Status)
	}

	var refreshed models.Order
	if err := db.First(&refreshed, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if refreshed.CancelledAt == nil {
		t.Fatalf("expected cancelled_at set")
	}
}

func TestMarkShippedRequiresConfirmedItems(t *testing.T) {
	svc, _, order, farmerA, _, _ := setupTwoFarmerOrder(t, "ship_guard")

	_, err := svc.MarkShipped(ShipmentInput{FarmerID: farmerA.ID, OrderID: order.ID})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for unconfirmed items, got: %v", err)
	}
}

func TestFullLifecycleToDeliveredWithLedgerAccrual(t *testing.T) {
	svc, db, order, farmerA, farmerB, buyer := setupTwoFarmerOrder(t, "lifecycle")

	if _, err := svc.AcceptItems(farmerA.ID, order.ID); err != nil {
		t.Fatalf("accept A failed: %v", err)
	}
	if _, err := svc.RejectItems(farmerB.ID, order.ID, "缺货"); err != nil {
		t.Fatalf("reject B failed: %v", err)
	}

	shipped, err := svc.MarkShipped(ShipmentInput{
		FarmerID:        farmerA.ID,
		OrderID:         order.ID,
		TrackingNumber:  "SF123456",
		DeliveryCompany: "顺丰速运",
	})
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	// 未取消的商品全部发货，整单转为已发货
	if shipped.Status != constants.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", shipped.Status)
	}

	// 买家身份校验
	if _, err := svc.MarkDelivered(buyer.ID+999, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for other buyer, got: %v", err)
	}

	delivered, err := svc.MarkDelivered(buyer.ID, order.ID)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if delivered.Status != constants.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", delivered.Status)
	}

	// 确认收货后仅为已发货项入账：农户 A 入账 8.50*5=42.50，农户 B 无入账
	var entries []models.SalesLedgerEntry
	if err := db.Order("id asc").Find(&entries).Error; err != nil {
		t.Fatalf("load ledger failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].FarmerID != farmerA.ID || entries[0].EntryType != constants.LedgerEntrySaleAccrual {
		t.Fatalf("unexpected ledger entry: %+v", entries[0])
	}
	if !entries[0].Amount.Decimal.Equal(decimal.RequireFromString("42.50")) {
		t.Fatalf("unexpected accrual amount: %s", entries[0].Amount.String())
	}

	// 终态订单不可再取消
	if _, err := svc.Cancel(buyer.ID, constants.RoleBuyer, order.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for delivered order, got: %v", err)
	}
}

func TestCancelByBuyerReleasesStock(t *testing.T) {
	svc, db, order, _, _, buyer := setupTwoFarmerOrder(t, "cancel_buyer")

	// 非本人买家不可见
	if _, err := svc.Cancel(buyer.ID+999, constants.RoleBuyer, order.ID, ""); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for other buyer, got: %v", err)
	}

	cancelled, err := svc.Cancel(buyer.ID, constants.RoleBuyer, order.ID, "")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	var tomato, apple models.Product
	if err := db.Where("slug = ?", "tomato-cancel_buyer").First(&tomato).Error; err != nil {
		t.Fatalf("load tomato failed: %v", err)
	}
	if err := db.Where("slug = ?", "apple-cancel_buyer").First(&apple).Error; err != nil {
		t.Fatalf("load apple failed: %v", err)
	}
	if !tomato.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected tomato stock restored, got %s", tomato.AvailableQuantity.String())
	}
	if !apple.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected apple stock restored, got %s", apple.AvailableQuantity.String())
	}

	var refreshed models.Order
	if err := db.First(&refreshed, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if refreshed.CancelReason != "用户取消" {
		t.Fatalf("expected default cancel reason, got %s", refreshed.CancelReason)
	}

	// 已取消订单不可重复取消
	if _, err := svc.Cancel(buyer.ID, constants.RoleBuyer, order.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on re-cancel, got: %v", err)
	}
}

func TestAcceptAfterShipmentRejected(t *testing.T) {
	svc, _, order, farmerA, farmerB, _ := setupTwoFarmerOrder(t, "accept_late")

	if _, err := svc.AcceptItems(farmerA.ID, order.ID); err != nil {
		t.Fatalf("accept A failed: %v", err)
	}
	if _, err := svc.RejectItems(farmerB.ID, order.ID, "缺货"); err != nil {
		t.Fatalf("reject B failed: %v", err)
	}
	if _, err := svc.MarkShipped(ShipmentInput{FarmerID: farmerA.ID, OrderID: order.ID}); err != nil {
		t.Fatalf("ship failed: %v", err)
	}

	// 整单已发货后不再接受确认/拒绝
	if _, err := svc.AcceptItems(farmerB.ID, order.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition after shipped, got: %v", err)
	}
	if _, err := svc.RejectItems(farmerB.ID, order.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition after shipped, got: %v", err)
	}
}

func TestRejectAfterAcceptReleasesStock(t *testing.T) {
	svc, db, order, farmerA, farmerB, _ := setupTwoFarmerOrder(t, "reject_confirmed")

	if _, err := svc.AcceptItems(farmerA.ID, order.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// 已确认的商品仍可由农户取消
	updated, err := svc.RejectItems(farmerA.ID, order.ID, "采收受损")
	if err != nil {
		t.Fatalf("reject confirmed items failed: %v", err)
	}
	if got := itemStatusByFarmer(t, db, order.ID, farmerA.ID); got != constants.ItemStatusCancelled {
		t.Fatalf("expected farmer A item cancelled, got %s", got)
	}
	if got := itemStatusByFarmer(t, db, order.ID, farmerB.ID); got != constants.ItemStatusPending {
		t.Fatalf("expected farmer B item untouched, got %s", got)
	}
	if updated.Status == constants.OrderStatusCancelled {
		t.Fatalf("expected order kept alive while farmer B pending, got %s", updated.Status)
	}

	var item models.OrderItem
	if err := db.Where("order_id = ? AND farmer_id = ?", order.ID, farmerA.ID).First(&item).Error; err != nil {
		t.Fatalf("load order item failed: %v", err)
	}
	stock := reloadProduct(t, db, item.ProductID)
	if !stock.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected stock released back to 100.00, got %s", stock.AvailableQuantity.String())
	}

	// 已取消后再拒绝无可操作项
	if _, err := svc.RejectItems(farmerA.ID, order.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on re-reject, got: %v", err)
	}
}
