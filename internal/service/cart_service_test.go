package service

import (
	"errors"
	"testing"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestCartService(db *gorm.DB) *CartService {
	return NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
}

func qty(s string) models.Quantity {
	return models.NewQuantityFromDecimal(decimal.RequireFromString(s))
}

func TestCartAddItemAccumulatesQuantity(t *testing.T) {
	db := setupMarketTestDB(t, "cart_add")
	svc := newTestCartService(db)
	farmer := createTestUser(t, db, "farmer_cart@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_cart@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-cart", "8.50", "10.00")

	item, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: tomato.ID, Quantity: qty("3.00")})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if !item.TotalPrice.Decimal.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("unexpected total: %s", item.TotalPrice.String())
	}

	// 同商品数量累加，仍是同一行
	item, err = svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: tomato.ID, Quantity: qty("4.00")})
	if err != nil {
		t.Fatalf("add item again failed: %v", err)
	}
	if !item.Quantity.Decimal.Equal(decimal.RequireFromString("7.00")) {
		t.Fatalf("unexpected quantity: %s", item.Quantity.String())
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&count).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single cart row, got %d", count)
	}

	// 超出目录库存
	if _, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: tomato.ID, Quantity: qty("5.00")}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
}

func TestCartAddItemRejectsUnavailableProduct(t *testing.T) {
	db := setupMarketTestDB(t, "cart_unavailable")
	svc := newTestCartService(db)
	farmer := createTestUser(t, db, "farmer_cart_u@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_cart_u@example.com", constants.RoleBuyer)
	draft := createTestProduct(t, db, farmer.ID, "draft-cart", "8.50", "10.00")
	if err := db.Model(&models.Product{}).Where("id = ?", draft.ID).
		Update("status", constants.ProductStatusDraft).Error; err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	if _, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: draft.ID, Quantity: qty("1.00")}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got: %v", err)
	}
	if _, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: draft.ID + 100, Quantity: qty("1.00")}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found, got: %v", err)
	}
	if _, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: draft.ID, Quantity: qty("0")}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got: %v", err)
	}
}

func TestCartUpdateQuantity(t *testing.T) {
	db := setupMarketTestDB(t, "cart_update")
	svc := newTestCartService(db)
	farmer := createTestUser(t, db, "farmer_cart_up@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_cart_up@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-cart-up", "8.50", "10.00")

	item, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: tomato.ID, Quantity: qty("3.00")})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	updated, err := svc.UpdateQuantity(buyer.ID, item.ID, qty("5.00"))
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if !updated.TotalPrice.Decimal.Equal(decimal.RequireFromString("42.50")) {
		t.Fatalf("unexpected total after update: %s", updated.TotalPrice.String())
	}

	// 他人购物车不可操作
	if _, err := svc.UpdateQuantity(buyer.ID+100, item.ID, qty("1.00")); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected not found for other user, got: %v", err)
	}

	// 数量归零等价删除
	removed, err := svc.UpdateQuantity(buyer.ID, item.ID, qty("0"))
	if err != nil {
		t.Fatalf("update to zero failed: %v", err)
	}
	if removed != nil {
		t.Fatalf("expected nil item after removal, got: %+v", removed)
	}
	summary, err := svc.ListByUser(buyer.ID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(summary.Items))
	}
}

func TestCartSubtotalAndClear(t *testing.T) {
	db := setupMarketTestDB(t, "cart_subtotal")
	svc := newTestCartService(db)
	farmer := createTestUser(t, db, "farmer_cart_sub@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_cart_sub@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-cart-sub", "8.50", "100.00")
	apple := createTestProduct(t, db, farmer.ID, "apple-cart-sub", "12.00", "50.00")

	if _, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: tomato.ID, Quantity: qty("2.00")}); err != nil {
		t.Fatalf("add tomato failed: %v", err)
	}
	if _, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: apple.ID, Quantity: qty("1.50")}); err != nil {
		t.Fatalf("add apple failed: %v", err)
	}

	summary, err := svc.ListByUser(buyer.ID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	// 8.50*2 + 12.00*1.5 = 35.00
	if !summary.Subtotal.Decimal.Equal(decimal.RequireFromString("35.00")) {
		t.Fatalf("unexpected subtotal: %s", summary.Subtotal.String())
	}

	if err := svc.Clear(buyer.ID); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	subtotal, err := svc.Subtotal(buyer.ID)
	if err != nil {
		t.Fatalf("subtotal failed: %v", err)
	}
	if !subtotal.IsZero() {
		t.Fatalf("expected zero subtotal, got %s", subtotal.String())
	}
}

func TestCartListPrunesInactiveProducts(t *testing.T) {
	db := setupMarketTestDB(t, "cart_prune")
	svc := newTestCartService(db)
	farmer := createTestUser(t, db, "farmer_cart_prune@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_cart_prune@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-prune", "8.50", "10.00")
	apple := createTestProduct(t, db, farmer.ID, "apple-prune", "12.00", "10.00")

	if _, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: tomato.ID, Quantity: qty("2.00")}); err != nil {
		t.Fatalf("add tomato failed: %v", err)
	}
	if _, err := svc.AddItem(AddCartItemInput{UserID: buyer.ID, ProductID: apple.ID, Quantity: qty("1.00")}); err != nil {
		t.Fatalf("add apple failed: %v", err)
	}

	// 商品下架后对应行在读取时被清掉
	if err := db.Model(&models.Product{}).Where("id = ?", apple.ID).Update("status", constants.ProductStatusInactive).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	summary, err := svc.ListByUser(buyer.ID)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(summary.Items) != 1 || summary.Items[0].ProductID != tomato.ID {
		t.Fatalf("expected only tomato kept, got %+v", summary.Items)
	}
	if !summary.Subtotal.Decimal.Equal(decimal.RequireFromString("17.00")) {
		t.Fatalf("expected subtotal 17.00, got %s", summary.Subtotal.String())
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&count).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected stale row removed, got %d rows", count)
	}
}
