package service

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/betteragri-next/internal/config"
	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupMarketTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Payout{},
		&models.SalesLedgerEntry{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newTestOrderService(db *gorm.DB) *OrderService {
	cfg := &config.Config{}
	cfg.Order.ShippingFee = "10.00"
	cfg.Order.TaxRate = "0.18"
	notificationSvc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	return NewOrderService(
		cfg,
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewCartRepository(db),
		repository.NewLedgerRepository(db),
		notificationSvc,
		nil,
	)
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	now := time.Now()
	user := models.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  email,
		Role:         role,
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s failed: %v", email, err)
	}
	return &user
}

func createTestProduct(t *testing.T, db *gorm.DB, farmerID uint, slug, price, quantity string) *models.Product {
	t.Helper()
	now := time.Now()
	product := models.Product{
		FarmerID:          farmerID,
		Name:              slug,
		Slug:              slug,
		Unit:              "kg",
		PricePerUnit:      models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		AvailableQuantity: models.NewQuantityFromDecimal(decimal.RequireFromString(quantity)),
		Status:            constants.ProductStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product %s failed: %v", slug, err)
	}
	return &product
}

func addTestCartItem(t *testing.T, db *gorm.DB, userID uint, product *models.Product, quantity string) {
	t.Helper()
	qty := decimal.RequireFromString(quantity)
	now := time.Now()
	item := models.CartItem{
		UserID:     userID,
		ProductID:  product.ID,
		Quantity:   models.NewQuantityFromDecimal(qty),
		UnitPrice:  product.PricePerUnit,
		TotalPrice: models.NewMoneyFromDecimal(product.PricePerUnit.Decimal.Mul(qty)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
}

func checkoutInputFor(userID uint) CheckoutInput {
	return CheckoutInput{
		UserID:          userID,
		ShippingName:    "张三",
		ShippingPhone:   "13800000000",
		ShippingAddress: "杭州市余杭区文一西路 969 号",
	}
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return &product
}

func TestCheckoutCreatesOrderWithSnapshots(t *testing.T) {
	db := setupMarketTestDB(t, "order_checkout")
	svc := newTestOrderService(db)

	farmer := createTestUser(t, db, "farmer_checkout@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_checkout@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-checkout", "8.50", "100.00")
	apple := createTestProduct(t, db, farmer.ID, "apple-checkout", "12.00", "50.00")
	addTestCartItem(t, db, buyer.ID, tomato, "5.00")
	addTestCartItem(t, db, buyer.ID, apple, "2.00")

	order, err := svc.Checkout(checkoutInputFor(buyer.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.PaymentStatus != constants.OrderPaymentStatusPending {
		t.Fatalf("expected pending payment status, got %s", order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(order.Items))
	}

	// 小计 8.50*5 + 12.00*2 = 66.50，税 66.50*0.18 = 11.97，总额 66.50+10.00+11.97
	if !order.Subtotal.Decimal.Equal(decimal.RequireFromString("66.50")) {
		t.Fatalf("unexpected subtotal: %s", order.Subtotal.String())
	}
	if !order.TaxAmount.Decimal.Equal(decimal.RequireFromString("11.97")) {
		t.Fatalf("unexpected tax amount: %s", order.TaxAmount.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.RequireFromString("88.47")) {
		t.Fatalf("unexpected total amount: %s", order.TotalAmount.String())
	}

	for _, item := range order.Items {
		if item.ItemStatus != constants.ItemStatusPending {
			t.Fatalf("expected pending item, got %s", item.ItemStatus)
		}
		if item.FarmerID != farmer.ID {
			t.Fatalf("unexpected item farmer: %d", item.FarmerID)
		}
	}

	// 库存已预留
	if got := reloadProduct(t, db, tomato.ID).AvailableQuantity; !got.Decimal.Equal(decimal.RequireFromString("95.00")) {
		t.Fatalf("unexpected tomato stock: %s", got.String())
	}
	if got := reloadProduct(t, db, apple.ID).AvailableQuantity; !got.Decimal.Equal(decimal.RequireFromString("48.00")) {
		t.Fatalf("unexpected apple stock: %s", got.String())
	}

	// 购物车已清空
	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("expected empty cart, got %d items", cartCount)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := setupMarketTestDB(t, "order_empty_cart")
	svc := newTestOrderService(db)
	buyer := createTestUser(t, db, "buyer_empty@example.com", constants.RoleBuyer)

	if _, err := svc.Checkout(checkoutInputFor(buyer.ID)); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected cart empty error, got: %v", err)
	}
}

func TestCheckoutShippingInfoRequired(t *testing.T) {
	db := setupMarketTestDB(t, "order_shipping")
	svc := newTestOrderService(db)
	buyer := createTestUser(t, db, "buyer_shipping@example.com", constants.RoleBuyer)

	input := checkoutInputFor(buyer.ID)
	input.ShippingAddress = "  "
	if _, err := svc.Checkout(input); !errors.Is(err, ErrShippingInfoMissing) {
		t.Fatalf("expected shipping info error, got: %v", err)
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	db := setupMarketTestDB(t, "order_stock_rollback")
	svc := newTestOrderService(db)

	farmer := createTestUser(t, db, "farmer_stock@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_stock@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-stock", "8.50", "100.00")
	rice := createTestProduct(t, db, farmer.ID, "rice-stock", "15.80", "3.00")
	addTestCartItem(t, db, buyer.ID, tomato, "5.00")
	addTestCartItem(t, db, buyer.ID, rice, "10.00")

	_, err := svc.Checkout(checkoutInputFor(buyer.ID))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	var stockErr *StockError
	if !errors.As(err, &stockErr) || stockErr.ProductID != rice.ID {
		t.Fatalf("expected stock error for rice, got: %v", err)
	}

	// 整单回滚：番茄的预留也应撤销，订单与订单项均不落库
	if got := reloadProduct(t, db, tomato.ID).AvailableQuantity; !got.Decimal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected tomato stock restored, got: %s", got.String())
	}
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders, got %d", orderCount)
	}

	// 购物车保留，等待买家调整
	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 2 {
		t.Fatalf("expected cart kept, got %d items", cartCount)
	}
}

func TestCancelExpiredReleasesStock(t *testing.T) {
	db := setupMarketTestDB(t, "order_expire")
	svc := newTestOrderService(db)

	farmer := createTestUser(t, db, "farmer_expire@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_expire@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-expire", "8.50", "100.00")
	addTestCartItem(t, db, buyer.ID, tomato, "4.00")

	order, err := svc.Checkout(checkoutInputFor(buyer.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if err := svc.CancelExpired(order.ID); err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}

	var refreshed models.Order
	if err := db.First(&refreshed, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if refreshed.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", refreshed.Status)
	}
	if refreshed.CancelReason == "" {
		t.Fatalf("expected cancel reason recorded")
	}
	if got := reloadProduct(t, db, tomato.ID).AvailableQuantity; !got.Decimal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected stock released, got: %s", got.String())
	}
}

func TestCancelExpiredSkipsPaidOrder(t *testing.T) {
	db := setupMarketTestDB(t, "order_expire_paid")
	svc := newTestOrderService(db)

	farmer := createTestUser(t, db, "farmer_expire_paid@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_expire_paid@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-expire-paid", "8.50", "100.00")
	addTestCartItem(t, db, buyer.ID, tomato, "4.00")

	order, err := svc.Checkout(checkoutInputFor(buyer.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("payment_status", constants.OrderPaymentStatusPaid).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	if err := svc.CancelExpired(order.ID); err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}

	var refreshed models.Order
	if err := db.First(&refreshed, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if refreshed.Status != constants.OrderStatusPending {
		t.Fatalf("expected paid order untouched, got %s", refreshed.Status)
	}
}

func TestGenerateOrderNoFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD\d{20}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		orderNo := generateOrderNo()
		if !pattern.MatchString(orderNo) {
			t.Fatalf("unexpected order no format: %s", orderNo)
		}
		seen[orderNo] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected random suffix to vary")
	}
}

func TestDistinctFarmerIDs(t *testing.T) {
	items := []models.OrderItem{
		{FarmerID: 3},
		{FarmerID: 1},
		{FarmerID: 3},
		{FarmerID: 2},
	}
	ids := distinctFarmerIDs(items)
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 2 {
		t.Fatalf("unexpected farmer ids: %v", ids)
	}
}

func TestPreviewMatchesCheckoutTotals(t *testing.T) {
	db := setupMarketTestDB(t, "order_preview")
	svc := newTestOrderService(db)

	farmer := createTestUser(t, db, "farmer_preview@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_preview@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-preview", "8.50", "100.00")
	apple := createTestProduct(t, db, farmer.ID, "apple-preview", "12.00", "50.00")
	addTestCartItem(t, db, buyer.ID, tomato, "5.00")
	addTestCartItem(t, db, buyer.ID, apple, "2.00")

	preview, err := svc.Preview(buyer.ID)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !preview.Subtotal.Decimal.Equal(decimal.RequireFromString("66.50")) {
		t.Fatalf("expected subtotal 66.50, got %s", preview.Subtotal.String())
	}
	if !preview.TaxAmount.Decimal.Equal(decimal.RequireFromString("11.97")) {
		t.Fatalf("expected tax 11.97, got %s", preview.TaxAmount.String())
	}
	if !preview.TotalAmount.Decimal.Equal(decimal.RequireFromString("88.47")) {
		t.Fatalf("expected total 88.47, got %s", preview.TotalAmount.String())
	}

	// 试算不动库存也不清空购物车
	if got := reloadProduct(t, db, tomato.ID); !got.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected stock untouched, got %s", got.AvailableQuantity.String())
	}
	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", buyer.ID).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 2 {
		t.Fatalf("expected cart kept, got %d items", cartCount)
	}

	// 空购物车无法试算
	other := createTestUser(t, db, "buyer_preview_empty@example.com", constants.RoleBuyer)
	if _, err := svc.Preview(other.ID); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected empty cart error, got: %v", err)
	}
}

func TestGetForBuyerCancelsExpiredOnRead(t *testing.T) {
	db := setupMarketTestDB(t, "order_lazy_expire")
	cfg := &config.Config{}
	cfg.Order.ShippingFee = "10.00"
	cfg.Order.TaxRate = "0.18"
	cfg.Order.PaymentExpireMinutes = 1
	notificationSvc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	svc := NewOrderService(
		cfg,
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewCartRepository(db),
		repository.NewLedgerRepository(db),
		notificationSvc,
		nil,
	)

	farmer := createTestUser(t, db, "farmer_lazy@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_lazy@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-lazy", "8.50", "100.00")
	addTestCartItem(t, db, buyer.ID, tomato, "4.00")

	order, err := svc.Checkout(checkoutInputFor(buyer.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 未超时的单读出来还是待支付
	got, err := svc.GetForBuyer(buyer.ID, order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}

	// 回拨创建时间模拟超时
	past := time.Now().Add(-2 * time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("created_at", past).Error; err != nil {
		t.Fatalf("backdate order failed: %v", err)
	}

	got, err = svc.GetForBuyer(buyer.ID, order.ID)
	if err != nil {
		t.Fatalf("get expired order failed: %v", err)
	}
	if got.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled on read, got %s", got.Status)
	}
	if stock := reloadProduct(t, db, tomato.ID); !stock.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected stock released, got %s", stock.AvailableQuantity.String())
	}
}

func TestCheckoutUsesCartPriceSnapshot(t *testing.T) {
	db := setupMarketTestDB(t, "order_price_snapshot")
	svc := newTestOrderService(db)

	farmer := createTestUser(t, db, "farmer_snapshot@example.com", constants.RoleFarmer)
	buyer := createTestUser(t, db, "buyer_snapshot@example.com", constants.RoleBuyer)
	tomato := createTestProduct(t, db, farmer.ID, "tomato-snapshot", "8.50", "100.00")
	addTestCartItem(t, db, buyer.ID, tomato, "4.00")

	// 加购后商品涨价，结算仍按加购时的单价
	if err := db.Model(&models.Product{}).Where("id = ?", tomato.ID).
		Update("price_per_unit", decimal.RequireFromString("9.99")).Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}

	preview, err := svc.Preview(buyer.ID)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	order, err := svc.Checkout(checkoutInputFor(buyer.ID))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if !order.Subtotal.Decimal.Equal(decimal.RequireFromString("34.00")) {
		t.Fatalf("expected subtotal 34.00 from cart snapshot, got %s", order.Subtotal.String())
	}
	if !order.Subtotal.Decimal.Equal(preview.Subtotal.Decimal) {
		t.Fatalf("expected checkout subtotal to match preview, got %s vs %s", order.Subtotal.String(), preview.Subtotal.String())
	}
	if !order.TotalAmount.Decimal.Equal(preview.TotalAmount.Decimal) {
		t.Fatalf("expected checkout total to match preview, got %s vs %s", order.TotalAmount.String(), preview.TotalAmount.String())
	}
	if len(order.Items) != 1 || !order.Items[0].UnitPrice.Decimal.Equal(decimal.RequireFromString("8.50")) {
		t.Fatalf("expected unit price snapshot 8.50, got %+v", order.Items)
	}
}
