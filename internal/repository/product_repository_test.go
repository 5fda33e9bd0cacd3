package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
		t.Fatalf("migrate test db failed: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, quantity string) *models.Product {
	t.Helper()
	farmer := models.User{
		Email:        fmt.Sprintf("farmer_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hashed",
		Role:         constants.RoleFarmer,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&farmer).Error; err != nil {
		t.Fatalf("create farmer failed: %v", err)
	}
	product := models.Product{
		FarmerID:          farmer.ID,
		Name:              "有机番茄",
		Slug:              fmt.Sprintf("tomato-%d", time.Now().UnixNano()),
		Category:          "vegetables",
		PricePerUnit:      models.NewMoneyFromDecimal(decimal.RequireFromString("8.50")),
		Unit:              "kg",
		AvailableQuantity: models.NewQuantityFromDecimal(decimal.RequireFromString(quantity)),
		Status:            constants.ProductStatusActive,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func reserveQty(s string) models.Quantity {
	return models.NewQuantityFromDecimal(decimal.RequireFromString(s))
}

func TestReserveQuantityDecrements(t *testing.T) {
	db := setupProductTestDB(t, "product_reserve")
	repo := NewProductRepository(db)
	product := seedProduct(t, db, "10.00")

	affected, err := repo.ReserveQuantity(product.ID, reserveQty("3.00"))
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !got.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("7.00")) {
		t.Fatalf("expected quantity 7.00, got %s", got.AvailableQuantity.String())
	}
	if got.Status != constants.ProductStatusActive {
		t.Fatalf("expected status active, got %s", got.Status)
	}
}

func TestReserveQuantityInsufficientStock(t *testing.T) {
	db := setupProductTestDB(t, "product_reserve_short")
	repo := NewProductRepository(db)
	product := seedProduct(t, db, "2.00")

	affected, err := repo.ReserveQuantity(product.ID, reserveQty("5.00"))
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 rows affected, got %d", affected)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !got.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("expected stock unchanged, got %s", got.AvailableQuantity.String())
	}
}

func TestReserveQuantityToZeroMarksSoldOut(t *testing.T) {
	db := setupProductTestDB(t, "product_sold_out")
	repo := NewProductRepository(db)
	product := seedProduct(t, db, "4.00")

	affected, err := repo.ReserveQuantity(product.ID, reserveQty("4.00"))
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	got, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !got.AvailableQuantity.Decimal.IsZero() {
		t.Fatalf("expected zero stock, got %s", got.AvailableQuantity.String())
	}
	if got.Status != constants.ProductStatusSoldOut {
		t.Fatalf("expected sold_out, got %s", got.Status)
	}

	// 归还库存后恢复上架
	if _, err := repo.ReleaseQuantity(product.ID, reserveQty("4.00")); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	got, err = repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !got.AvailableQuantity.Decimal.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("expected stock restored, got %s", got.AvailableQuantity.String())
	}
	if got.Status != constants.ProductStatusActive {
		t.Fatalf("expected active after release, got %s", got.Status)
	}
}

func TestReserveQuantityRejectsInvalidParams(t *testing.T) {
	db := setupProductTestDB(t, "product_invalid")
	repo := NewProductRepository(db)
	product := seedProduct(t, db, "10.00")

	if _, err := repo.ReserveQuantity(0, reserveQty("1.00")); err == nil {
		t.Fatalf("expected error for zero product id")
	}
	if _, err := repo.ReserveQuantity(product.ID, models.NewQuantityFromDecimal(decimal.Zero)); err == nil {
		t.Fatalf("expected error for zero quantity")
	}
	if _, err := repo.ReleaseQuantity(product.ID, models.NewQuantityFromDecimal(decimal.RequireFromString("-1"))); err == nil {
		t.Fatalf("expected error for negative quantity")
	}
}
