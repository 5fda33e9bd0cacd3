package main

import (
	"log"
	"time"

	"github.com/betteragri-next/internal/config"
	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// 演示数据脚本：创建演示农户/买家账号和一批上架商品。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("初始化默认管理员失败: %v", err)
	}

	farmer := seedUser(stdLog, models.User{
		Email:        "farmer@betteragri.local",
		DisplayName:  "演示农户",
		Role:         constants.RoleFarmer,
		Status:       constants.UserStatusActive,
		FarmName:     "绿野农场",
		FarmLocation: "浙江省杭州市余杭区",
	}, "farmer123")
	seedUser(stdLog, models.User{
		Email:       "buyer@betteragri.local",
		DisplayName: "演示买家",
		Role:        constants.RoleBuyer,
		Status:      constants.UserStatusActive,
		Address:     "上海市浦东新区张江路 100 号",
	}, "buyer123")

	if farmer == nil {
		stdLog.Fatalf("演示农户不存在，商品种子数据中止")
	}

	harvest := time.Now().AddDate(0, 0, -3)
	products := []models.Product{
		{
			FarmerID:          farmer.ID,
			Name:              "有机番茄",
			Slug:              "organic-tomato",
			Description:       "当季现摘有机番茄，无农药残留",
			Category:          "vegetables",
			Unit:              "kg",
			PricePerUnit:      models.NewMoneyFromDecimal(decimal.RequireFromString("8.50")),
			AvailableQuantity: models.NewQuantityFromDecimal(decimal.RequireFromString("120.00")),
			Status:            constants.ProductStatusActive,
			IsOrganic:         true,
			HarvestDate:       &harvest,
		},
		{
			FarmerID:          farmer.ID,
			Name:              "富士苹果",
			Slug:              "fuji-apple",
			Description:       "脆甜多汁，产地直发",
			Category:          "fruits",
			Unit:              "kg",
			PricePerUnit:      models.NewMoneyFromDecimal(decimal.RequireFromString("12.00")),
			AvailableQuantity: models.NewQuantityFromDecimal(decimal.RequireFromString("80.00")),
			Status:            constants.ProductStatusActive,
		},
		{
			FarmerID:          farmer.ID,
			Name:              "五常大米",
			Slug:              "wuchang-rice",
			Description:       "新米上市，粒粒饱满",
			Category:          "grains",
			Unit:              "kg",
			PricePerUnit:      models.NewMoneyFromDecimal(decimal.RequireFromString("15.80")),
			AvailableQuantity: models.NewQuantityFromDecimal(decimal.RequireFromString("500.00")),
			Status:            constants.ProductStatusActive,
		},
		{
			FarmerID:          farmer.ID,
			Name:              "鲜牛奶",
			Slug:              "fresh-milk",
			Description:       "牧场直供巴氏鲜奶",
			Category:          "dairy",
			Unit:              "liter",
			PricePerUnit:      models.NewMoneyFromDecimal(decimal.RequireFromString("6.00")),
			AvailableQuantity: models.NewQuantityFromDecimal(decimal.RequireFromString("60.00")),
			Status:            constants.ProductStatusActive,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("创建商品失败 %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("已创建商品: %s", product.Slug)
			}
		} else {
			stdLog.Printf("商品已存在: %s", product.Slug)
		}
	}

	stdLog.Printf("种子数据完成")
}

func seedUser(stdLog *log.Logger, user models.User, password string) *models.User {
	var existing models.User
	if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		stdLog.Printf("用户已存在: %s", user.Email)
		return &existing
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Printf("密码哈希失败 %s: %v", user.Email, err)
		return nil
	}
	user.PasswordHash = string(hash)
	if err := models.DB.Create(&user).Error; err != nil {
		stdLog.Printf("创建用户失败 %s: %v", user.Email, err)
		return nil
	}
	stdLog.Printf("已创建用户: %s (密码: %s)", user.Email, password)
	return &user
}
