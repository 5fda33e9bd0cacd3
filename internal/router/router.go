package router

import (
	"fmt"
	"strings"

	"github.com/betteragri-next/internal/cache"
	"github.com/betteragri-next/internal/config"
	"github.com/betteragri-next/internal/constants"
	adminhandlers "github.com/betteragri-next/internal/http/handlers/admin"
	publichandlers "github.com/betteragri-next/internal/http/handlers/public"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ba"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（上传的图片）
	uploadDir := strings.TrimSpace(cfg.Upload.Dir)
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	r.Static("/uploads", uploadDir)

	authRequired := JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo)
	farmerOnly := RequireRole(constants.RoleFarmer)
	buyerOnly := RequireRole(constants.RoleBuyer)
	adminOnly := RequireRole(constants.RoleAdmin)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:slug", publicHandler.GetProduct)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(authRequired)
		{
			user.GET("/me", publicHandler.Profile)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.PUT("/me/password", publicHandler.ChangePassword)

			// 购物车（买家）
			user.GET("/cart", buyerOnly, publicHandler.GetCart)
			user.POST("/cart/items", buyerOnly, publicHandler.AddCartItem)
			user.PUT("/cart/items/:id", buyerOnly, publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:id", buyerOnly, publicHandler.RemoveCartItem)
			user.DELETE("/cart", buyerOnly, publicHandler.ClearCart)

			// 订单
			user.GET("/orders/checkout-preview", buyerOnly, publicHandler.PreviewCheckout)
			user.POST("/orders/checkout", buyerOnly, publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.POST("/orders/:id/confirm-delivery", buyerOnly, publicHandler.ConfirmDelivery)
			user.POST("/orders/:id/accept", farmerOnly, publicHandler.AcceptOrderItems)
			user.POST("/orders/:id/reject", farmerOnly, publicHandler.RejectOrderItems)
			user.POST("/orders/:id/ship", farmerOnly, publicHandler.ShipOrderItems)

			// 支付
			user.POST("/payments", buyerOnly, publicHandler.CreatePayment)
			user.GET("/orders/:id/payment", publicHandler.GetOrderPayment)
			user.POST("/payments/:payment_id/callback", publicHandler.PaymentCallback)

			// 农户商品管理
			user.GET("/my/products", farmerOnly, publicHandler.ListMyProducts)
			user.POST("/my/products", farmerOnly, publicHandler.CreateProduct)
			user.PUT("/my/products/:id", farmerOnly, publicHandler.UpdateProduct)
			user.DELETE("/my/products/:id", farmerOnly, publicHandler.DeleteProduct)

			// 农户结算
			user.GET("/payouts/balance", farmerOnly, publicHandler.GetBalance)
			user.POST("/payouts", farmerOnly, publicHandler.RequestPayout)
			user.GET("/payouts", farmerOnly, publicHandler.ListPayouts)
			user.GET("/payouts/:payout_id", farmerOnly, publicHandler.GetPayout)
			user.GET("/ledger", farmerOnly, publicHandler.GetLedger)

			// 通知
			user.GET("/notifications", publicHandler.ListNotifications)
			user.GET("/notifications/unread-count", publicHandler.UnreadCount)
			user.POST("/notifications/:id/read", publicHandler.MarkNotificationRead)
			user.POST("/notifications/read-all", publicHandler.MarkAllNotificationsRead)

			// 作物诊断
			user.POST("/diagnosis", publicHandler.CreateDiagnosis)
			user.GET("/diagnosis", publicHandler.ListDiagnoses)
			user.GET("/diagnosis/:id", publicHandler.GetDiagnosis)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(authRequired, adminOnly)
		{
			admin.GET("/orders", adminHandler.AdminListOrders)
			admin.GET("/orders/:id", adminHandler.AdminGetOrder)
			admin.POST("/orders/:id/cancel", adminHandler.AdminCancelOrder)

			admin.GET("/payouts", adminHandler.AdminListPayouts)
			admin.POST("/payouts/:payout_id/approve", adminHandler.AdminApprovePayout)
			admin.POST("/payouts/:payout_id/reject", adminHandler.AdminRejectPayout)
			admin.POST("/payouts/:payout_id/complete", adminHandler.AdminCompletePayout)

			admin.GET("/payments", adminHandler.AdminListPayments)

			admin.GET("/users", adminHandler.AdminListUsers)
			admin.PUT("/users/:id/status", adminHandler.AdminUpdateUserStatus)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
