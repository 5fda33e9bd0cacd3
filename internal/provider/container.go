package provider

import (
	"github.com/betteragri-next/internal/cache"
	"github.com/betteragri-next/internal/config"
	"github.com/betteragri-next/internal/diagnosis"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/queue"
	"github.com/betteragri-next/internal/repository"
	"github.com/betteragri-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo         repository.UserRepository
	ProductRepo      repository.ProductRepository
	CartRepo         repository.CartRepository
	OrderRepo        repository.OrderRepository
	PaymentRepo      repository.PaymentRepository
	PayoutRepo       repository.PayoutRepository
	LedgerRepo       repository.LedgerRepository
	NotificationRepo repository.NotificationRepository
	DiagnosisRepo    repository.DiagnosisRepository

	// Services
	AuthService         *service.AuthService
	ProductService      *service.ProductService
	CartService         *service.CartService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	PayoutService       *service.PayoutService
	NotificationService *service.NotificationService
	DiagnosisService    *service.DiagnosisService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.DiagnosisRepo = repository.NewDiagnosisRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.QueueClient)
	c.OrderService = service.NewOrderService(c.Config, c.OrderRepo, c.ProductRepo, c.CartRepo, c.LedgerRepo, c.NotificationService, c.QueueClient)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo, c.OrderRepo, c.NotificationService)
	c.PayoutService = service.NewPayoutService(c.Config, c.PayoutRepo, c.LedgerRepo, c.OrderRepo, c.UserRepo, c.NotificationService)
	c.DiagnosisService = service.NewDiagnosisService(c.DiagnosisRepo, diagnosis.NewClient(&c.Config.AI))
}
