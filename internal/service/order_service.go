package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/betteragri-next/internal/config"
	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/queue"
	"github.com/betteragri-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutInput 下单输入
type CheckoutInput struct {
	UserID          uint
	ShippingName    string
	ShippingPhone   string
	ShippingAddress string
}

// OrderService 订单服务
type OrderService struct {
	cfg             *config.Config
	orderRepo       repository.OrderRepository
	productRepo     repository.ProductRepository
	cartRepo        repository.CartRepository
	ledgerRepo      repository.LedgerRepository
	notificationSvc *NotificationService
	queueClient     *queue.Client
	shippingFee     decimal.Decimal
	taxRate         decimal.Decimal
	paymentExpire   time.Duration
}

// NewOrderService 创建订单服务
func NewOrderService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	ledgerRepo repository.LedgerRepository,
	notificationSvc *NotificationService,
	queueClient *queue.Client,
) *OrderService {
	shippingFee, err := decimal.NewFromString(cfg.Order.ShippingFee)
	if err != nil {
		shippingFee = decimal.RequireFromString("10.00")
	}
	taxRate, err := decimal.NewFromString(cfg.Order.TaxRate)
	if err != nil {
		taxRate = decimal.RequireFromString("0.18")
	}
	var paymentExpire time.Duration
	if cfg.Order.PaymentExpireMinutes > 0 {
		paymentExpire = time.Duration(cfg.Order.PaymentExpireMinutes) * time.Minute
	}
	return &OrderService{
		cfg:             cfg,
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		cartRepo:        cartRepo,
		ledgerRepo:      ledgerRepo,
		notificationSvc: notificationSvc,
		queueClient:     queueClient,
		shippingFee:     shippingFee,
		taxRate:         taxRate,
		paymentExpire:   paymentExpire,
	}
}

// Checkout 从购物车下单。库存预留与订单创建在同一事务中完成，
// 任一商品预留失败则整单回滚。
func (s *OrderService) Checkout(input CheckoutInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.ShippingName) == "" ||
		strings.TrimSpace(input.ShippingPhone) == "" ||
		strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, ErrShippingInfoMissing
	}

	cartItems, err := s.cartRepo.ListByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	var order *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txProducts := s.productRepo.WithTx(tx)
		txOrders := s.orderRepo.WithTx(tx)
		txCart := s.cartRepo.WithTx(tx)

		now := time.Now()
		subtotal := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(cartItems))
		for _, cartItem := range cartItems {
			product, err := txProducts.GetByID(cartItem.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return ErrProductNotFound
			}
			if product.Status != constants.ProductStatusActive &&
				product.Status != constants.ProductStatusSoldOut {
				return ErrProductNotAvailable
			}

			affected, err := txProducts.ReserveQuantity(product.ID, cartItem.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return &StockError{ProductID: product.ID, ProductName: product.Name}
			}

			// 单价沿用加购时的快照，保证与结算试算一致
			lineTotal := cartItem.UnitPrice.Decimal.Mul(cartItem.Quantity.Decimal).Round(2)
			subtotal = subtotal.Add(lineTotal)
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   product.ID,
				FarmerID:    product.FarmerID,
				ProductName: product.Name,
				Unit:        product.Unit,
				Quantity:    cartItem.Quantity,
				UnitPrice:   cartItem.UnitPrice,
				TotalPrice:  models.NewMoneyFromDecimal(lineTotal),
				ItemStatus:  constants.ItemStatusPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}

		taxAmount := subtotal.Mul(s.taxRate).Round(2)
		totalAmount := subtotal.Add(s.shippingFee).Add(taxAmount).Round(2)

		order = &models.Order{
			OrderNo:         generateOrderNo(),
			UserID:          input.UserID,
			Status:          constants.OrderStatusPending,
			PaymentStatus:   constants.OrderPaymentStatusPending,
			Subtotal:        models.NewMoneyFromDecimal(subtotal),
			ShippingFee:     models.NewMoneyFromDecimal(s.shippingFee),
			TaxAmount:       models.NewMoneyFromDecimal(taxAmount),
			TotalAmount:     models.NewMoneyFromDecimal(totalAmount),
			ShippingName:    strings.TrimSpace(input.ShippingName),
			ShippingPhone:   strings.TrimSpace(input.ShippingPhone),
			ShippingAddress: strings.TrimSpace(input.ShippingAddress),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := txOrders.Create(order, orderItems); err != nil {
			return err
		}
		order.Items = orderItems

		return txCart.ClearByUser(input.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.afterCheckout(order)
	return order, nil
}

// afterCheckout 下单成功后的旁路动作：超时取消任务与通知
func (s *OrderService) afterCheckout(order *models.Order) {
	if s.queueClient != nil && s.queueClient.Enabled() && s.paymentExpire > 0 {
		err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, s.paymentExpire)
		if err != nil {
			logger.Warnw("order_timeout_enqueue_failed", "order_id", order.ID, "order_no", order.OrderNo, "error", err)
		}
	}

	data := map[string]interface{}{"order_no": order.OrderNo}
	s.notificationSvc.Emit(constants.NotificationOrderCreated, order.UserID, order.ID, data)
	for _, farmerID := range distinctFarmerIDs(order.Items) {
		s.notificationSvc.Emit(constants.NotificationOrderCreated, farmerID, order.ID, data)
	}
	logger.Infow("order_created", "order_id", order.ID, "order_no", order.OrderNo, "user_id", order.UserID, "total_amount", order.TotalAmount.String())
}

// CheckoutPreview 结算试算结果
type CheckoutPreview struct {
	Subtotal    models.Money `json:"subtotal"`
	ShippingFee models.Money `json:"shipping_fee"`
	TaxAmount   models.Money `json:"tax_amount"`
	TotalAmount models.Money `json:"total_amount"`
}

// Preview 按当前购物车试算订单金额，不预留库存也不落单
func (s *OrderService) Preview(userID uint) (*CheckoutPreview, error) {
	if userID == 0 {
		return nil, ErrPermissionDenied
	}
	cartItems, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}
	subtotal := decimal.Zero
	for _, item := range cartItems {
		subtotal = subtotal.Add(item.TotalPrice.Decimal)
	}
	taxAmount := subtotal.Mul(s.taxRate).Round(2)
	return &CheckoutPreview{
		Subtotal:    models.NewMoneyFromDecimal(subtotal),
		ShippingFee: models.NewMoneyFromDecimal(s.shippingFee),
		TaxAmount:   models.NewMoneyFromDecimal(taxAmount),
		TotalAmount: models.NewMoneyFromDecimal(subtotal.Add(s.shippingFee).Add(taxAmount).Round(2)),
	}, nil
}

// GetForBuyer 买家查询自己的订单。超时未支付的订单在读取时顺带取消。
func (s *OrderService) GetForBuyer(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if s.paymentExpired(order) {
		if err := s.CancelExpired(order.ID); err != nil {
			return nil, err
		}
		order, err = s.orderRepo.GetByIDAndUser(orderID, userID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, ErrOrderNotFound
		}
	}
	return order, nil
}

// paymentExpired 待支付订单是否已超出支付窗口
func (s *OrderService) paymentExpired(order *models.Order) bool {
	return s.paymentExpire > 0 &&
		order.Status == constants.OrderStatusPending &&
		order.PaymentStatus == constants.OrderPaymentStatusPending &&
		time.Since(order.CreatedAt) > s.paymentExpire
}

// GetForFarmer 农户查询含自己商品的订单
func (s *OrderService) GetForFarmer(farmerID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if len(farmerItems(order.Items, farmerID)) == 0 {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetAdmin 管理员查询任意订单
func (s *OrderService) GetAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListForBuyer 买家订单列表
func (s *OrderService) ListForBuyer(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListForFarmer 农户订单列表
func (s *OrderService) ListForFarmer(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByFarmer(filter)
}

// ListAdmin 管理员订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// CancelExpired 取消超时未支付的订单并释放库存（队列消费端调用）
func (s *OrderService) CancelExpired(orderID uint) error {
	return s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		order, err := txOrders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return nil
		}
		if order.PaymentStatus != constants.OrderPaymentStatusPending {
			return nil
		}
		if order.Status == constants.OrderStatusCancelled || order.Status == constants.OrderStatusDelivered {
			return nil
		}
		if err := s.cancelOrderTx(tx, order, "支付超时自动取消"); err != nil {
			return err
		}
		logger.Infow("order_timeout_cancelled", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	})
}

// cancelOrderTx 在事务内取消整单：释放未取消项库存并落状态
func (s *OrderService) cancelOrderTx(tx *gorm.DB, order *models.Order, reason string) error {
	txOrders := s.orderRepo.WithTx(tx)
	txProducts := s.productRepo.WithTx(tx)

	itemIDs := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ItemStatus == constants.ItemStatusCancelled {
			continue
		}
		if _, err := txProducts.ReleaseQuantity(item.ProductID, item.Quantity); err != nil {
			return err
		}
		itemIDs = append(itemIDs, item.ID)
	}
	if len(itemIDs) > 0 {
		if err := txOrders.UpdateItemStatus(itemIDs, constants.ItemStatusCancelled); err != nil {
			return err
		}
	}
	now := time.Now()
	return txOrders.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
		"cancel_reason": reason,
		"cancelled_at":  now,
	})
}

// generateOrderNo 生成订单号：ORD + 时间戳 + 6 位随机数字
func generateOrderNo() string {
	return "ORD" + time.Now().Format("20060102150405") + randNumeric(6)
}

func randNumeric(n int) string {
	const digits = "0123456789"
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(digits[idx.Int64()])
	}
	return b.String()
}

// distinctFarmerIDs 提取订单项涉及的农户去重列表
func distinctFarmerIDs(items []models.OrderItem) []uint {
	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.FarmerID]; ok {
			continue
		}
		seen[item.FarmerID] = struct{}{}
		ids = append(ids, item.FarmerID)
	}
	return ids
}

// farmerItems 过滤出属于指定农户的订单项
func farmerItems(items []models.OrderItem, farmerID uint) []models.OrderItem {
	result := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.FarmerID == farmerID {
			result = append(result, item)
		}
	}
	return result
}
