package service

import (
	"strings"
	"time"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePaymentInput 发起支付输入
type CreatePaymentInput struct {
	UserID  uint
	OrderID uint
	Method  string
}

// PaymentService 支付服务（模拟网关：创建后由回调接口置完成或失败）
type PaymentService struct {
	paymentRepo     repository.PaymentRepository
	orderRepo       repository.OrderRepository
	notificationSvc *NotificationService
}

// NewPaymentService 创建支付服务
func NewPaymentService(paymentRepo repository.PaymentRepository, orderRepo repository.OrderRepository, notificationSvc *NotificationService) *PaymentService {
	return &PaymentService{
		paymentRepo:     paymentRepo,
		orderRepo:       orderRepo,
		notificationSvc: notificationSvc,
	}
}

var allowedPaymentMethods = map[string]struct{}{
	constants.PaymentMethodCard:     {},
	constants.PaymentMethodUPI:      {},
	constants.PaymentMethodNetbank:  {},
	constants.PaymentMethodDelivery: {},
}

// Create 为订单发起支付。金额固定等于订单应付总额，一单一支付。
func (s *PaymentService) Create(input CreatePaymentInput) (*models.Payment, error) {
	if _, ok := allowedPaymentMethods[input.Method]; !ok {
		return nil, ErrPaymentMethodInvalid
	}

	var payment *models.Payment
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		txPayments := s.paymentRepo.WithTx(tx)

		order, err := txOrders.GetByIDForUpdate(input.OrderID)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != input.UserID {
			return ErrOrderNotFound
		}
		if order.Status == constants.OrderStatusCancelled {
			return ErrInvalidTransition
		}
		if order.PaymentStatus == constants.OrderPaymentStatusPaid {
			return ErrPaymentStatusInvalid
		}

		existing, err := txPayments.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Status == constants.PaymentStatusPending || existing.Status == constants.PaymentStatusProcessing {
				return ErrPaymentExists
			}
			if existing.Status == constants.PaymentStatusCompleted {
				return ErrPaymentStatusInvalid
			}
			// 上一次失败或取消的支付可重建。order_id 为唯一索引，旧记录需物理删除
			if err := tx.Unscoped().Delete(existing).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		payment = &models.Payment{
			PaymentID: generatePaymentID(),
			OrderID:   order.ID,
			Amount:    order.TotalAmount,
			Method:    input.Method,
			Status:    constants.PaymentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return txPayments.Create(payment)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payment_created", "payment_id", payment.PaymentID, "order_id", payment.OrderID, "amount", payment.Amount.String(), "method", payment.Method)
	return payment, nil
}

// MarkCompleted 支付完成回调：置支付完成并同步订单支付状态
func (s *PaymentService) MarkCompleted(paymentID string, transactionID string) (*models.Payment, error) {
	var payment *models.Payment
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		txPayments := s.paymentRepo.WithTx(tx)

		p, err := txPayments.GetByPaymentID(paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPaymentNotFound
		}
		if p.Status != constants.PaymentStatusPending && p.Status != constants.PaymentStatusProcessing {
			return ErrPaymentStatusInvalid
		}

		o, err := txOrders.GetByIDForUpdate(p.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		if o.Status == constants.OrderStatusCancelled {
			return ErrInvalidTransition
		}

		now := time.Now()
		p.Status = constants.PaymentStatusCompleted
		p.TransactionID = strings.TrimSpace(transactionID)
		p.CompletedAt = &now
		p.UpdatedAt = now
		if err := txPayments.Update(p); err != nil {
			return err
		}
		if err := txOrders.UpdateStatus(o.ID, "", map[string]interface{}{
			"payment_status": constants.OrderPaymentStatusPaid,
		}); err != nil {
			return err
		}
		o.PaymentStatus = constants.OrderPaymentStatusPaid
		payment, order = p, o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notificationSvc.Emit(constants.NotificationPaymentUpdated, order.UserID, order.ID, map[string]interface{}{
		"order_no": order.OrderNo,
		"status":   payment.Status,
	})
	logger.Infow("payment_completed", "payment_id", payment.PaymentID, "order_id", payment.OrderID, "transaction_id", payment.TransactionID)
	return payment, nil
}

// MarkFailed 支付失败回调
func (s *PaymentService) MarkFailed(paymentID string, reason string) (*models.Payment, error) {
	var payment *models.Payment
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		txPayments := s.paymentRepo.WithTx(tx)

		p, err := txPayments.GetByPaymentID(paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPaymentNotFound
		}
		if p.Status != constants.PaymentStatusPending && p.Status != constants.PaymentStatusProcessing {
			return ErrPaymentStatusInvalid
		}

		o, err := txOrders.GetByIDForUpdate(p.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}

		p.Status = constants.PaymentStatusFailed
		p.FailureReason = strings.TrimSpace(reason)
		p.UpdatedAt = time.Now()
		if err := txPayments.Update(p); err != nil {
			return err
		}
		if err := txOrders.UpdateStatus(o.ID, "", map[string]interface{}{
			"payment_status": constants.OrderPaymentStatusFailed,
		}); err != nil {
			return err
		}
		o.PaymentStatus = constants.OrderPaymentStatusFailed
		payment, order = p, o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notificationSvc.Emit(constants.NotificationPaymentUpdated, order.UserID, order.ID, map[string]interface{}{
		"order_no": order.OrderNo,
		"status":   payment.Status,
	})
	logger.Warnw("payment_failed", "payment_id", payment.PaymentID, "order_id", payment.OrderID, "reason", payment.FailureReason)
	return payment, nil
}

// AuthorizeCallback 校验模拟回调的操作者：仅订单买家或管理员可触发
func (s *PaymentService) AuthorizeCallback(userID uint, role string, paymentID string) error {
	if role == constants.RoleAdmin {
		return nil
	}
	payment, err := s.paymentRepo.GetByPaymentID(paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return ErrPaymentNotFound
	}
	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return err
	}
	if order == nil || order.UserID != userID {
		return ErrPaymentNotFound
	}
	return nil
}

// GetByOrderForUser 买家查询自己订单的支付记录
func (s *PaymentService) GetByOrderForUser(userID, orderID uint) (*models.Payment, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	payment, err := s.paymentRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// List 管理端支付列表
func (s *PaymentService) List(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(filter)
}

// generatePaymentID 生成支付单号：PAY + UUID 前 8 位
func generatePaymentID() string {
	return "PAY" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
