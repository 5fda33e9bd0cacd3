package service

import (
	"time"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/queue"
	"github.com/betteragri-next/internal/repository"
)

// NotificationService 站内通知服务
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	queueClient      *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, queueClient *queue.Client) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		queueClient:      queueClient,
	}
}

// Emit 发出事件通知。队列可用时异步分发，否则直接落库。
// 通知属旁路流程，失败只记日志，不影响主事务。
func (s *NotificationService) Emit(eventType string, recipientID uint, orderID uint, data map[string]interface{}) {
	if recipientID == 0 {
		return
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueueNotificationDispatch(queue.NotificationDispatchPayload{
			EventType:   eventType,
			RecipientID: recipientID,
			OrderID:     orderID,
			Data:        data,
		})
		if err == nil {
			return
		}
		logger.Warnw("notification_enqueue_failed", "event_type", eventType, "recipient_id", recipientID, "error", err)
	}
	if err := s.Dispatch(eventType, recipientID, orderID, data); err != nil {
		logger.Warnw("notification_dispatch_failed", "event_type", eventType, "recipient_id", recipientID, "error", err)
	}
}

// Dispatch 将事件落库为通知记录（队列消费端亦走此路径）
func (s *NotificationService) Dispatch(eventType string, recipientID uint, orderID uint, data map[string]interface{}) error {
	title, body := renderNotification(eventType, data)
	notification := &models.Notification{
		UserID:    recipientID,
		EventType: eventType,
		Title:     title,
		Body:      body,
		Payload:   models.JSON(data),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if orderID > 0 {
		notification.OrderID = &orderID
	}
	return s.notificationRepo.Create(notification)
}

// List 查询用户通知
func (s *NotificationService) List(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	return s.notificationRepo.List(filter)
}

// CountUnread 未读数
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkRead 标记单条已读
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	return s.notificationRepo.MarkRead(userID, notificationID)
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}

// renderNotification 按事件类型生成标题与正文
func renderNotification(eventType string, data map[string]interface{}) (string, string) {
	orderNo, _ := data["order_no"].(string)
	switch eventType {
	case constants.NotificationOrderCreated:
		return "订单已创建", "订单 " + orderNo + " 已创建，等待农户确认。"
	case constants.NotificationOrderAccepted:
		return "订单已确认", "订单 " + orderNo + " 中的商品已由农户确认。"
	case constants.NotificationOrderRejected:
		return "订单部分取消", "订单 " + orderNo + " 中的部分商品被农户取消。"
	case constants.NotificationOrderShipped:
		return "订单已发货", "订单 " + orderNo + " 已发货。"
	case constants.NotificationOrderDelivered:
		return "订单已送达", "订单 " + orderNo + " 已确认收货。"
	case constants.NotificationOrderCancelled:
		return "订单已取消", "订单 " + orderNo + " 已取消。"
	case constants.NotificationPaymentUpdated:
		status, _ := data["status"].(string)
		return "支付状态更新", "订单 " + orderNo + " 支付状态：" + status + "。"
	case constants.NotificationPayoutUpdated:
		status, _ := data["status"].(string)
		payoutID, _ := data["payout_id"].(string)
		return "提现状态更新", "提现单 " + payoutID + " 状态：" + status + "。"
	default:
		return "系统通知", "您有一条新通知。"
	}
}
