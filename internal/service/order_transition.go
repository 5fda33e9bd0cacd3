package service

import (
	"strings"
	"time"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"

	"gorm.io/gorm"
)

// ShipmentInput 发货输入
type ShipmentInput struct {
	FarmerID        uint
	OrderID         uint
	TrackingNumber  string
	DeliveryCompany string
}

// AcceptItems 农户确认订单中属于自己的商品。
// 仅当该农户的商品全部处于待确认状态时允许，互不影响其他农户。
func (s *OrderService) AcceptItems(farmerID, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		locked, err := txOrders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if locked.Status == constants.OrderStatusCancelled ||
			locked.Status == constants.OrderStatusShipped ||
			locked.Status == constants.OrderStatusDelivered {
			return ErrInvalidTransition
		}

		mine := farmerItems(locked.Items, farmerID)
		if len(mine) == 0 {
			return ErrNoItemsForFarmer
		}
		itemIDs := make([]uint, 0, len(mine))
		for _, item := range mine {
			if item.ItemStatus != constants.ItemStatusPending {
				return ErrInvalidTransition
			}
			itemIDs = append(itemIDs, item.ID)
		}
		if err := txOrders.UpdateItemStatus(itemIDs, constants.ItemStatusConfirmed); err != nil {
			return err
		}

		setItemStatus(locked.Items, itemIDs, constants.ItemStatusConfirmed)
		updates := map[string]interface{}{}
		if locked.ConfirmedAt == nil {
			now := time.Now()
			updates["confirmed_at"] = now
			locked.ConfirmedAt = &now
		}
		next := calcOrderStatus(locked.Status, locked.Items)
		if err := txOrders.UpdateStatus(locked.ID, next, updates); err != nil {
			return err
		}
		locked.Status = next
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notificationSvc.Emit(constants.NotificationOrderAccepted, order.UserID, order.ID, map[string]interface{}{"order_no": order.OrderNo})
	logger.Infow("order_items_accepted", "order_id", order.ID, "order_no", order.OrderNo, "farmer_id", farmerID, "status", order.Status)
	return order, nil
}

// RejectItems 农户取消订单中属于自己的商品并释放其库存。
// 其余农户的商品不受影响；全部商品取消时整单转为取消。
func (s *OrderService) RejectItems(farmerID, orderID uint, reason string) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		txProducts := s.productRepo.WithTx(tx)
		locked, err := txOrders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if locked.Status == constants.OrderStatusCancelled ||
			locked.Status == constants.OrderStatusShipped ||
			locked.Status == constants.OrderStatusDelivered {
			return ErrInvalidTransition
		}

		mine := farmerItems(locked.Items, farmerID)
		if len(mine) == 0 {
			return ErrNoItemsForFarmer
		}
		// 待确认与已确认的商品都可取消，已发货后不可再取消
		cancellable := make([]models.OrderItem, 0, len(mine))
		for _, item := range mine {
			switch item.ItemStatus {
			case constants.ItemStatusPending, constants.ItemStatusConfirmed:
				cancellable = append(cancellable, item)
			case constants.ItemStatusCancelled:
				continue
			default:
				return ErrInvalidTransition
			}
		}
		if len(cancellable) == 0 {
			return ErrInvalidTransition
		}
		itemIDs := make([]uint, 0, len(cancellable))
		for _, item := range cancellable {
			itemIDs = append(itemIDs, item.ID)
			if _, err := txProducts.ReleaseQuantity(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := txOrders.UpdateItemStatus(itemIDs, constants.ItemStatusCancelled); err != nil {
			return err
		}

		setItemStatus(locked.Items, itemIDs, constants.ItemStatusCancelled)
		next := calcOrderStatus(locked.Status, locked.Items)
		updates := map[string]interface{}{}
		if next == constants.OrderStatusCancelled {
			now := time.Now()
			updates["cancelled_at"] = now
			if strings.TrimSpace(reason) != "" {
				updates["cancel_reason"] = strings.TrimSpace(reason)
			}
		}
		if err := txOrders.UpdateStatus(locked.ID, next, updates); err != nil {
			return err
		}
		locked.Status = next
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := constants.NotificationOrderRejected
	if order.Status == constants.OrderStatusCancelled {
		eventType = constants.NotificationOrderCancelled
	}
	s.notificationSvc.Emit(eventType, order.UserID, order.ID, map[string]interface{}{"order_no": order.OrderNo})
	logger.Infow("order_items_rejected", "order_id", order.ID, "order_no", order.OrderNo, "farmer_id", farmerID, "status", order.Status)
	return order, nil
}

// MarkShipped 农户对自己已确认的商品标记发货
func (s *OrderService) MarkShipped(input ShipmentInput) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		locked, err := txOrders.GetByIDForUpdate(input.OrderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if locked.Status == constants.OrderStatusCancelled ||
			locked.Status == constants.OrderStatusDelivered {
			return ErrInvalidTransition
		}

		mine := farmerItems(locked.Items, input.FarmerID)
		if len(mine) == 0 {
			return ErrNoItemsForFarmer
		}
		itemIDs := make([]uint, 0, len(mine))
		for _, item := range mine {
			if item.ItemStatus == constants.ItemStatusCancelled {
				continue
			}
			if item.ItemStatus != constants.ItemStatusConfirmed {
				return ErrInvalidTransition
			}
			itemIDs = append(itemIDs, item.ID)
		}
		if len(itemIDs) == 0 {
			return ErrInvalidTransition
		}
		if err := txOrders.UpdateItemStatus(itemIDs, constants.ItemStatusShipped); err != nil {
			return err
		}

		setItemStatus(locked.Items, itemIDs, constants.ItemStatusShipped)
		next := calcOrderStatus(locked.Status, locked.Items)
		updates := map[string]interface{}{}
		if strings.TrimSpace(input.TrackingNumber) != "" {
			updates["tracking_number"] = strings.TrimSpace(input.TrackingNumber)
		}
		if strings.TrimSpace(input.DeliveryCompany) != "" {
			updates["delivery_company"] = strings.TrimSpace(input.DeliveryCompany)
		}
		if next == constants.OrderStatusShipped && locked.ShippedAt == nil {
			now := time.Now()
			updates["shipped_at"] = now
			locked.ShippedAt = &now
		}
		if err := txOrders.UpdateStatus(locked.ID, next, updates); err != nil {
			return err
		}
		locked.Status = next
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notificationSvc.Emit(constants.NotificationOrderShipped, order.UserID, order.ID, map[string]interface{}{"order_no": order.OrderNo})
	logger.Infow("order_items_shipped", "order_id", order.ID, "order_no", order.OrderNo, "farmer_id", input.FarmerID, "status", order.Status)
	return order, nil
}

// MarkDelivered 买家确认收货。全部未取消商品须已发货；
// 确认后按订单项为各农户记一笔销售入账。
func (s *OrderService) MarkDelivered(userID, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		txLedger := s.ledgerRepo.WithTx(tx)
		locked, err := txOrders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil || locked.UserID != userID {
			return ErrOrderNotFound
		}
		if locked.Status != constants.OrderStatusShipped {
			return ErrInvalidTransition
		}

		now := time.Now()
		itemIDs := make([]uint, 0, len(locked.Items))
		for _, item := range locked.Items {
			if item.ItemStatus != constants.ItemStatusShipped {
				continue
			}
			itemIDs = append(itemIDs, item.ID)
			itemID := item.ID
			entry := &models.SalesLedgerEntry{
				FarmerID:    item.FarmerID,
				EntryType:   constants.LedgerEntrySaleAccrual,
				Amount:      item.TotalPrice,
				OrderItemID: &itemID,
				CreatedAt:   now,
			}
			if err := txLedger.Append(entry); err != nil {
				return err
			}
		}
		if len(itemIDs) == 0 {
			return ErrInvalidTransition
		}
		if err := txOrders.UpdateItemStatus(itemIDs, constants.ItemStatusDelivered); err != nil {
			return err
		}
		setItemStatus(locked.Items, itemIDs, constants.ItemStatusDelivered)

		if err := txOrders.UpdateStatus(locked.ID, constants.OrderStatusDelivered, map[string]interface{}{
			"delivered_at": now,
		}); err != nil {
			return err
		}
		locked.Status = constants.OrderStatusDelivered
		locked.DeliveredAt = &now
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{"order_no": order.OrderNo}
	s.notificationSvc.Emit(constants.NotificationOrderDelivered, order.UserID, order.ID, data)
	for _, farmerID := range distinctFarmerIDs(order.Items) {
		s.notificationSvc.Emit(constants.NotificationOrderDelivered, farmerID, order.ID, data)
	}
	logger.Infow("order_delivered", "order_id", order.ID, "order_no", order.OrderNo, "user_id", userID)
	return order, nil
}

// Cancel 买家或管理员取消订单并释放库存。已送达或已取消的订单不可取消。
func (s *OrderService) Cancel(userID uint, role string, orderID uint, reason string) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		locked, err := txOrders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if role != constants.RoleAdmin && locked.UserID != userID {
			return ErrOrderNotFound
		}
		if locked.Status == constants.OrderStatusDelivered ||
			locked.Status == constants.OrderStatusCancelled {
			return ErrInvalidTransition
		}

		if strings.TrimSpace(reason) == "" {
			reason = "用户取消"
		}
		if err := s.cancelOrderTx(tx, locked, strings.TrimSpace(reason)); err != nil {
			return err
		}
		locked.Status = constants.OrderStatusCancelled
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{"order_no": order.OrderNo}
	s.notificationSvc.Emit(constants.NotificationOrderCancelled, order.UserID, order.ID, data)
	for _, farmerID := range distinctFarmerIDs(order.Items) {
		s.notificationSvc.Emit(constants.NotificationOrderCancelled, farmerID, order.ID, data)
	}
	logger.Infow("order_cancelled", "order_id", order.ID, "order_no", order.OrderNo, "operator_id", userID, "role", role)
	return order, nil
}

// setItemStatus 同步内存中的订单项状态
func setItemStatus(items []models.OrderItem, itemIDs []uint, status string) {
	idSet := make(map[uint]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		idSet[id] = struct{}{}
	}
	for i := range items {
		if _, ok := idSet[items[i].ID]; ok {
			items[i].ItemStatus = status
		}
	}
}
