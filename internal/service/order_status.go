package service

import (
	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"
)

// calcOrderStatus 按订单项状态推导订单状态。
// delivered 与 cancelled 为终态，不再回退；全部项取消时订单取消，
// 全部未取消项已发货则订单 shipped，已有发货项则 processing，
// 已有确认项亦为 processing，否则维持 pending。
func calcOrderStatus(current string, items []models.OrderItem) string {
	if current == constants.OrderStatusDelivered || current == constants.OrderStatusCancelled {
		return current
	}
	if len(items) == 0 {
		return current
	}

	var active, confirmed, shipped, delivered int
	for _, item := range items {
		switch item.ItemStatus {
		case constants.ItemStatusCancelled:
			continue
		case constants.ItemStatusConfirmed:
			confirmed++
		case constants.ItemStatusShipped:
			shipped++
		case constants.ItemStatusDelivered:
			delivered++
		}
		active++
	}

	if active == 0 {
		return constants.OrderStatusCancelled
	}
	if delivered == active {
		return constants.OrderStatusDelivered
	}
	if shipped+delivered == active {
		return constants.OrderStatusShipped
	}
	if confirmed+shipped+delivered > 0 {
		return constants.OrderStatusProcessing
	}
	return constants.OrderStatusPending
}
