package public

import (
	"strconv"

	handlershared "github.com/betteragri-next/internal/http/handlers/shared"
	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListNotifications 通知列表
func (h *Handler) ListNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	notifications, total, err := h.NotificationService.List(repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uid,
		UnreadOnly: c.Query("unread") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询通知失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"notifications": notifications}, buildPagination(page, pageSize, total))
}

// UnreadCount 未读通知数
func (h *Handler) UnreadCount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	count, err := h.NotificationService.CountUnread(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "查询未读数失败", err)
		return
	}

	response.Success(c, gin.H{"unread": count})
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "通知ID无效", nil)
		return
	}

	if err := h.NotificationService.MarkRead(uid, uint(notificationID)); err != nil {
		respondError(c, response.CodeNotFound, "通知不存在", err)
		return
	}

	response.Success(c, gin.H{"read": true})
}

// MarkAllNotificationsRead 全部标记已读
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	if err := h.NotificationService.MarkAllRead(uid); err != nil {
		respondError(c, response.CodeInternal, "标记已读失败", err)
		return
	}

	response.Success(c, gin.H{"read": true})
}
