package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/repository"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	if userIDStr := strings.TrimSpace(c.Query("user_id")); userIDStr != "" {
		if parsed, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			filter.UserID = uint(parsed)
		}
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数无效", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "时间参数无效", err)
		return
	}
	filter.CreatedFrom = createdFrom
	filter.CreatedTo = createdTo

	orders, total, err := h.OrderService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询订单列表失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"orders": orders}, buildPagination(page, pageSize, total))
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}

	order, getErr := h.OrderService.GetAdmin(uint(orderID))
	if getErr != nil {
		if errors.Is(getErr, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询订单失败", getErr)
		return
	}

	response.Success(c, gin.H{"order": order})
}

// AdminCancelOrderRequest 管理端取消订单请求
type AdminCancelOrderRequest struct {
	Reason string `json:"reason"`
}

// AdminCancelOrder 管理端取消订单
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}
	var req AdminCancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, cancelErr := h.OrderService.Cancel(adminID, constants.RoleAdmin, uint(orderID), req.Reason)
	if cancelErr != nil {
		switch {
		case errors.Is(cancelErr, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(cancelErr, service.ErrInvalidTransition):
			respondError(c, response.CodeBadRequest, "当前状态不允许取消", nil)
		default:
			respondError(c, response.CodeInternal, "取消订单失败", cancelErr)
		}
		return
	}

	response.Success(c, gin.H{"order": order})
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("无法解析时间: " + raw)
}
