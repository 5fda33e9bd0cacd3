package admin

import (
	"strconv"
	"strings"

	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListPayments 管理端支付列表
func (h *Handler) AdminListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PaymentListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if orderIDStr := strings.TrimSpace(c.Query("order_id")); orderIDStr != "" {
		if parsed, err := strconv.ParseUint(orderIDStr, 10, 64); err == nil {
			filter.OrderID = uint(parsed)
		}
	}

	payments, total, err := h.PaymentService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询支付列表失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"payments": payments}, buildPagination(page, pageSize, total))
}
