package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/repository"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListPayouts 管理端提现列表
func (h *Handler) AdminListPayouts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if farmerIDStr := strings.TrimSpace(c.Query("farmer_id")); farmerIDStr != "" {
		if parsed, err := strconv.ParseUint(farmerIDStr, 10, 64); err == nil {
			filter.FarmerID = uint(parsed)
		}
	}

	payouts, total, err := h.PayoutService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询提现列表失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"payouts": payouts}, buildPagination(page, pageSize, total))
}

// AdminPayoutActionRequest 提现审核请求
type AdminPayoutActionRequest struct {
	Remark string `json:"remark"`
}

func respondPayoutError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPayoutNotFound):
		respondError(c, response.CodeNotFound, "提现单不存在", nil)
	case errors.Is(err, service.ErrPayoutStatusInvalid):
		respondError(c, response.CodeBadRequest, "提现状态不允许该操作", nil)
	default:
		respondError(c, response.CodeInternal, fallback, err)
	}
}

// AdminApprovePayout 审核通过提现
func (h *Handler) AdminApprovePayout(c *gin.Context) {
	var req AdminPayoutActionRequest
	_ = c.ShouldBindJSON(&req)

	payout, err := h.PayoutService.Approve(c.Param("payout_id"), req.Remark)
	if err != nil {
		respondPayoutError(c, err, "审核提现失败")
		return
	}

	response.Success(c, gin.H{"payout": payout})
}

// AdminRejectPayout 驳回提现
func (h *Handler) AdminRejectPayout(c *gin.Context) {
	var req AdminPayoutActionRequest
	_ = c.ShouldBindJSON(&req)

	payout, err := h.PayoutService.Reject(c.Param("payout_id"), req.Remark)
	if err != nil {
		respondPayoutError(c, err, "驳回提现失败")
		return
	}

	response.Success(c, gin.H{"payout": payout})
}

// AdminCompletePayout 标记打款完成
func (h *Handler) AdminCompletePayout(c *gin.Context) {
	payout, err := h.PayoutService.Complete(c.Param("payout_id"))
	if err != nil {
		respondPayoutError(c, err, "完成提现失败")
		return
	}

	response.Success(c, gin.H{"payout": payout})
}
