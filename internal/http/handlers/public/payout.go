package public

import (
	"strconv"

	handlershared "github.com/betteragri-next/internal/http/handlers/shared"
	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetBalance 农户查询可提现余额
func (h *Handler) GetBalance(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	balance, err := h.PayoutService.Balance(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "查询余额失败", err)
		return
	}

	response.Success(c, balance)
}

// RequestPayoutRequest 提现申请请求
type RequestPayoutRequest struct {
	Amount      models.Money `json:"amount"`
	Method      string       `json:"method" binding:"required"`
	AccountInfo string       `json:"account_info" binding:"required"`
}

// RequestPayout 农户发起提现申请
func (h *Handler) RequestPayout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	payout, err := h.PayoutService.Request(service.RequestPayoutInput{
		FarmerID:    uid,
		Amount:      req.Amount,
		Method:      req.Method,
		AccountInfo: req.AccountInfo,
	})
	if err != nil {
		respondWithMappedError(c, err, payoutErrorRules, response.CodeInternal, "提现申请失败")
		return
	}

	response.Success(c, gin.H{"payout": payout})
}

// ListPayouts 农户查询自己的提现记录
func (h *Handler) ListPayouts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	payouts, total, err := h.PayoutService.List(repository.PayoutListFilter{
		Page:     page,
		PageSize: pageSize,
		FarmerID: uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询提现记录失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"payouts": payouts}, buildPagination(page, pageSize, total))
}

// GetPayout 农户查询提现单详情
func (h *Handler) GetPayout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	payout, err := h.PayoutService.GetForFarmer(uid, c.Param("payout_id"))
	if err != nil {
		respondWithMappedError(c, err, payoutErrorRules, response.CodeInternal, "查询提现单失败")
		return
	}

	response.Success(c, gin.H{"payout": payout})
}

// GetLedger 农户查询销售台账流水
func (h *Handler) GetLedger(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	entries, total, err := h.PayoutService.Ledger(uid, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "查询台账失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"entries": entries}, buildPagination(page, pageSize, total))
}
