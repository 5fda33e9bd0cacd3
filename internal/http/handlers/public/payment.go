package public

import (
	"strconv"

	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Method  string `json:"method" binding:"required"`
}

// CreatePayment 买家为订单发起支付
func (h *Handler) CreatePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	payment, err := h.PaymentService.Create(service.CreatePaymentInput{
		UserID:  uid,
		OrderID: req.OrderID,
		Method:  req.Method,
	})
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "发起支付失败")
		return
	}

	response.Success(c, gin.H{"payment": payment})
}

// GetOrderPayment 查询订单的支付记录
func (h *Handler) GetOrderPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}

	payment, getErr := h.PaymentService.GetByOrderForUser(uid, uint(orderID))
	if getErr != nil {
		respondWithMappedError(c, getErr, paymentErrorRules, response.CodeInternal, "查询支付记录失败")
		return
	}

	response.Success(c, gin.H{"payment": payment})
}

// PaymentCallbackRequest 模拟网关回调请求
type PaymentCallbackRequest struct {
	Status        string `json:"status" binding:"required"`
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
}

// PaymentCallback 模拟支付网关回调：按回传状态置完成或失败。
// 仅订单买家或管理员可触发。
func (h *Handler) PaymentCallback(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	paymentID := c.Param("payment_id")
	var req PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if err := h.PaymentService.AuthorizeCallback(uid, getUserRole(c), paymentID); err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "支付回调处理失败")
		return
	}

	switch req.Status {
	case "success":
		payment, err := h.PaymentService.MarkCompleted(paymentID, req.TransactionID)
		if err != nil {
			respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "支付回调处理失败")
			return
		}
		response.Success(c, gin.H{"payment": payment})
	case "failed":
		payment, err := h.PaymentService.MarkFailed(paymentID, req.Reason)
		if err != nil {
			respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, "支付回调处理失败")
			return
		}
		response.Success(c, gin.H{"payment": payment})
	default:
		respondError(c, response.CodeBadRequest, "回调状态无效", nil)
	}
}
