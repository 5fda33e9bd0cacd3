package public

import (
	"errors"

	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	var stockErr *service.StockError
	if errors.As(err, &stockErr) {
		respondError(c, response.CodeBadRequest, "商品库存不足："+stockErr.ProductName, nil)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "邮箱或密码错误"},
	{target: service.ErrEmailTaken, code: response.CodeBadRequest, msg: "邮箱已被注册"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "邮箱格式无效"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "密码强度不足"},
	{target: service.ErrInvalidPassword, code: response.CodeBadRequest, msg: "原密码错误"},
	{target: service.ErrRoleInvalid, code: response.CodeBadRequest, msg: "注册角色无效"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "购物车项不存在"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "数量无效"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "商品不存在"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "商品暂不可售"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "购物车为空"},
	{target: service.ErrShippingInfoMissing, code: response.CodeBadRequest, msg: "收货信息不完整"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "商品不存在"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "商品暂不可售"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "商品库存不足"},
}

var orderTransitionErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrNoItemsForFarmer, code: response.CodeForbidden, msg: "订单中没有属于您的商品"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, msg: "当前状态不允许该操作"},
	{target: service.ErrPermissionDenied, code: response.CodeForbidden, msg: "无权操作该订单"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "支付记录不存在"},
	{target: service.ErrPaymentExists, code: response.CodeConflict, msg: "订单已有进行中的支付"},
	{target: service.ErrPaymentStatusInvalid, code: response.CodeBadRequest, msg: "支付状态不允许该操作"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, msg: "支付方式无效"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, msg: "订单状态不允许支付"},
}

var payoutErrorRules = []mappedHandlerError{
	{target: service.ErrPayoutNotFound, code: response.CodeNotFound, msg: "提现单不存在"},
	{target: service.ErrPayoutStatusInvalid, code: response.CodeBadRequest, msg: "提现状态不允许该操作"},
	{target: service.ErrPayoutAmountInvalid, code: response.CodeBadRequest, msg: "提现金额或账户信息无效"},
	{target: service.ErrPayoutMethodInvalid, code: response.CodeBadRequest, msg: "提现方式无效"},
	{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, msg: "可提现余额不足"},
}
