package service

import "errors"

// 业务层统一错误定义，按错误族分组，由接口层映射为响应码。
var (
	// 通用
	ErrNotFound         = errors.New("record not found")
	ErrPermissionDenied = errors.New("permission denied")

	// 认证
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrRoleInvalid        = errors.New("invalid role")

	// 购物车
	ErrCartEmpty           = errors.New("cart is empty")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")

	// 订单
	ErrOrderNotFound       = errors.New("order not found")
	ErrShippingInfoMissing = errors.New("shipping info missing")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidTransition   = errors.New("invalid order transition")
	ErrNoItemsForFarmer    = errors.New("no order items for farmer")

	// 支付
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentExists         = errors.New("payment already exists")
	ErrPaymentStatusInvalid  = errors.New("payment status invalid")
	ErrPaymentAmountMismatch = errors.New("payment amount mismatch")
	ErrPaymentMethodInvalid  = errors.New("payment method invalid")

	// 提现
	ErrPayoutNotFound      = errors.New("payout not found")
	ErrPayoutStatusInvalid = errors.New("payout status invalid")
	ErrPayoutAmountInvalid = errors.New("payout amount invalid")
	ErrPayoutMethodInvalid = errors.New("payout method invalid")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// 诊断
	ErrDiagnosisImageMissing = errors.New("diagnosis image missing")
)

// StockError 库存不足错误，携带受影响的商品信息。
type StockError struct {
	ProductID   uint
	ProductName string
}

func (e *StockError) Error() string {
	if e == nil {
		return ErrInsufficientStock.Error()
	}
	return "insufficient stock for product: " + e.ProductName
}

// Is 使 errors.Is(err, ErrInsufficientStock) 成立
func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
