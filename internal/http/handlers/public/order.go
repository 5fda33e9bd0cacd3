package public

import (
	"strconv"

	"github.com/betteragri-next/internal/constants"
	handlershared "github.com/betteragri-next/internal/http/handlers/shared"
	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 下单请求
type CheckoutRequest struct {
	ShippingName    string `json:"shipping_name" binding:"required"`
	ShippingPhone   string `json:"shipping_phone" binding:"required"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
}

// Checkout 从购物车下单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	order, err := h.OrderService.Checkout(service.CheckoutInput{
		UserID:          uid,
		ShippingName:    req.ShippingName,
		ShippingPhone:   req.ShippingPhone,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "下单失败")
		return
	}

	response.Success(c, gin.H{"order": order})
}

// PreviewCheckout 结算试算（不预留库存）
func (h *Handler) PreviewCheckout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	preview, err := h.OrderService.Preview(uid)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "结算试算失败")
		return
	}

	response.Success(c, preview)
}

// ListOrders 订单列表（买家看自己的单，农户看含自己商品的单）
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		OrderNo:  c.Query("order_no"),
	}

	var (
		orders  []models.Order
		total   int64
		listErr error
	)
	if getUserRole(c) == constants.RoleFarmer {
		filter.FarmerID = uid
		orders, total, listErr = h.OrderService.ListForFarmer(filter)
	} else {
		filter.UserID = uid
		orders, total, listErr = h.OrderService.ListForBuyer(filter)
	}
	if listErr != nil {
		respondError(c, response.CodeInternal, "查询订单列表失败", listErr)
		return
	}

	response.SuccessWithPage(c, gin.H{"orders": orders}, buildPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}

	var order *models.Order
	if getUserRole(c) == constants.RoleFarmer {
		order, err = h.OrderService.GetForFarmer(uid, uint(orderID))
	} else {
		order, err = h.OrderService.GetForBuyer(uid, uint(orderID))
	}
	if err != nil {
		respondWithMappedError(c, err, orderTransitionErrorRules, response.CodeInternal, "查询订单失败")
		return
	}

	response.Success(c, gin.H{"order": order})
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder 买家取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}
	var req CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, cancelErr := h.OrderService.Cancel(uid, getUserRole(c), uint(orderID), req.Reason)
	if cancelErr != nil {
		respondWithMappedError(c, cancelErr, orderTransitionErrorRules, response.CodeInternal, "取消订单失败")
		return
	}

	response.Success(c, gin.H{"order": order})
}

// ConfirmDelivery 买家确认收货
func (h *Handler) ConfirmDelivery(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}

	order, deliverErr := h.OrderService.MarkDelivered(uid, uint(orderID))
	if deliverErr != nil {
		respondWithMappedError(c, deliverErr, orderTransitionErrorRules, response.CodeInternal, "确认收货失败")
		return
	}

	response.Success(c, gin.H{"order": order})
}

// AcceptOrderItems 农户确认订单中自己的商品
func (h *Handler) AcceptOrderItems(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}

	order, acceptErr := h.OrderService.AcceptItems(uid, uint(orderID))
	if acceptErr != nil {
		respondWithMappedError(c, acceptErr, orderTransitionErrorRules, response.CodeInternal, "确认订单失败")
		return
	}

	response.Success(c, gin.H{"order": order})
}

// RejectOrderItemsRequest 农户取消商品请求
type RejectOrderItemsRequest struct {
	Reason string `json:"reason"`
}

// RejectOrderItems 农户取消订单中自己的商品
func (h *Handler) RejectOrderItems(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}
	var req RejectOrderItemsRequest
	_ = c.ShouldBindJSON(&req)

	order, rejectErr := h.OrderService.RejectItems(uid, uint(orderID), req.Reason)
	if rejectErr != nil {
		respondWithMappedError(c, rejectErr, orderTransitionErrorRules, response.CodeInternal, "取消商品失败")
		return
	}

	response.Success(c, gin.H{"order": order})
}

// ShipOrderRequest 发货请求
type ShipOrderRequest struct {
	TrackingNumber  string `json:"tracking_number"`
	DeliveryCompany string `json:"delivery_company"`
}

// ShipOrderItems 农户标记发货
func (h *Handler) ShipOrderItems(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "订单ID无效", nil)
		return
	}
	var req ShipOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, shipErr := h.OrderService.MarkShipped(service.ShipmentInput{
		FarmerID:        uid,
		OrderID:         uint(orderID),
		TrackingNumber:  req.TrackingNumber,
		DeliveryCompany: req.DeliveryCompany,
	})
	if shipErr != nil {
		respondWithMappedError(c, shipErr, orderTransitionErrorRules, response.CodeInternal, "标记发货失败")
		return
	}

	response.Success(c, gin.H{"order": order})
}
