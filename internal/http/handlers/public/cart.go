package public

import (
	"strconv"

	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartAddRequest 加购请求
type CartAddRequest struct {
	ProductID uint            `json:"product_id" binding:"required"`
	Quantity  models.Quantity `json:"quantity"`
}

// CartUpdateRequest 更新购物车项请求
type CartUpdateRequest struct {
	Quantity models.Quantity `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	summary, err := h.CartService.ListByUser(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "查询购物车失败", err)
		return
	}

	response.Success(c, summary)
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	item, err := h.CartService.AddItem(service.AddCartItemInput{
		UserID:    uid,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "加入购物车失败")
		return
	}

	response.Success(c, gin.H{"item": item})
}

// UpdateCartItem 更新购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "购物车项ID无效", nil)
		return
	}
	var req CartUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	item, err := h.CartService.UpdateQuantity(uid, uint(itemID), req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "更新购物车失败")
		return
	}
	if item == nil {
		response.Success(c, gin.H{"removed": true})
		return
	}

	response.Success(c, gin.H{"item": item})
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "购物车项ID无效", nil)
		return
	}

	if err := h.CartService.RemoveItem(uid, uint(itemID)); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "删除购物车项失败")
		return
	}

	response.Success(c, gin.H{"removed": true})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	if err := h.CartService.Clear(uid); err != nil {
		respondError(c, response.CodeInternal, "清空购物车失败", err)
		return
	}

	response.Success(c, gin.H{"cleared": true})
}
