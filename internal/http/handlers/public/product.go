package public

import (
	"strconv"
	"time"

	handlershared "github.com/betteragri-next/internal/http/handlers/shared"
	"github.com/betteragri-next/internal/http/response"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"
	"github.com/betteragri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts 公开商品列表（仅上架商品）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		OnlyActive: true,
	}
	products, total, err := h.ProductService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询商品列表失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"products": products}, buildPagination(page, pageSize, total))
}

// GetProduct 公开商品详情（按 slug）
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.ProductService.GetBySlug(c.Param("slug"))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "查询商品失败")
		return
	}
	response.Success(c, gin.H{"product": product})
}

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	PricePerUnit      models.Money    `json:"price_per_unit"`
	AvailableQuantity models.Quantity `json:"available_quantity"`
	Status            string          `json:"status"`
	Images            []string        `json:"images"`
	IsOrganic         bool            `json:"is_organic"`
	HarvestDate       *time.Time      `json:"harvest_date"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:              r.Name,
		Description:       r.Description,
		Category:          r.Category,
		Unit:              r.Unit,
		PricePerUnit:      r.PricePerUnit,
		AvailableQuantity: r.AvailableQuantity,
		Status:            r.Status,
		Images:            r.Images,
		IsOrganic:         r.IsOrganic,
		HarvestDate:       r.HarvestDate,
	}
}

// ListMyProducts 农户查询自己的商品
func (h *Handler) ListMyProducts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		FarmerID: uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询商品列表失败", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"products": products}, buildPagination(page, pageSize, total))
}

// CreateProduct 农户创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	product, err := h.ProductService.Create(uid, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "创建商品失败")
		return
	}

	response.Success(c, gin.H{"product": product})
}

// UpdateProduct 农户更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "商品ID无效", nil)
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	product, err := h.ProductService.Update(uid, uint(productID), req.toInput())
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "更新商品失败")
		return
	}

	response.Success(c, gin.H{"product": product})
}

// DeleteProduct 农户删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, response.CodeBadRequest, "商品ID无效", nil)
		return
	}

	if err := h.ProductService.Delete(uid, uint(productID)); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "删除商品失败")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	totalPage := total / int64(pageSize)
	if total%int64(pageSize) > 0 {
		totalPage++
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
