package service

import (
	"strings"
	"time"
	"unicode"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/logger"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"
)

// ProductInput 商品创建/更新输入
type ProductInput struct {
	Name              string
	Description       string
	Category          string
	Unit              string
	PricePerUnit      models.Money
	AvailableQuantity models.Quantity
	Status            string
	Images            []string
	IsOrganic         bool
	HarvestDate       *time.Time
}

// ProductService 商品服务（农户自营商品的增删改与公开目录查询）
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

var validProductStatuses = map[string]struct{}{
	constants.ProductStatusDraft:    {},
	constants.ProductStatusActive:   {},
	constants.ProductStatusInactive: {},
}

// Create 农户创建商品
func (s *ProductService) Create(farmerID uint, input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProductNotFound
	}
	if !input.PricePerUnit.Decimal.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if input.AvailableQuantity.Decimal.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	status := input.Status
	if status == "" {
		status = constants.ProductStatusDraft
	}
	if _, ok := validProductStatuses[status]; !ok {
		return nil, ErrProductNotAvailable
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "kg"
	}

	now := time.Now()
	product := &models.Product{
		FarmerID:          farmerID,
		Name:              name,
		Slug:              generateSlug(name),
		Description:       input.Description,
		Category:          input.Category,
		Unit:              unit,
		PricePerUnit:      input.PricePerUnit,
		AvailableQuantity: input.AvailableQuantity,
		Status:            status,
		Images:            input.Images,
		IsOrganic:         input.IsOrganic,
		HarvestDate:       input.HarvestDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "farmer_id", farmerID, "slug", product.Slug)
	return product, nil
}

// Update 农户更新自己的商品
func (s *ProductService) Update(farmerID, productID uint, input ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.FarmerID != farmerID {
		return nil, ErrProductNotFound
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		product.Name = name
	}
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.Category != "" {
		product.Category = input.Category
	}
	if unit := strings.TrimSpace(input.Unit); unit != "" {
		product.Unit = unit
	}
	if input.PricePerUnit.Decimal.IsPositive() {
		product.PricePerUnit = input.PricePerUnit
	}
	if !input.AvailableQuantity.Decimal.IsNegative() && !input.AvailableQuantity.Decimal.IsZero() {
		product.AvailableQuantity = input.AvailableQuantity
		if product.Status == constants.ProductStatusSoldOut {
			product.Status = constants.ProductStatusActive
		}
	}
	if input.Status != "" {
		if _, ok := validProductStatuses[input.Status]; !ok {
			return nil, ErrProductNotAvailable
		}
		product.Status = input.Status
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.HarvestDate != nil {
		product.HarvestDate = input.HarvestDate
	}
	product.IsOrganic = input.IsOrganic
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 农户下架删除自己的商品
func (s *ProductService) Delete(farmerID, productID uint) error {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil || product.FarmerID != farmerID {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(product.ID)
}

// Get 公开查询商品详情
func (s *ProductService) Get(productID uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetBySlug 公开按 slug 查询上架商品
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// List 商品列表查询
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// generateSlug 由名称生成唯一 slug：slug 化后附随机数字后缀避免冲突
func generateSlug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "product"
	}
	return slug + "-" + randNumeric(6)
}
