package service

import (
	"time"

	"github.com/betteragri-next/internal/constants"
	"github.com/betteragri-next/internal/models"
	"github.com/betteragri-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartSummary 购物车汇总（用于响应）
type CartSummary struct {
	Items    []models.CartItem `json:"items"`
	Subtotal models.Money      `json:"subtotal"`
}

// AddCartItemInput 加购输入
type AddCartItemInput struct {
	UserID    uint
	ProductID uint
	Quantity  models.Quantity
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// ListByUser 获取用户购物车与小计。已下架或删除的商品对应的行会被顺带清掉。
func (s *CartService) ListByUser(userID uint) (*CartSummary, error) {
	if userID == 0 {
		return nil, ErrPermissionDenied
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	kept := make([]models.CartItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok || product.Status == constants.ProductStatusDraft || product.Status == constants.ProductStatusInactive {
			if err := s.cartRepo.Delete(item.ID); err != nil {
				return nil, err
			}
			continue
		}
		subtotal = subtotal.Add(item.TotalPrice.Decimal)
		kept = append(kept, item)
	}
	return &CartSummary{
		Items:    kept,
		Subtotal: models.NewMoneyFromDecimal(subtotal),
	}, nil
}

// Subtotal 购物车小计（空购物车为零）
func (s *CartService) Subtotal(userID uint) (decimal.Decimal, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return decimal.Zero, err
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice.Decimal)
	}
	return subtotal, nil
}

// AddItem 加购（同商品数量累加，单价以当前商品价快照）
func (s *CartService) AddItem(input AddCartItemInput) (*models.CartItem, error) {
	if input.UserID == 0 || input.ProductID == 0 {
		return nil, ErrInvalidQuantity
	}
	if !input.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.Status != constants.ProductStatusActive {
		return nil, ErrProductNotAvailable
	}

	existing, err := s.cartRepo.GetByUserAndProduct(input.UserID, input.ProductID)
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity.Decimal
	if existing != nil {
		quantity = quantity.Add(existing.Quantity.Decimal)
	}
	// 加购校验按当前目录库存，不做预留
	if quantity.GreaterThan(product.AvailableQuantity.Decimal) {
		return nil, &StockError{ProductID: product.ID, ProductName: product.Name}
	}

	unitPrice := product.PricePerUnit
	total := models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(quantity))
	now := time.Now()

	if existing == nil {
		item := &models.CartItem{
			UserID:     input.UserID,
			ProductID:  input.ProductID,
			Quantity:   models.NewQuantityFromDecimal(quantity),
			UnitPrice:  unitPrice,
			TotalPrice: total,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.cartRepo.Create(item); err != nil {
			return nil, err
		}
		return item, nil
	}

	existing.Quantity = models.NewQuantityFromDecimal(quantity)
	existing.UnitPrice = unitPrice
	existing.TotalPrice = total
	existing.UpdatedAt = now
	if err := s.cartRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// UpdateQuantity 更新购物车项数量（小于等于 0 删除该行）
func (s *CartService) UpdateQuantity(userID, itemID uint, quantity models.Quantity) (*models.CartItem, error) {
	if userID == 0 || itemID == 0 {
		return nil, ErrCartItemNotFound
	}
	item, err := s.cartRepo.GetByIDAndUser(itemID, userID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if !quantity.IsPositive() {
		if err := s.cartRepo.Delete(item.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	product, err := s.productRepo.GetByID(item.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.Status == constants.ProductStatusDraft || product.Status == constants.ProductStatusInactive {
		return nil, ErrProductNotAvailable
	}
	if quantity.Decimal.GreaterThan(product.AvailableQuantity.Decimal) {
		return nil, &StockError{ProductID: product.ID, ProductName: product.Name}
	}

	item.Quantity = quantity
	item.TotalPrice = models.NewMoneyFromDecimal(item.UnitPrice.Decimal.Mul(quantity.Decimal))
	item.UpdatedAt = time.Now()
	if err := s.cartRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(userID, itemID uint) error {
	if userID == 0 || itemID == 0 {
		return ErrCartItemNotFound
	}
	item, err := s.cartRepo.GetByIDAndUser(itemID, userID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}
	return s.cartRepo.Delete(item.ID)
}

// Clear 清空购物车（空购物车为无操作）
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return ErrPermissionDenied
	}
	return s.cartRepo.ClearByUser(userID)
}
