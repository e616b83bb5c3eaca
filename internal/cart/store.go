// Package cart 实现购物车与收藏夹的内存状态容器。
//
// Store 只负责状态与派生值（数量、总价），不做任何持久化；
// 调用方在每次变更后通过 Snapshot 取出快照并自行写入存储。
package cart

import (
	"errors"
	"strings"
	"sync"

	"github.com/primefix-storefront/internal/models"
)

var (
	ErrInvalidProduct = errors.New("cart product invalid")
	ErrInvalidPrice   = errors.New("cart product price invalid")
)

// LineItem 购物车行项目，每个商品至多一行
type LineItem struct {
	ProductID uint         `json:"product_id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug,omitempty"`
	UnitPrice models.Money `json:"unit_price"`
	Quantity  int          `json:"quantity"`
	ImageRef  string       `json:"image_ref"`
	BrandName string       `json:"brand_name,omitempty"`
}

// Subtotal 行小计
func (i LineItem) Subtotal() models.Money {
	return i.UnitPrice.Mul(i.Quantity)
}

// WishlistEntry 收藏条目
type WishlistEntry struct {
	ProductID uint         `json:"product_id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug,omitempty"`
	UnitPrice models.Money `json:"unit_price"`
	ImageRef  string       `json:"image_ref"`
	BrandName string       `json:"brand_name,omitempty"`
}

// Store 购物车/收藏夹状态容器，并发安全
type Store struct {
	mu          sync.RWMutex
	items       []LineItem
	wishlist    []WishlistEntry
	placeholder string
}

// NewStore 创建空的状态容器，placeholder 为商品无图时使用的占位图
func NewStore(placeholder string) *Store {
	return &Store{
		items:       make([]LineItem, 0),
		wishlist:    make([]WishlistEntry, 0),
		placeholder: strings.TrimSpace(placeholder),
	}
}

// AddToCart 加入购物车：已存在则数量 +1，否则追加数量为 1 的新行
func (s *Store) AddToCart(product models.Product) (LineItem, error) {
	if err := validateProduct(product); err != nil {
		return LineItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOfItem(product.ID); idx >= 0 {
		s.items[idx].Quantity++
		return s.items[idx], nil
	}
	item := LineItem{
		ProductID: product.ID,
		Name:      strings.TrimSpace(product.Name),
		Slug:      strings.TrimSpace(product.Slug),
		UnitPrice: product.Price,
		Quantity:  1,
		ImageRef:  product.PrimaryImage(s.placeholder),
		BrandName: strings.TrimSpace(product.BrandName),
	}
	s.items = append(s.items, item)
	return item, nil
}

// RemoveFromCart 删除购物车行，不存在时返回 false
func (s *Store) RemoveFromCart(productID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfItem(productID)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return true
}

// UpdateQuantity 设置数量；quantity <= 0 时删除该行。
// 返回值 found 表示商品是否在购物车中
func (s *Store) UpdateQuantity(productID uint, quantity int) (found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfItem(productID)
	if idx < 0 {
		return false
	}
	if quantity <= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		return true
	}
	s.items[idx].Quantity = quantity
	return true
}

// ToggleWishlist 切换收藏：不存在则加入，存在则移除。返回切换后是否在收藏中
func (s *Store) ToggleWishlist(product models.Product) (bool, error) {
	if product.ID == 0 {
		return false, ErrInvalidProduct
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOfWish(product.ID); idx >= 0 {
		s.wishlist = append(s.wishlist[:idx], s.wishlist[idx+1:]...)
		return false, nil
	}
	s.wishlist = append(s.wishlist, WishlistEntry{
		ProductID: product.ID,
		Name:      strings.TrimSpace(product.Name),
		Slug:      strings.TrimSpace(product.Slug),
		UnitPrice: product.Price,
		ImageRef:  product.PrimaryImage(s.placeholder),
		BrandName: strings.TrimSpace(product.BrandName),
	})
	return true, nil
}

// IsInWishlist 是否已收藏
func (s *Store) IsInWishlist(productID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfWish(productID) >= 0
}

// Items 返回购物车行的副本
func (s *Store) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Wishlist 返回收藏条目的副本
func (s *Store) Wishlist() []WishlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]WishlistEntry, len(s.wishlist))
	copy(out, s.wishlist)
	return out
}

// CartCount 购物车商品件数（数量之和），每次读取时计算
func (s *Store) CartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// WishlistCount 收藏数量
func (s *Store) WishlistCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wishlist)
}

// Total 购物车总价 Σ(单价 × 数量)，每次读取时计算
func (s *Store) Total() models.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumItems(s.items)
}

// IsEmpty 购物车是否为空
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

// ClearCart 清空购物车（收藏夹保留）
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]LineItem, 0)
}

func (s *Store) indexOfItem(productID uint) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfWish(productID uint) int {
	for i := range s.wishlist {
		if s.wishlist[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func validateProduct(product models.Product) error {
	if product.ID == 0 {
		return ErrInvalidProduct
	}
	if product.Price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

func sumItems(items []LineItem) models.Money {
	total := models.Money{}
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
