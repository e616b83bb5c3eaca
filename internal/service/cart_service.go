package service

import (
	"context"

	"github.com/primefix-storefront/internal/cart"
	"github.com/primefix-storefront/internal/logger"
	"github.com/primefix-storefront/internal/models"
)

// CartView 购物车视图（数量与总价均为读取时计算）
type CartView struct {
	Items         []cart.LineItem `json:"items"`
	Count         int             `json:"count"`
	Total         models.Money    `json:"total"`
	WishlistCount int             `json:"wishlist_count"`
}

// WishlistView 收藏夹视图
type WishlistView struct {
	Items      []cart.WishlistEntry `json:"items"`
	Count      int                  `json:"count"`
	InWishlist *bool                `json:"in_wishlist,omitempty"`
}

// CartService 购物车与收藏夹服务，所有变更都经会话服务持久化
type CartService struct {
	sessions *SessionService
}

// NewCartService 创建购物车服务
func NewCartService(sessions *SessionService) *CartService {
	return &CartService{sessions: sessions}
}

// View 获取购物车
func (s *CartService) View(ctx context.Context, sessionID string) (*CartView, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return buildCartView(sess.Store), nil
}

// Add 加入购物车，已存在则数量 +1
func (s *CartService) Add(ctx context.Context, sessionID string, product models.Product) (*CartView, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		_, err := sess.Store.AddToCart(product)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.ForSession(sessionID).Debugw("cart_item_added", "product_id", product.ID, "count", sess.Store.CartCount())
	return buildCartView(sess.Store), nil
}

// UpdateQuantity 设置数量，quantity <= 0 时删除该行
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID uint, quantity int) (*CartView, error) {
	if productID == 0 {
		return nil, cart.ErrInvalidProduct
	}
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		if !sess.Store.UpdateQuantity(productID, quantity) {
			return ErrCartItemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buildCartView(sess.Store), nil
}

// Remove 删除购物车行，不存在时视为成功
func (s *CartService) Remove(ctx context.Context, sessionID string, productID uint) (*CartView, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		sess.Store.RemoveFromCart(productID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buildCartView(sess.Store), nil
}

// ToggleWishlist 切换收藏
func (s *CartService) ToggleWishlist(ctx context.Context, sessionID string, product models.Product) (*WishlistView, error) {
	var added bool
	sess, err := s.sessions.Mutate(ctx, sessionID, func(sess *ShopperSession) error {
		var err error
		added, err = sess.Store.ToggleWishlist(product)
		return err
	})
	if err != nil {
		return nil, err
	}
	view := buildWishlistView(sess.Store)
	view.InWishlist = &added
	return view, nil
}

// Wishlist 获取收藏夹
func (s *CartService) Wishlist(ctx context.Context, sessionID string) (*WishlistView, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return buildWishlistView(sess.Store), nil
}

func buildCartView(store *cart.Store) *CartView {
	return &CartView{
		Items:         store.Items(),
		Count:         store.CartCount(),
		Total:         store.Total(),
		WishlistCount: store.WishlistCount(),
	}
}

func buildWishlistView(store *cart.Store) *WishlistView {
	return &WishlistView{
		Items: store.Wishlist(),
		Count: store.WishlistCount(),
	}
}
