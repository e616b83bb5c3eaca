package cart

import (
	"encoding/json"
	"fmt"

	"github.com/primefix-storefront/internal/models"
)

// Snapshot 购物车与收藏夹的可序列化快照
type Snapshot struct {
	Items    []LineItem      `json:"items"`
	Wishlist []WishlistEntry `json:"wishlist"`
}

// Total 快照总价
func (s Snapshot) Total() models.Money {
	return sumItems(s.Items)
}

// Snapshot 导出当前状态
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Items:    s.Items(),
		Wishlist: s.Wishlist(),
	}
}

// Restore 从快照重建状态容器。
// 快照来自外部存储，可能被篡改或由旧版本写入：
// 重复的商品行会合并数量，数量 <= 0 的行与重复收藏会被丢弃
func Restore(snapshot Snapshot, placeholder string) *Store {
	store := NewStore(placeholder)
	for _, item := range snapshot.Items {
		if item.ProductID == 0 || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			continue
		}
		if idx := store.indexOfItem(item.ProductID); idx >= 0 {
			store.items[idx].Quantity += item.Quantity
			continue
		}
		store.items = append(store.items, item)
	}
	for _, entry := range snapshot.Wishlist {
		if entry.ProductID == 0 || store.indexOfWish(entry.ProductID) >= 0 {
			continue
		}
		store.wishlist = append(store.wishlist, entry)
	}
	return store
}

// EncodeSnapshot 序列化快照
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	if snapshot.Items == nil {
		snapshot.Items = []LineItem{}
	}
	if snapshot.Wishlist == nil {
		snapshot.Wishlist = []WishlistEntry{}
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return body, nil
}

// DecodeSnapshot 反序列化快照，空输入返回空快照
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var snapshot Snapshot
	if len(raw) == 0 {
		return Snapshot{Items: []LineItem{}, Wishlist: []WishlistEntry{}}, nil
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return snapshot, nil
}
