package cart

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/primefix-storefront/internal/models"
)

func product(id uint, price string) models.Product {
	return models.Product{
		ID:        id,
		Name:      "Product",
		Price:     models.NewMoneyFromString(price),
		Images:    models.ImageList{"uploads/p.png"},
		BrandName: "Acme",
	}
}

func TestAddSameProductTwiceIncrementsQuantity(t *testing.T) {
	store := NewStore("")
	if _, err := store.AddToCart(product(1, "10")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := store.AddToCart(product(1, "10")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("line items want 1 got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("quantity want 2 got %d", items[0].Quantity)
	}
	if store.CartCount() != 2 {
		t.Fatalf("cart count want 2 got %d", store.CartCount())
	}
}

func TestAddExistingLineFromQuantityTwo(t *testing.T) {
	store := Restore(Snapshot{Items: []LineItem{{ProductID: 1, UnitPrice: models.NewMoneyFromString("10"), Quantity: 2}}}, "")
	item, err := store.AddToCart(product(1, "10"))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if item.Quantity != 3 {
		t.Fatalf("quantity want 3 got %d", item.Quantity)
	}
	if got := store.Total().String(); got != "30.00" {
		t.Fatalf("total want 30.00 got %s", got)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	store := NewStore("")
	_, _ = store.AddToCart(product(1, "10"))
	_, _ = store.AddToCart(product(2, "5.50"))
	if got := store.Total().String(); got != "15.50" {
		t.Fatalf("total want 15.50 got %s", got)
	}
	if !store.UpdateQuantity(1, 0) {
		t.Fatalf("expected product 1 to be found")
	}
	if len(store.Items()) != 1 {
		t.Fatalf("expected one line after removal")
	}
	if got := store.Total().String(); got != "5.50" {
		t.Fatalf("total want 5.50 got %s", got)
	}
	if store.UpdateQuantity(99, 3) {
		t.Fatalf("unknown product should report not found")
	}
}

func TestRemoveFromCartMissingIsNoop(t *testing.T) {
	store := NewStore("")
	_, _ = store.AddToCart(product(1, "1"))
	if store.RemoveFromCart(2) {
		t.Fatalf("remove of missing product should return false")
	}
	if !store.RemoveFromCart(1) {
		t.Fatalf("remove of present product should return true")
	}
	if !store.IsEmpty() {
		t.Fatalf("cart should be empty")
	}
}

func TestToggleWishlistTwiceRestoresSet(t *testing.T) {
	store := NewStore("")
	_, _ = store.ToggleWishlist(product(3, "1"))
	before := store.Wishlist()

	added, err := store.ToggleWishlist(product(4, "2"))
	if err != nil || !added {
		t.Fatalf("first toggle should add, got added=%v err=%v", added, err)
	}
	added, err = store.ToggleWishlist(product(4, "2"))
	if err != nil || added {
		t.Fatalf("second toggle should remove, got added=%v err=%v", added, err)
	}
	after := store.Wishlist()
	if len(after) != len(before) || after[0].ProductID != before[0].ProductID {
		t.Fatalf("wishlist want %v got %v", before, after)
	}
	if store.IsInWishlist(4) {
		t.Fatalf("product 4 should not be in wishlist")
	}
	if store.WishlistCount() != 1 {
		t.Fatalf("wishlist count want 1 got %d", store.WishlistCount())
	}
}

func TestAddRejectsInvalidProducts(t *testing.T) {
	store := NewStore("")
	if _, err := store.AddToCart(models.Product{}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}
	if _, err := store.AddToCart(product(1, "-1")); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := store.ToggleWishlist(models.Product{}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}
}

func TestAddUsesPlaceholderWhenImagesMissing(t *testing.T) {
	store := NewStore("ph.png")
	item, err := store.AddToCart(models.Product{ID: 5, Price: models.NewMoneyFromString("1")})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if item.ImageRef != "ph.png" {
		t.Fatalf("image ref want ph.png got %s", item.ImageRef)
	}
}

func TestTotalMatchesSumAfterRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	store := NewStore("")
	prices := map[uint]string{1: "10", 2: "2.5", 3: "0.99", 4: "100", 5: "0"}
	for step := 0; step < 500; step++ {
		id := uint(rng.Intn(5) + 1)
		switch rng.Intn(4) {
		case 0, 1:
			_, _ = store.AddToCart(product(id, prices[id]))
		case 2:
			store.UpdateQuantity(id, rng.Intn(5)-1)
		case 3:
			store.RemoveFromCart(id)
		}

		want := models.Money{}
		count := 0
		seen := map[uint]bool{}
		for _, item := range store.Items() {
			if seen[item.ProductID] {
				t.Fatalf("duplicate line for product %d", item.ProductID)
			}
			seen[item.ProductID] = true
			if item.Quantity < 1 {
				t.Fatalf("line quantity must be >= 1, got %d", item.Quantity)
			}
			want = want.Add(item.UnitPrice.Mul(item.Quantity))
			count += item.Quantity
		}
		if !store.Total().Equal(want.Decimal) {
			t.Fatalf("step %d: total want %s got %s", step, want.String(), store.Total().String())
		}
		if store.CartCount() != count {
			t.Fatalf("step %d: count want %d got %d", step, count, store.CartCount())
		}
	}
}

func TestConcurrentAddsAreAtomic(t *testing.T) {
	store := NewStore("")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.AddToCart(product(1, "1"))
		}()
	}
	wg.Wait()
	if store.CartCount() != 50 {
		t.Fatalf("count want 50 got %d", store.CartCount())
	}
}
