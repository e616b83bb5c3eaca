package models

import (
	"encoding/json"
	"testing"
)

func TestNormalizeImages(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
		ok   bool
	}{
		{name: "array", raw: `["a.jpg"," b.jpg ",""]`, want: []string{"a.jpg", "b.jpg"}, ok: true},
		{name: "encoded array string", raw: `"[\"uploads/x.png\",\"uploads/y.png\"]"`, want: []string{"uploads/x.png", "uploads/y.png"}, ok: true},
		{name: "single path string", raw: `"uploads/one.png"`, want: []string{"uploads/one.png"}, ok: true},
		{name: "null", raw: `null`, want: []string{}, ok: true},
		{name: "broken encoded string", raw: `"[not json"`, want: []string{}, ok: false},
		{name: "number", raw: `42`, want: []string{}, ok: false},
		{name: "mixed array", raw: `["a.jpg", 3, {"k":"v"}]`, want: []string{"a.jpg"}, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeImages([]byte(tc.raw))
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("images want %v got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("images want %v got %v", tc.want, got)
				}
			}
		})
	}
}

func TestPrimaryImageFallsBackToPlaceholder(t *testing.T) {
	if got := PrimaryImage(nil, ""); got != DefaultPlaceholderImage {
		t.Fatalf("expected default placeholder, got %s", got)
	}
	if got := PrimaryImage([]string{" ", "b.jpg"}, "ph.png"); got != "b.jpg" {
		t.Fatalf("expected first non-empty image, got %s", got)
	}
	if got := PrimaryImage([]string{}, "ph.png"); got != "ph.png" {
		t.Fatalf("expected configured placeholder, got %s", got)
	}
}

func TestProductDecodeWithMalformedImages(t *testing.T) {
	var product Product
	payload := `{"id":7,"name":"Dock","price":"19.90","images":"{broken"}`
	if err := json.Unmarshal([]byte(payload), &product); err != nil {
		t.Fatalf("malformed images must not fail decoding: %v", err)
	}
	if len(product.Images) != 0 {
		t.Fatalf("expected empty images, got %v", product.Images)
	}
	if got := product.PrimaryImage(""); got != DefaultPlaceholderImage {
		t.Fatalf("expected placeholder, got %s", got)
	}
	if product.Price.String() != "19.90" {
		t.Fatalf("price want 19.90 got %s", product.Price.String())
	}
}
