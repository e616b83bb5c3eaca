package models

import "strings"

// Product 后端商品数据
type Product struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Price       Money     `json:"price"`
	OldPrice    *Money    `json:"old_price,omitempty"`
	Images      ImageList `json:"images"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	BrandName   string    `json:"brand_name,omitempty"`
	Category    string    `json:"category,omitempty"`
	CategoryID  uint      `json:"category_id,omitempty"`
	Stock       int       `json:"stock,omitempty"`
	Featured    bool      `json:"featured,omitempty"`
}

// PrimaryImage 商品首图
func (p Product) PrimaryImage(placeholder string) string {
	return PrimaryImage(p.Images, placeholder)
}

// WithThumbnail 填充首图（无图时为占位图）
func (p Product) WithThumbnail(placeholder string) Product {
	p.Thumbnail = p.PrimaryImage(placeholder)
	return p
}

// NameContainsAny 商品名称是否包含任一关键字（不区分大小写）
func (p Product) NameContainsAny(keywords []string) bool {
	return containsAnyFold(p.Name, keywords)
}

// ProductPage 商品列表分页结果
type ProductPage struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

func containsAnyFold(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
