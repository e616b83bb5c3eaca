package models

import "strings"

// Category 商品分类（可带子分类）
type Category struct {
	ID       uint       `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	Image    string     `json:"image,omitempty"`
	ParentID *uint      `json:"parent_id,omitempty"`
	Children []Category `json:"children,omitempty"`
}

// Matches 分类名称是否包含查询词（不区分大小写）
func (c Category) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return false
	}
	return strings.Contains(strings.ToLower(c.Name), query)
}

// Excluded 分类名称或 slug 命中排除关键字
func (c Category) Excluded(keywords []string) bool {
	return containsAnyFold(c.Name, keywords) || containsAnyFold(c.Slug, keywords)
}

// FlattenCategories 展开父子分类，父分类在前
func FlattenCategories(categories []Category) []Category {
	flat := make([]Category, 0, len(categories))
	for _, parent := range categories {
		flat = append(flat, parent)
		flat = append(flat, parent.Children...)
	}
	return flat
}

// Brand 品牌
type Brand struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
	Logo string `json:"logo,omitempty"`
}
