package models

import "strings"

// UserRoleAdmin 后台管理员角色，不作为前台购物用户
const UserRoleAdmin = "admin"

// UserRecord 后端登录接口返回的用户记录
type UserRecord struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Role    string `json:"role,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

// IsShopper 是否为前台购物用户
func (u *UserRecord) IsShopper() bool {
	if u == nil || u.ID == 0 {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(u.Role), UserRoleAdmin)
}

// NormalizedRole 返回规范化角色，空值视为 customer
func (u *UserRecord) NormalizedRole() string {
	if u == nil {
		return "guest"
	}
	role := strings.ToLower(strings.TrimSpace(u.Role))
	if role == "" {
		return "customer"
	}
	return role
}

// SplitName 将姓名拆分为名与姓
func (u *UserRecord) SplitName() (first, last string) {
	if u == nil {
		return "", ""
	}
	parts := strings.Fields(u.Name)
	if len(parts) == 0 {
		return "", ""
	}
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
