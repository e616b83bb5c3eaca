package public

import "github.com/primefix-storefront/internal/provider"

// Handler 店面接口处理器入口
// 说明：所有接口都以购物会话为单位，游客与登录用户共用。
type Handler struct {
	*provider.Container
}

// New 创建店面处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
