// Package i18n 提供面向用户的错误与提示文案（en / zh-CN）。
package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleEN   = "en"
	LocaleZhCN = "zh-CN"

	DefaultLocale = LocaleEN
	localeHeader  = "X-Locale"
)

var catalog = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":            "Invalid request",
		"error.unauthorized":           "Please sign in first",
		"error.forbidden":              "You do not have access to this page",
		"error.not_found":              "Not found",
		"error.too_many_requests":      "Too many attempts, please try again later",
		"error.rate_limited":           "Too many attempts, please try again in %d seconds",
		"error.internal":               "Something went wrong. Please try again.",
		"error.upstream_unavailable":   "Something went wrong. Please try again.",
		"error.upstream_rejected":      "The request could not be completed",
		"error.session_invalid":        "Your session has expired, please refresh the page",
		"error.session_conflict":       "Your cart changed in another tab, please retry",
		"error.product_invalid":        "Product is invalid",
		"error.product_price_invalid":  "Product price is invalid",
		"error.cart_item_not_found":    "Item is not in your cart",
		"error.quantity_invalid":       "Quantity must be a whole number",
		"error.cart_empty":             "Your cart is empty",
		"error.checkout_details":       "Please fill in all required fields: %s",
		"error.checkout_stage":         "This checkout step is not available right now",
		"error.payment_method_invalid": "Unsupported payment method",
		"error.payment_required":       "Please complete the online payment first",
		"error.payment_unavailable":    "Online payment is not available",
		"error.payment_failed":         "Payment could not be captured",
		"error.payment_mismatch":       "Your cart no longer matches the approved payment",
		"error.payment_captured":       "Payment has already been taken, please finish placing this order",
		"error.submission_in_progress": "Your order is already being submitted",
		"error.order_failed":           "Error placing order: %s",
		"error.login_failed":           "Authentication failed",
		"error.register_failed":        "Registration failed",
		"error.password_mismatch":      "Passwords do not match",
		"error.password_required":      "Password is required",
		"error.captcha_required":       "Captcha is required",
		"error.captcha_invalid":        "Captcha is incorrect",
		"error.captcha_unavailable":    "Captcha is not enabled",
		"error.email_required":         "Email is required",
		"error.contact_incomplete":     "Please fill in name, email and message",
		"error.admin_not_shopper":      "Administrator accounts cannot shop on the storefront",
		"success.order_placed":         "Order placed",
		"success.profile_updated":      "Profile updated successfully!",
		"success.password_changed":     "Password changed successfully!",
		"success.contact_sent":         "Message sent",
		"success.logged_out":           "Signed out",
	},
	LocaleZhCN: {
		"error.bad_request":            "请求参数错误",
		"error.unauthorized":           "请先登录",
		"error.forbidden":              "无权访问该页面",
		"error.not_found":              "资源不存在",
		"error.too_many_requests":      "操作过于频繁，请稍后再试",
		"error.rate_limited":           "操作过于频繁，请 %d 秒后再试",
		"error.internal":               "系统繁忙，请稍后重试",
		"error.upstream_unavailable":   "系统繁忙，请稍后重试",
		"error.upstream_rejected":      "请求未能完成",
		"error.session_invalid":        "会话已失效，请刷新页面",
		"error.session_conflict":       "购物车已在其他页面更新，请重试",
		"error.product_invalid":        "商品无效",
		"error.product_price_invalid":  "商品价格无效",
		"error.cart_item_not_found":    "购物车中没有该商品",
		"error.quantity_invalid":       "数量必须为整数",
		"error.cart_empty":             "购物车为空",
		"error.checkout_details":       "请填写所有必填项：%s",
		"error.checkout_stage":         "当前结算步骤不可用",
		"error.payment_method_invalid": "不支持的支付方式",
		"error.payment_required":       "请先完成在线支付",
		"error.payment_unavailable":    "在线支付未启用",
		"error.payment_failed":         "支付扣款失败",
		"error.payment_mismatch":       "购物车与已确认的支付金额不一致",
		"error.payment_captured":       "已完成扣款，请继续提交该订单",
		"error.submission_in_progress": "订单正在提交中",
		"error.order_failed":           "下单失败：%s",
		"error.login_failed":           "登录失败",
		"error.register_failed":        "注册失败",
		"error.password_mismatch":      "两次输入的密码不一致",
		"error.password_required":      "请输入密码",
		"error.captcha_required":       "请输入验证码",
		"error.captcha_invalid":        "验证码错误",
		"error.captcha_unavailable":    "验证码未启用",
		"error.email_required":         "请输入邮箱",
		"error.contact_incomplete":     "请填写姓名、邮箱和留言",
		"error.admin_not_shopper":      "管理员账号不能在前台购物",
		"success.order_placed":         "下单成功",
		"success.profile_updated":      "资料已更新",
		"success.password_changed":     "密码已修改",
		"success.contact_sent":         "留言已发送",
		"success.logged_out":           "已退出登录",
	},
}

// T 翻译 key，缺失时回退到默认语言，再缺失返回 key 本身
func T(locale, key string) string {
	if messages, ok := catalog[NormalizeLocale(locale)]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// NormalizeLocale 归一化语言标识，不支持的语言回退到默认语言
func NormalizeLocale(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch {
	case raw == "":
		return DefaultLocale
	case strings.HasPrefix(raw, "zh"):
		return LocaleZhCN
	case strings.HasPrefix(raw, "en"):
		return LocaleEN
	default:
		return DefaultLocale
	}
}

// ResolveLocale 从 X-Locale 或 Accept-Language 解析请求语言
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return DefaultLocale
	}
	if explicit := strings.TrimSpace(c.GetHeader(localeHeader)); explicit != "" {
		return NormalizeLocale(explicit)
	}
	accept := c.GetHeader("Accept-Language")
	if accept == "" {
		return DefaultLocale
	}
	first := strings.SplitN(accept, ",", 2)[0]
	first = strings.SplitN(first, ";", 2)[0]
	return NormalizeLocale(first)
}
