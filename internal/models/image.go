package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultPlaceholderImage 商品无图时的占位图
const DefaultPlaceholderImage = "https://via.placeholder.com/400x400?text=No+Image"

// NormalizeImages 将后端返回的图片字段统一为字符串数组
// 后端可能返回 JSON 数组、JSON 编码后的数组字符串、单个路径字符串或 null；
// 无法解析时返回 ok=false，调用方回退到占位图
func NormalizeImages(raw []byte) (images []string, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []string{}, true
	}

	switch trimmed[0] {
	case '[':
		var list []interface{}
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return []string{}, false
		}
		return compactImageList(list), true
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return []string{}, false
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return []string{}, true
		}
		if strings.HasPrefix(text, "[") {
			return NormalizeImages([]byte(text))
		}
		return []string{text}, true
	default:
		return []string{}, false
	}
}

// PrimaryImage 返回首图，没有可用图片时返回占位图
func PrimaryImage(images []string, placeholder string) string {
	for _, img := range images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			return trimmed
		}
	}
	if strings.TrimSpace(placeholder) == "" {
		return DefaultPlaceholderImage
	}
	return placeholder
}

func compactImageList(list []interface{}) []string {
	result := make([]string, 0, len(list))
	for _, item := range list {
		text, ok := item.(string)
		if !ok {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			result = append(result, text)
		}
	}
	return result
}

// ImageList 商品图片列表，兼容多种后端编码
type ImageList []string

// UnmarshalJSON 解析图片字段，格式异常时降级为空列表而不是报错
func (l *ImageList) UnmarshalJSON(b []byte) error {
	images, _ := NormalizeImages(b)
	*l = images
	return nil
}
