package search

import "strings"

// DefaultRecentLimit 最近搜索默认保留条数
const DefaultRecentLimit = 5

// RecordRecent 将搜索词置顶并去重，超过上限的旧记录被丢弃。空白词不记录
func RecordRecent(recent []string, term string, limit int) []string {
	term = strings.TrimSpace(term)
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if term == "" {
		return NormalizeRecent(recent, limit)
	}
	updated := make([]string, 0, limit)
	updated = append(updated, term)
	for _, item := range recent {
		if len(updated) >= limit {
			break
		}
		if item == term {
			continue
		}
		updated = append(updated, item)
	}
	return updated
}

// NormalizeRecent 清理持久化的最近搜索：去空白、去重、截断
func NormalizeRecent(recent []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	seen := make(map[string]struct{}, len(recent))
	normalized := make([]string, 0, len(recent))
	for _, item := range recent {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		normalized = append(normalized, item)
		if len(normalized) >= limit {
			break
		}
	}
	return normalized
}
