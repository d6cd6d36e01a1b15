package config

import (
	"fmt"
	"strings"
)

// StatusMapping はAssemblaステータス(小文字)からJIRAステータスへのマッピングです
type StatusMapping map[string]string

// ParseStatusMapping は "from[:to],..." 形式の文字列を解析します。
// to が省略された場合は from と同じ名前のステータスになります
func ParseStatusMapping(s string) (StatusMapping, error) {
	mapping := make(StatusMapping)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		from, to, found := strings.Cut(item, ":")
		from = strings.TrimSpace(from)
		to = strings.TrimSpace(to)
		if from == "" {
			return nil, fmt.Errorf("ステータスマッピングが不正です: '%s'", item)
		}
		if !found || to == "" {
			to = from
		}
		mapping[strings.ToLower(from)] = to
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("ステータスマッピングが空です")
	}
	return mapping, nil
}

// Lookup は大文字小文字を区別せずにマッピング先を返します
func (m StatusMapping) Lookup(status string) (string, bool) {
	to, ok := m[strings.ToLower(status)]
	return to, ok
}

// Missing はマッピングに存在しないステータスを返します
func (m StatusMapping) Missing(statuses []string) []string {
	var missing []string
	for _, status := range statuses {
		if _, ok := m.Lookup(status); !ok {
			missing = append(missing, status)
		}
	}
	return missing
}
