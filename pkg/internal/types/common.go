package types

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// MessageResponse 通用确认.
type MessageResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id,omitempty"`
}

// ErrorResponse 错误返回.
type ErrorResponse struct {
	Message string `json:"message"`
}

// HealthResponse 健康检查结果.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthSummary /health 的汇总结果.
type HealthSummary struct {
	Status  string                    `json:"status"`
	Version string                    `json:"version"`
	Checks  map[string]HealthResponse `json:"checks"`
}

// LenientInt 宽松解析的整数：接受数字或字符串，取前导整数部分，无法解析时为 0.
type LenientInt int

// UnmarshalJSON 实现 json.Unmarshaler.
func (n *LenientInt) UnmarshalJSON(b []byte) error {
	var raw any
	if err := sonic.Unmarshal(b, &raw); err != nil {
		*n = 0
		return nil //nolint:nilerr // 非法值按 0 处理
	}

	switch v := raw.(type) {
	case float64:
		*n = LenientInt(int(v))
	case string:
		*n = LenientInt(ParseLeadingInt(v))
	default:
		*n = 0
	}

	return nil
}

// ParseLeadingInt 解析字符串开头的十进制整数（可带符号），如 "12abc" 得 12，失败返回 0.
func ParseLeadingInt(s string) int {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}

	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	if end == digits {
		return 0
	}

	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}

	return v
}
