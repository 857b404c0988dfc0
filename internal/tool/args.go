package tool

import (
	"errors"
	"fmt"
)

// ErrInvalidArgs 工具参数校验失败
var ErrInvalidArgs = errors.New("参数校验失败")

// Args 工具调用参数，来自JSON反序列化
// 数值经JSON解码后是float64，取整数时做转换
type Args map[string]interface{}

// String 取字符串参数，缺失或类型不符时返回默认值
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// RequiredString 取必填字符串参数，缺失或为空时报验证错误
func (a Args) RequiredString(key string) (string, error) {
	v, ok := a[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: 缺少必填参数 %s", ErrInvalidArgs, key)
	}
	return v, nil
}

// Int 取整数参数，JSON数值统一按float64处理
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// Bool 取布尔参数
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

// StringSlice 取字符串数组参数，缺失时返回nil
func (a Args) StringSlice(key string) []string {
	raw, ok := a[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
