package tracing

import "strings"

const (
	// DefaultMaxLength 一般属性值的最大长度
	DefaultMaxLength = 200

	// MaxResumeLength 简历文本预览的最大长度
	MaxResumeLength = 150
)

// 属性名包含这些片段时，值按个人敏感信息掩码后再上报
// 简历链路里文件名往往就是候选人姓名，同样需要掩码
var sensitiveKeyParts = []string{
	"email", "phone", "name", "姓名", "address", "地址",
	"password", "secret", "token",
}

// SafeAttributeValue 属性值脱敏：敏感属性名掩码，其余超长截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lowerName, part) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 掩码个人敏感信息，保留首尾少量字符便于排查
func MaskPII(value string) string {
	runes := []rune(value)
	switch n := len(runes); {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[:1]) + "*"
	case n <= 4:
		return string(runes[:1]) + strings.Repeat("*", n-2) + string(runes[n-1:])
	default:
		// "jane.doe@example.com" -> "ja****************om"
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// TruncateString 按rune截断，保留首尾两段并以...连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeResumeContent 简历文本的span预览，只保留截断后的片段
func SafeResumeContent(content string) string {
	return TruncateString(content, MaxResumeLength)
}
