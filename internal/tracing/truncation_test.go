package tracing

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSafeAttributeValueMasksSensitiveNames(t *testing.T) {
	// 文件名含候选人姓名，属性名命中"name"即掩码
	got := SafeAttributeValue("original_filename", "jane_doe_resume.pdf", DefaultMaxLength)
	assert.Equal(t, "ja***************df", got)

	got = SafeAttributeValue("candidate_email", "jane.doe@example.com", DefaultMaxLength)
	assert.NotContains(t, got, "example.com")
}

func TestSafeAttributeValueTruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := SafeAttributeValue("object_key", long, DefaultMaxLength)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), DefaultMaxLength)
	assert.Contains(t, got, "...")
}

func TestMaskPII(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"张":          "*",
		"张三":         "张*",
		"王小明":        "王*明",
		"1234567890": "12******90",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskPII(in), "input=%q", in)
	}
}

func TestTruncateStringRuneSafe(t *testing.T) {
	long := strings.Repeat("简历", 200)
	got := TruncateString(long, MaxResumeLength)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxResumeLength)

	// 不超长原样返回
	assert.Equal(t, "short", TruncateString("short", MaxResumeLength))
}
