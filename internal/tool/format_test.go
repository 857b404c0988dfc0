package tool

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSummaryRuneSafe(t *testing.T) {
	// 250个汉字按rune截断到200，不得切开多字节字符
	long := strings.Repeat("历", 250)
	got := truncateSummary(long)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, summaryDisplayLimit+3, utf8.RuneCountInString(got))
}

func TestTruncateSummaryShortUnchanged(t *testing.T) {
	// 200字符以内原样返回，即使字节数超过200
	short := strings.Repeat("简", 150)
	assert.Equal(t, short, truncateSummary(short))
}
