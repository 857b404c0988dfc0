package tool

import (
	"fmt"
	"strings"

	"resume-analyzer-go/internal/types"
)

// summaryDisplayLimit 展示时摘要的截断长度
const summaryDisplayLimit = 200

// FormatCandidate 把一份候选人记录渲染为完整的展示文本
func FormatCandidate(profile *types.CandidateProfile) string {
	if profile == nil {
		return "Candidate not found"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", displayName(profile.Name))
	fmt.Fprintf(&b, "Email: %s\n", valueOrNA(profile.Email))
	fmt.Fprintf(&b, "Phone: %s\n", valueOrNA(profile.Phone))
	fmt.Fprintf(&b, "ID: %s\n\n", valueOrNA(profile.ID))

	if len(profile.Skills) > 0 {
		fmt.Fprintf(&b, "**Skills** (%d):\n", len(profile.Skills))
		for i, skill := range profile.Skills {
			fmt.Fprintf(&b, "   %d. %s\n", i+1, skill)
		}
		b.WriteString("\n")
	}

	if len(profile.Experience) > 0 {
		fmt.Fprintf(&b, "**Experience** (%d positions):\n", len(profile.Experience))
		for i, exp := range profile.Experience {
			fmt.Fprintf(&b, "   %d. %s\n", i+1, exp)
		}
		b.WriteString("\n")
	}

	if len(profile.Education) > 0 {
		fmt.Fprintf(&b, "**Education** (%d):\n", len(profile.Education))
		for i, edu := range profile.Education {
			fmt.Fprintf(&b, "   %d. %s\n", i+1, edu)
		}
		b.WriteString("\n")
	}

	if profile.Summary != "" {
		fmt.Fprintf(&b, "**Summary**:\n%s\n", truncateSummary(profile.Summary))
	}

	return b.String()
}

func displayName(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

func valueOrNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}

// truncateSummary 按rune截断，避免在多字节字符中间切开
func truncateSummary(summary string) string {
	runes := []rune(summary)
	if len(runes) > summaryDisplayLimit {
		return string(runes[:summaryDisplayLimit]) + "..."
	}
	return summary
}

// titleCase 经验层级首字母大写用于展示 (entry -> Entry)
func titleCase(level string) string {
	if level == "" {
		return level
	}
	return strings.ToUpper(level[:1]) + level[1:]
}
