package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"resume-analyzer-go/internal/types"
)

const (
	// maxExperienceEntries 经历行最多保留的条数
	maxExperienceEntries = 5

	// minSummaryLength 摘要段落的最小长度（字符数，需严格大于）
	minSummaryLength = 50
)

var (
	// emailPattern 匹配第一个形如 local@domain.tld 的子串，顶级域限定2-4个字母
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._-]+@[A-Za-z0-9._-]+\.[A-Za-z]{2,4}\b`)

	// phonePattern 匹配恰好10位连续数字，前后为词边界
	// 国际区号、分隔符、其他长度一律不识别，这是抽取逻辑的既定简化
	phonePattern = regexp.MustCompile(`\b\d{10}\b`)

	// paragraphSplit 按空行切分段落
	paragraphSplit = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)
)

// Extract 将原始简历文本与外部识别出的实体列表转换为结构化候选人记录
// 纯函数：无I/O、无副作用，空文本或畸形文本不会失败，缺失字段取零值
// 各步骤相互独立，扫描顺序（文本自上而下、实体列表原序）决定"首个匹配胜出"的结果
func Extract(text string, entities []types.Entity) *types.CandidateProfile {
	profile := &types.CandidateProfile{
		Skills:     []string{},
		Education:  []string{},
		Experience: []string{},
	}

	profile.Name = extractName(entities)
	profile.Email = emailPattern.FindString(text)
	profile.Phone = phonePattern.FindString(text)
	profile.Skills = extractSkills(text)
	profile.Education = extractEducation(text)
	profile.Experience = extractExperience(text)
	profile.Summary = extractSummary(text)

	return profile
}

// extractName 取实体列表中第一个PERSON实体的原文，没有则为空
func extractName(entities []types.Entity) string {
	for _, ent := range entities {
		if ent.Label == types.EntityLabelPerson {
			return ent.Text
		}
	}
	return ""
}

// extractSkills 对词表中每个技能做大小写不敏感的子串包含测试
// 命中则收集词表中的规范形式，结果去重（词表本身无重复，按词表序即天然去重）
func extractSkills(text string) []string {
	lower := strings.ToLower(text)
	skills := []string{}
	for i, skillLower := range skillVocabularyLower {
		if strings.Contains(lower, skillLower) {
			skills = append(skills, skillVocabulary[i])
		}
	}
	return skills
}

// extractEducation 逐行扫描，命中任一教育关键词的行去除首尾空白后加入集合
func extractEducation(text string) []string {
	education := []string{}
	seen := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, keyword := range educationKeywordsLower {
			if strings.Contains(lower, keyword) {
				trimmed := strings.TrimSpace(line)
				if _, dup := seen[trimmed]; !dup {
					seen[trimmed] = struct{}{}
					education = append(education, trimmed)
				}
				break
			}
		}
	}
	return education
}

// extractExperience 逐行扫描，命中任一经历关键词的行按原始顺序收集，只保留前5条
func extractExperience(text string) []string {
	experience := []string{}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, keyword := range experienceKeywordsLower {
			if strings.Contains(lower, keyword) {
				experience = append(experience, strings.TrimSpace(line))
				break
			}
		}
	}
	if len(experience) > maxExperienceEntries {
		experience = experience[:maxExperienceEntries]
	}
	return experience
}

// extractSummary 按空行切分段落，取第一个去除空白后长度超过50字符的段落
// 长度按字符（rune）计，多字节文本不会因字节数虚高而提前命中
func extractSummary(text string) string {
	for _, para := range paragraphSplit.Split(text, -1) {
		trimmed := strings.TrimSpace(para)
		if utf8.RuneCountInString(trimmed) > minSummaryLength {
			return trimmed
		}
	}
	return ""
}
