package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"resume-analyzer-go/internal/types"
)

// 各评分维度的上限，基准满分100
const (
	maxSkillsScore      = 30.0
	maxExperienceScore  = 35.0
	maxEducationScore   = 20.0
	maxContactScore     = 10.0
	maxSummaryScore     = 5.0
	maxRequirementBonus = 20.0

	baseMaxScore = 100.0

	// 摘要计分要求的最小长度（严格大于）
	summaryScoreMinLength = 50
)

// Score 计算单份候选人记录的综合评分
// jobRequirements 可选；为空切片或nil时不加匹配加成，满分保持100，
// 与"给了需求但一条没匹配上"在加成上的区别仅在于满分是否扩展到120
func Score(profile *types.CandidateProfile, jobRequirements []string) *types.ScoreResult {
	score := 0.0
	maxScore := baseMaxScore
	details := make([]string, 0, 6)

	// 技能：每项3分，上限30
	skillsScore := minFloat(float64(len(profile.Skills))*3, maxSkillsScore)
	score += skillsScore
	details = append(details, fmt.Sprintf("Skills: %.0f/30 (%d skills)", skillsScore, len(profile.Skills)))

	// 经历：每条7分，上限35
	expScore := minFloat(float64(len(profile.Experience))*7, maxExperienceScore)
	score += expScore
	details = append(details, fmt.Sprintf("Experience: %.0f/35 (%d positions)", expScore, len(profile.Experience)))

	// 教育：每条10分，上限20
	eduScore := minFloat(float64(len(profile.Education))*10, maxEducationScore)
	score += eduScore
	details = append(details, fmt.Sprintf("Education: %.0f/20 (%d qualifications)", eduScore, len(profile.Education)))

	// 联系方式：邮箱、电话各5分
	contactScore := 0.0
	if profile.Email != "" {
		contactScore += 5
	}
	if profile.Phone != "" {
		contactScore += 5
	}
	score += contactScore
	details = append(details, fmt.Sprintf("Contact Info: %.0f/10", contactScore))

	// 摘要：超过50字符得5分，按rune计数与抽取侧保持同一口径
	summaryScore := 0.0
	if utf8.RuneCountInString(profile.Summary) > summaryScoreMinLength {
		summaryScore = maxSummaryScore
	}
	score += summaryScore
	details = append(details, fmt.Sprintf("Summary: %.0f/5", summaryScore))

	// 岗位需求匹配加成：每条需求至多记一次命中（首个匹配技能胜出）
	// 加成与满分同时扩展，保证百分比仍然有意义
	if len(jobRequirements) > 0 {
		matched := countMatchedRequirements(profile.Skills, jobRequirements)
		bonus := float64(matched) / float64(len(jobRequirements)) * maxRequirementBonus
		score += bonus
		maxScore += maxRequirementBonus
		details = append(details, fmt.Sprintf("Job Match: %.1f/20 (%d/%d requirements)", bonus, matched, len(jobRequirements)))
	}

	percentage := score / maxScore * 100

	return &types.ScoreResult{
		Score:      score,
		MaxScore:   maxScore,
		Percentage: percentage,
		Grade:      gradeFor(percentage),
		Details:    details,
	}
}

// countMatchedRequirements 统计命中的需求条数
// 某条需求只要被任一技能大小写不敏感地包含即算命中一次
func countMatchedRequirements(skills []string, requirements []string) int {
	matched := 0
	for _, req := range requirements {
		reqLower := strings.ToLower(req)
		for _, skill := range skills {
			if strings.Contains(strings.ToLower(skill), reqLower) {
				matched++
				break
			}
		}
	}
	return matched
}

// gradeFor 按百分比映射等级，分界点 80/60/40
func gradeFor(percentage float64) string {
	switch {
	case percentage >= 80:
		return "A"
	case percentage >= 60:
		return "B"
	case percentage >= 40:
		return "C"
	default:
		return "D"
	}
}

// ExperienceLevel 按经历条数划分经验层级：0-2 entry，3-5 mid，>5 senior
func ExperienceLevel(experienceCount int) string {
	switch {
	case experienceCount <= 2:
		return "entry"
	case experienceCount <= 5:
		return "mid"
	default:
		return "senior"
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
