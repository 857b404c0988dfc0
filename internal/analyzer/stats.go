package analyzer

import (
	"sort"

	"resume-analyzer-go/internal/types"
)

// SkillDistribution 统计每个技能出现在多少份记录中
// 按计数降序排列，同计数按技能首次出现的顺序；topN<=0 表示不截断
// 每次调用都重新计算，不做任何缓存
func SkillDistribution(corpus []*types.CandidateProfile, topN int) []types.SkillCount {
	counts := make(map[string]int)
	order := []string{}
	for _, profile := range corpus {
		for _, skill := range profile.Skills {
			if _, seen := counts[skill]; !seen {
				order = append(order, skill)
			}
			counts[skill]++
		}
	}

	dist := make([]types.SkillCount, 0, len(order))
	for _, skill := range order {
		dist = append(dist, types.SkillCount{Skill: skill, Count: counts[skill]})
	}

	// 稳定排序保证同计数技能保持首次出现顺序
	sort.SliceStable(dist, func(i, j int) bool {
		return dist[i].Count > dist[j].Count
	})

	if topN > 0 && len(dist) > topN {
		dist = dist[:topN]
	}
	return dist
}

// AnalyzeExperience 对全库做经验层级分析
// 明细按经历条数降序排列（稳定，同数保持语料库顺序）
func AnalyzeExperience(corpus []*types.CandidateProfile) *types.ExperienceAnalysis {
	analysis := &types.ExperienceAnalysis{
		Total:   len(corpus),
		Details: make([]types.ExperienceDetail, 0, len(corpus)),
	}

	for _, profile := range corpus {
		level := ExperienceLevel(len(profile.Experience))
		switch level {
		case "entry":
			analysis.Entry++
		case "mid":
			analysis.Mid++
		default:
			analysis.Senior++
		}
		analysis.Details = append(analysis.Details, types.ExperienceDetail{
			Name:            profile.Name,
			Level:           level,
			ExperienceCount: len(profile.Experience),
		})
	}

	sort.SliceStable(analysis.Details, func(i, j int) bool {
		return analysis.Details[i].ExperienceCount > analysis.Details[j].ExperienceCount
	})

	return analysis
}

// ComputeCorpusStats 计算全库完整度与均值统计
// 空库时返回全零结果，除法有显式保护，绝不产生除零错误
func ComputeCorpusStats(corpus []*types.CandidateProfile) *types.CorpusStats {
	stats := &types.CorpusStats{TotalCandidates: len(corpus)}
	if len(corpus) == 0 {
		return stats
	}

	totalSkills := 0
	totalExperience := 0
	totalEducation := 0
	for _, profile := range corpus {
		if len(profile.Skills) > 0 {
			stats.WithSkills++
		}
		if len(profile.Experience) > 0 {
			stats.WithExperience++
		}
		if len(profile.Education) > 0 {
			stats.WithEducation++
		}
		if profile.Email != "" {
			stats.WithEmail++
		}
		if profile.Phone != "" {
			stats.WithPhone++
		}
		totalSkills += len(profile.Skills)
		totalExperience += len(profile.Experience)
		totalEducation += len(profile.Education)
	}

	n := float64(len(corpus))
	stats.AvgSkills = float64(totalSkills) / n
	stats.AvgExperience = float64(totalExperience) / n
	stats.AvgEducation = float64(totalEducation) / n
	return stats
}
