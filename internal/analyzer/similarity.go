package analyzer

import (
	"sort"

	"resume-analyzer-go/internal/types"
)

// Similarity 计算两份记录技能集合的Jaccard相似度：|交集| / |并集|
// 并集为空时相似度未定义，返回 ok=false，调用方应将其视为"无相似度"而非错误
func Similarity(a, b *types.CandidateProfile) (score float64, ok bool) {
	setA := toSkillSet(a.Skills)
	setB := toSkillSet(b.Skills)

	union := len(setA)
	intersection := 0
	for skill := range setB {
		if _, hit := setA[skill]; hit {
			intersection++
		} else {
			union++
		}
	}

	// 除零保护：两边技能都为空时没有可比性
	if union == 0 {
		return 0, false
	}
	return float64(intersection) / float64(union), true
}

// CommonSkills 返回两份记录的公共技能，保持参照记录的技能顺序
func CommonSkills(ref, other *types.CandidateProfile) []string {
	otherSet := toSkillSet(other.Skills)
	common := []string{}
	for _, skill := range ref.Skills {
		if _, hit := otherSet[skill]; hit {
			common = append(common, skill)
		}
	}
	return common
}

// RankSimilar 在语料库中为参照记录找出最相似的若干条
// 排除自身与非正分，按相似度降序稳定排序（同分保持语料库迭代顺序），截断到limit
func RankSimilar(ref *types.CandidateProfile, corpus []*types.CandidateProfile, limit int) []types.SimilarCandidate {
	ranked := []types.SimilarCandidate{}
	for _, candidate := range corpus {
		if candidate.ID != "" && candidate.ID == ref.ID {
			continue
		}
		score, ok := Similarity(ref, candidate)
		if !ok || score <= 0 {
			continue
		}
		ranked = append(ranked, types.SimilarCandidate{
			Profile:      candidate,
			Score:        score,
			CommonSkills: CommonSkills(ref, candidate),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func toSkillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		set[s] = struct{}{}
	}
	return set
}
