package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"resume-analyzer-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeProfile(skills, experience, education int, email, phone bool, summaryLen int) *types.CandidateProfile {
	p := &types.CandidateProfile{}
	for i := 0; i < skills; i++ {
		p.Skills = append(p.Skills, fmt.Sprintf("Skill%d", i))
	}
	for i := 0; i < experience; i++ {
		p.Experience = append(p.Experience, fmt.Sprintf("worked on thing %d", i))
	}
	for i := 0; i < education; i++ {
		p.Education = append(p.Education, fmt.Sprintf("Bachelor %d", i))
	}
	if email {
		p.Email = "a@b.com"
	}
	if phone {
		p.Phone = "1234567890"
	}
	for i := 0; i < summaryLen; i++ {
		p.Summary += "x"
	}
	return p
}

func TestScorePerfectProfile(t *testing.T) {
	// 10技能(封顶30) + 5经历(35) + 2教育(20) + 联系方式(10) + 摘要(5) = 100
	p := makeProfile(10, 5, 2, true, true, 60)
	result := Score(p, nil)
	require.NotNil(t, result)

	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, 100.0, result.MaxScore)
	assert.Equal(t, 100.0, result.Percentage)
	assert.Equal(t, "A", result.Grade)
	assert.Len(t, result.Details, 5)
}

func TestScoreEmptyProfile(t *testing.T) {
	result := Score(&types.CandidateProfile{}, nil)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 100.0, result.MaxScore)
	assert.Equal(t, "D", result.Grade)
}

func TestScoreComponentCaps(t *testing.T) {
	// 远超封顶值的输入不得突破各维度上限
	p := makeProfile(100, 100, 100, true, true, 200)
	result := Score(p, nil)
	assert.Equal(t, 100.0, result.Score)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, result.MaxScore)
}

func TestScoreSummaryBoundary(t *testing.T) {
	// 摘要恰好50字符不得分
	p := makeProfile(0, 0, 0, false, false, 50)
	result := Score(p, nil)
	assert.Equal(t, 0.0, result.Score)

	p = makeProfile(0, 0, 0, false, false, 51)
	result = Score(p, nil)
	assert.Equal(t, 5.0, result.Score)
}

func TestScoreSummaryCountsRunesNotBytes(t *testing.T) {
	// 20个汉字 = 60字节，字符数不足50不得摘要分
	p := &types.CandidateProfile{Summary: strings.Repeat("简", 20)}
	result := Score(p, nil)
	assert.Equal(t, 0.0, result.Score)

	p = &types.CandidateProfile{Summary: strings.Repeat("历", 51)}
	result = Score(p, nil)
	assert.Equal(t, 5.0, result.Score)
}

func TestScoreWithJobRequirements(t *testing.T) {
	p := &types.CandidateProfile{
		Skills:     []string{"Python", "Machine Learning", "Docker"},
		Email:      "a@b.com",
		Experience: []string{"worked"},
	}

	// 2/4 条需求命中 → 加成 10，满分扩展到 120
	result := Score(p, []string{"python", "machine", "Rust", "Haskell"})
	require.NotNil(t, result)
	assert.Equal(t, 120.0, result.MaxScore)
	// 3*3 + 1*7 + 5 + 10 = 31
	assert.InDelta(t, 31.0, result.Score, 1e-9)
	assert.Len(t, result.Details, 6)
}

func TestScoreEmptyRequirementsSameAsAbsent(t *testing.T) {
	p := makeProfile(3, 1, 1, true, false, 0)
	withNil := Score(p, nil)
	withEmpty := Score(p, []string{})
	assert.Equal(t, withNil, withEmpty)
}

func TestScoreRequirementMatchedAtMostOnce(t *testing.T) {
	p := &types.CandidateProfile{Skills: []string{"JavaScript", "Java"}}
	// "java" 被两个技能包含，但只记一次命中
	result := Score(p, []string{"java"})
	// 2*3 + 1/1*20 = 26
	assert.InDelta(t, 26.0, result.Score, 1e-9)
	assert.Equal(t, 120.0, result.MaxScore)
}

func TestGradeThresholds(t *testing.T) {
	cases := map[float64]string{
		100: "A", 80: "A", 79.9: "B", 60: "B", 59.9: "C", 40: "C", 39.9: "D", 0: "D",
	}
	for pct, want := range cases {
		assert.Equal(t, want, gradeFor(pct), "percentage=%v", pct)
	}
}

func TestExperienceLevelThresholds(t *testing.T) {
	assert.Equal(t, "entry", ExperienceLevel(0))
	assert.Equal(t, "entry", ExperienceLevel(2))
	assert.Equal(t, "mid", ExperienceLevel(3))
	assert.Equal(t, "mid", ExperienceLevel(5))
	assert.Equal(t, "senior", ExperienceLevel(6))
}
