package extractor

import "strings"

// 抽取用的固定词表，进程内只读，不要在运行期修改
// 统一在这里初始化一次，避免散落在各处的字面量
var (
	// skillVocabulary 已知技能词表，保留规范大小写用于输出
	skillVocabulary = []string{
		"Python", "Java", "SQL", "Excel", "C++", "Machine Learning",
		"Data Science", "TensorFlow", "Pandas", "Numpy", "Power BI",
		"React", "Node.js", "JavaScript", "HTML", "CSS", "MongoDB",
		"Flask", "Django", "AWS", "Docker", "Kubernetes", "Git",
	}

	// educationKeywords 教育背景关键词
	educationKeywords = []string{
		"B.Tech", "M.Tech", "Bachelor", "Master", "PhD", "BSc", "MSc", "MBA", "High School",
	}

	// experienceKeywords 工作经历关键词
	experienceKeywords = []string{
		"experience", "worked", "project", "internship", "job", "role", "position",
	}

	// 预先计算的小写形式，匹配按小写做，输出保留原始大小写
	skillVocabularyLower    []string
	educationKeywordsLower  []string
	experienceKeywordsLower []string
)

func init() {
	skillVocabularyLower = lowerAll(skillVocabulary)
	educationKeywordsLower = lowerAll(educationKeywords)
	experienceKeywordsLower = lowerAll(experienceKeywords)
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

// SkillVocabulary 返回技能词表的副本，调用方可以安全持有
func SkillVocabulary() []string {
	out := make([]string, len(skillVocabulary))
	copy(out, skillVocabulary)
	return out
}
