package types

// EntityLabelPerson 命名实体识别返回的人名标签
const EntityLabelPerson = "PERSON"

// Entity 命名实体识别器返回的单个实体
// Label 为实体类型（如 PERSON），Text 为原文片段
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// CandidateProfile 从简历文本中抽取出的结构化候选人记录
// 记录一旦创建即只读，ID 由存储层在创建时分配且不再变化
type CandidateProfile struct {
	ID string `json:"id,omitempty"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	// Skills 技能集合，保留词表中的规范大小写，已去重
	Skills []string `json:"skills"`

	// Education 包含教育关键词的原文行集合，已去重
	Education []string `json:"education"`

	// Experience 包含经历关键词的原文行，保持原始顺序，最多5条
	Experience []string `json:"experience"`

	// Summary 第一个长度超过50字符的段落
	Summary string `json:"summary"`
}

// ScoreResult 简历评分结果
type ScoreResult struct {
	Score      float64  `json:"score"`
	MaxScore   float64  `json:"max_score"`
	Percentage float64  `json:"percentage"`
	Grade      string   `json:"grade"`
	Details    []string `json:"details"`
}

// SimilarCandidate 相似度排名中的一条结果
type SimilarCandidate struct {
	Profile      *CandidateProfile `json:"profile"`
	Score        float64           `json:"score"`
	CommonSkills []string          `json:"common_skills"`
}

// SkillCount 技能分布中的一项
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// ExperienceDetail 经验层级分析中的单人明细
type ExperienceDetail struct {
	Name            string `json:"name"`
	Level           string `json:"level"`
	ExperienceCount int    `json:"experience_count"`
}

// ExperienceAnalysis 全库经验层级分析结果
type ExperienceAnalysis struct {
	Total   int                `json:"total"`
	Entry   int                `json:"entry"`
	Mid     int                `json:"mid"`
	Senior  int                `json:"senior"`
	Details []ExperienceDetail `json:"details"`
}

// CorpusStats 全库统计结果
// 空库时所有计数为0、所有均值为0.0，不产生除零错误
type CorpusStats struct {
	TotalCandidates int `json:"total_candidates"`

	WithSkills     int `json:"with_skills"`
	WithExperience int `json:"with_experience"`
	WithEducation  int `json:"with_education"`
	WithEmail      int `json:"with_email"`
	WithPhone      int `json:"with_phone"`

	AvgSkills     float64 `json:"avg_skills"`
	AvgExperience float64 `json:"avg_experience"`
	AvgEducation  float64 `json:"avg_education"`
}
