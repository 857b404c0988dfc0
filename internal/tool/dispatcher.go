package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"resume-analyzer-go/internal/analyzer"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/storage/models"
	"resume-analyzer-go/internal/types"
)

// ErrUnknownTool 请求了未注册的工具名
var ErrUnknownTool = errors.New("未知工具")

// 各工具的默认参数值
const (
	defaultListLimit    = 10
	defaultSearchLimit  = 5
	defaultTopSkills    = 10
	defaultSimilarLimit = 3
	corpusBatchSize     = 200
)

// CandidateStore 工具层消费的候选人存储接口
type CandidateStore interface {
	GetCandidateByID(ctx context.Context, candidateID string) (*models.Candidate, error)
	ListCandidates(ctx context.Context, offset, limit int) ([]models.Candidate, error)
	SearchCandidatesBySkill(ctx context.Context, skill string) ([]models.Candidate, error)
	SearchCandidatesByName(ctx context.Context, name string, exact bool) ([]models.Candidate, error)
	ForEachCandidateBatch(ctx context.Context, batchSize int, fn func(batch []models.Candidate) error) error
}

type handlerFunc func(ctx context.Context, args Args) (string, error)

// Dispatcher 固定工具集的分发器
// 所有工具返回人类可读的格式化文本，结构化计算在analyzer包完成
type Dispatcher struct {
	store    CandidateStore
	handlers map[string]handlerFunc
}

// NewDispatcher 创建工具分发器
func NewDispatcher(store CandidateStore) *Dispatcher {
	d := &Dispatcher{store: store}
	d.handlers = map[string]handlerFunc{
		"list_candidates":     d.listCandidates,
		"get_candidate":       d.getCandidate,
		"search_by_skill":     d.searchBySkill,
		"search_by_name":      d.searchByName,
		"skills_distribution": d.skillsDistribution,
		"experience_analysis": d.experienceAnalysis,
		"score_candidate":     d.scoreCandidate,
		"compare_candidates":  d.compareCandidates,
		"find_similar":        d.findSimilar,
		"corpus_stats":        d.corpusStats,
	}
	return d
}

// Names 返回全部工具名，按字典序
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch 执行指定工具并返回格式化文本
// 未注册的工具名返回ErrUnknownTool，参数校验失败返回描述性错误
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args Args) (string, error) {
	handler, ok := d.handlers[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = Args{}
	}
	return handler(ctx, args)
}

// ---- 工具实现 ----

func (d *Dispatcher) listCandidates(ctx context.Context, args Args) (string, error) {
	limit := args.Int("limit", defaultListLimit)

	candidates, err := d.store.ListCandidates(ctx, 0, limit)
	if err != nil {
		return "", fmt.Errorf("列出候选人失败: %w", err)
	}
	if len(candidates) == 0 {
		return "No candidates found in the database.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Found %d candidates:**\n\n", len(candidates))
	for i, candidate := range candidates {
		profile, err := candidate.ToProfile()
		if err != nil {
			return "", fmt.Errorf("解析候选人 %s 失败: %w", candidate.CandidateID, err)
		}
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, displayName(profile.Name))
		fmt.Fprintf(&b, "   Email: %s\n", valueOrNA(profile.Email))
		fmt.Fprintf(&b, "   Skills: %d\n", len(profile.Skills))
		fmt.Fprintf(&b, "   Experience: %d\n", len(profile.Experience))
		fmt.Fprintf(&b, "   ID: %s\n\n", profile.ID)
	}
	return b.String(), nil
}

func (d *Dispatcher) getCandidate(ctx context.Context, args Args) (string, error) {
	candidateID, err := args.RequiredString("candidate_id")
	if err != nil {
		return "", err
	}

	profile, found, err := d.loadProfile(ctx, candidateID)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("Candidate with ID %s not found.", candidateID), nil
	}
	return FormatCandidate(profile), nil
}

func (d *Dispatcher) searchBySkill(ctx context.Context, args Args) (string, error) {
	skill, err := args.RequiredString("skill")
	if err != nil {
		return "", err
	}
	limit := args.Int("limit", defaultSearchLimit)

	candidates, err := d.store.SearchCandidatesBySkill(ctx, skill)
	if err != nil {
		return "", fmt.Errorf("按技能搜索失败: %w", err)
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return fmt.Sprintf("No candidates found with skill: %s", skill), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Found %d candidates with skill '%s':**\n\n", len(candidates), skill)
	for i, candidate := range candidates {
		profile, err := candidate.ToProfile()
		if err != nil {
			return "", fmt.Errorf("解析候选人 %s 失败: %w", candidate.CandidateID, err)
		}
		matching := matchingSkills(profile.Skills, skill)
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, displayName(profile.Name))
		fmt.Fprintf(&b, "   Email: %s\n", valueOrNA(profile.Email))
		fmt.Fprintf(&b, "   Matching skills: %s\n", strings.Join(matching, ", "))
		fmt.Fprintf(&b, "   ID: %s\n\n", profile.ID)
	}
	return b.String(), nil
}

func (d *Dispatcher) searchByName(ctx context.Context, args Args) (string, error) {
	name, err := args.RequiredString("name")
	if err != nil {
		return "", err
	}
	exact := args.Bool("exact", false)

	candidates, err := d.store.SearchCandidatesByName(ctx, name, exact)
	if err != nil {
		return "", fmt.Errorf("按姓名搜索失败: %w", err)
	}
	if len(candidates) == 0 {
		return fmt.Sprintf("No candidates found for name: %s", name), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Found %d candidate(s) for '%s':**\n\n", len(candidates), name)
	for _, candidate := range candidates {
		profile, err := candidate.ToProfile()
		if err != nil {
			return "", fmt.Errorf("解析候选人 %s 失败: %w", candidate.CandidateID, err)
		}
		b.WriteString(FormatCandidate(profile))
		b.WriteString("\n" + strings.Repeat("=", 50) + "\n\n")
	}
	return b.String(), nil
}

func (d *Dispatcher) skillsDistribution(ctx context.Context, args Args) (string, error) {
	topN := args.Int("top_n", defaultTopSkills)

	corpus, err := d.loadCorpus(ctx)
	if err != nil {
		return "", err
	}

	dist := analyzer.SkillDistribution(corpus, topN)
	if len(dist) == 0 {
		return "No skills data found.", nil
	}

	total := len(corpus)
	var b strings.Builder
	fmt.Fprintf(&b, "**Top %d Skills Distribution** (from %d candidates):\n\n", len(dist), total)
	for i, entry := range dist {
		percentage := float64(entry.Count) / float64(total) * 100
		fmt.Fprintf(&b, "%2d. **%s**: %d candidates (%.1f%%)\n", i+1, entry.Skill, entry.Count, percentage)
	}
	return b.String(), nil
}

func (d *Dispatcher) experienceAnalysis(ctx context.Context, _ Args) (string, error) {
	corpus, err := d.loadCorpus(ctx)
	if err != nil {
		return "", err
	}
	if len(corpus) == 0 {
		return "No candidates found for analysis.", nil
	}

	analysis := analyzer.AnalyzeExperience(corpus)
	total := float64(analysis.Total)

	var b strings.Builder
	fmt.Fprintf(&b, "**Experience Level Analysis** (%d candidates):\n\n", analysis.Total)
	fmt.Fprintf(&b, "**Entry Level**: %d (%.1f%%)\n", analysis.Entry, float64(analysis.Entry)/total*100)
	fmt.Fprintf(&b, "**Mid Level**: %d (%.1f%%)\n", analysis.Mid, float64(analysis.Mid)/total*100)
	fmt.Fprintf(&b, "**Senior Level**: %d (%.1f%%)\n\n", analysis.Senior, float64(analysis.Senior)/total*100)

	b.WriteString("**Detailed Breakdown:**\n")
	for _, detail := range analysis.Details {
		fmt.Fprintf(&b, "• %s: %s (%d positions)\n", displayName(detail.Name), titleCase(detail.Level), detail.ExperienceCount)
	}
	return b.String(), nil
}

func (d *Dispatcher) scoreCandidate(ctx context.Context, args Args) (string, error) {
	candidateID, err := args.RequiredString("candidate_id")
	if err != nil {
		return "", err
	}
	jobRequirements := args.StringSlice("job_requirements")

	profile, found, err := d.loadProfile(ctx, candidateID)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("Candidate with ID %s not found.", candidateID), nil
	}

	result := analyzer.Score(profile, jobRequirements)

	var b strings.Builder
	fmt.Fprintf(&b, "**Candidate Score for %s**\n\n", displayName(profile.Name))
	fmt.Fprintf(&b, "**Overall Score**: %.1f/%.0f (%.1f%%)\n", result.Score, result.MaxScore, result.Percentage)
	fmt.Fprintf(&b, "**Grade**: %s\n\n", result.Grade)
	b.WriteString("**Score Breakdown:**\n")
	for _, detail := range result.Details {
		fmt.Fprintf(&b, "• %s\n", detail)
	}
	if len(jobRequirements) > 0 {
		fmt.Fprintf(&b, "\n**Job Requirements Analyzed**: %s", strings.Join(jobRequirements, ", "))
	}
	return b.String(), nil
}

func (d *Dispatcher) compareCandidates(ctx context.Context, args Args) (string, error) {
	id1, err := args.RequiredString("candidate_id1")
	if err != nil {
		return "", err
	}
	id2, err := args.RequiredString("candidate_id2")
	if err != nil {
		return "", err
	}

	profile1, found, err := d.loadProfile(ctx, id1)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("Candidate 1 with ID %s not found.", id1), nil
	}
	profile2, found, err := d.loadProfile(ctx, id2)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("Candidate 2 with ID %s not found.", id2), nil
	}

	score1 := analyzer.Score(profile1, nil)
	score2 := analyzer.Score(profile2, nil)

	var b strings.Builder
	b.WriteString("**Candidate Comparison**\n\n")
	writeComparisonEntry(&b, 1, profile1, score1)
	writeComparisonEntry(&b, 2, profile2, score2)

	// 百分比相同时报平局，不挑选任意赢家
	switch {
	case score1.Percentage > score2.Percentage:
		fmt.Fprintf(&b, "**Winner**: %s (by %.1f%%)", displayName(profile1.Name), score1.Percentage-score2.Percentage)
	case score2.Percentage > score1.Percentage:
		fmt.Fprintf(&b, "**Winner**: %s (by %.1f%%)", displayName(profile2.Name), score2.Percentage-score1.Percentage)
	default:
		b.WriteString("**Result**: Tie!")
	}

	common := analyzer.CommonSkills(profile1, profile2)
	if len(common) > 0 {
		fmt.Fprintf(&b, "\n\n**Common Skills**: %s", strings.Join(common, ", "))
	}
	return b.String(), nil
}

func (d *Dispatcher) findSimilar(ctx context.Context, args Args) (string, error) {
	candidateID, err := args.RequiredString("candidate_id")
	if err != nil {
		return "", err
	}
	limit := args.Int("limit", defaultSimilarLimit)

	ref, found, err := d.loadProfile(ctx, candidateID)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("Reference candidate with ID %s not found.", candidateID), nil
	}
	if len(ref.Skills) == 0 {
		return "Reference candidate has no skills to compare against.", nil
	}

	corpus, err := d.loadCorpus(ctx)
	if err != nil {
		return "", err
	}

	similar := analyzer.RankSimilar(ref, corpus, limit)
	if len(similar) == 0 {
		return "No similar candidates found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Similar Candidates to %s**\n\n", displayName(ref.Name))
	fmt.Fprintf(&b, "**Reference Skills**: %s\n\n", strings.Join(ref.Skills, ", "))
	for i, entry := range similar {
		fmt.Fprintf(&b, "**%d. %s** (Similarity: %.1f%%)\n", i+1, displayName(entry.Profile.Name), entry.Score*100)
		fmt.Fprintf(&b, "   Email: %s\n", valueOrNA(entry.Profile.Email))
		fmt.Fprintf(&b, "   Common Skills: %s\n", strings.Join(entry.CommonSkills, ", "))
		fmt.Fprintf(&b, "   ID: %s\n\n", entry.Profile.ID)
	}
	return b.String(), nil
}

func (d *Dispatcher) corpusStats(ctx context.Context, _ Args) (string, error) {
	corpus, err := d.loadCorpus(ctx)
	if err != nil {
		return "", err
	}
	if len(corpus) == 0 {
		return "Database is empty.", nil
	}

	stats := analyzer.ComputeCorpusStats(corpus)
	total := float64(stats.TotalCandidates)

	var b strings.Builder
	b.WriteString("**Candidate Database Statistics**\n\n")
	fmt.Fprintf(&b, "**Total Candidates**: %d\n\n", stats.TotalCandidates)

	b.WriteString("**Data Completeness:**\n")
	fmt.Fprintf(&b, "• Candidates with Skills: %d (%.1f%%)\n", stats.WithSkills, float64(stats.WithSkills)/total*100)
	fmt.Fprintf(&b, "• Candidates with Experience: %d (%.1f%%)\n", stats.WithExperience, float64(stats.WithExperience)/total*100)
	fmt.Fprintf(&b, "• Candidates with Education: %d (%.1f%%)\n", stats.WithEducation, float64(stats.WithEducation)/total*100)
	fmt.Fprintf(&b, "• Candidates with Email: %d (%.1f%%)\n", stats.WithEmail, float64(stats.WithEmail)/total*100)
	fmt.Fprintf(&b, "• Candidates with Phone: %d (%.1f%%)\n\n", stats.WithPhone, float64(stats.WithPhone)/total*100)

	b.WriteString("**Averages per Candidate:**\n")
	fmt.Fprintf(&b, "• Skills: %.1f\n", stats.AvgSkills)
	fmt.Fprintf(&b, "• Experience Positions: %.1f\n", stats.AvgExperience)
	fmt.Fprintf(&b, "• Education Entries: %.1f\n", stats.AvgEducation)
	return b.String(), nil
}

// ---- 辅助 ----

// loadProfile 按ID加载候选人档案，not-found作为独立结果而非错误返回
func (d *Dispatcher) loadProfile(ctx context.Context, candidateID string) (*types.CandidateProfile, bool, error) {
	candidate, err := d.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, storage.ErrCandidateNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("查询候选人失败: %w", err)
	}
	profile, err := candidate.ToProfile()
	if err != nil {
		return nil, false, fmt.Errorf("解析候选人 %s 失败: %w", candidateID, err)
	}
	return profile, true, nil
}

// loadCorpus 分批加载全库候选人档案，供全库分析使用
// 扫描期间的并发写入不保证出现在快照中
func (d *Dispatcher) loadCorpus(ctx context.Context) ([]*types.CandidateProfile, error) {
	corpus := []*types.CandidateProfile{}
	err := d.store.ForEachCandidateBatch(ctx, corpusBatchSize, func(batch []models.Candidate) error {
		for i := range batch {
			profile, err := batch[i].ToProfile()
			if err != nil {
				return fmt.Errorf("解析候选人 %s 失败: %w", batch[i].CandidateID, err)
			}
			corpus = append(corpus, profile)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("加载候选人语料失败: %w", err)
	}
	return corpus, nil
}

// matchingSkills 返回包含搜索词的技能（大小写不敏感）
func matchingSkills(skills []string, query string) []string {
	queryLower := strings.ToLower(query)
	matched := []string{}
	for _, skill := range skills {
		if strings.Contains(strings.ToLower(skill), queryLower) {
			matched = append(matched, skill)
		}
	}
	return matched
}

func writeComparisonEntry(b *strings.Builder, index int, profile *types.CandidateProfile, score *types.ScoreResult) {
	fmt.Fprintf(b, "**Candidate %d: %s**\n", index, displayName(profile.Name))
	fmt.Fprintf(b, "Score: %.1f/%.0f (%.1f%%) - Grade %s\n", score.Score, score.MaxScore, score.Percentage, score.Grade)
	fmt.Fprintf(b, "Skills: %d\n", len(profile.Skills))
	fmt.Fprintf(b, "Experience: %d\n", len(profile.Experience))
	fmt.Fprintf(b, "Education: %d\n\n", len(profile.Education))
}
