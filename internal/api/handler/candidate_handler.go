package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/storage/models"
	"resume-analyzer-go/internal/types"
)

// 列表接口的默认与上限分页参数
const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// candidateReader 读取候选人记录的存储能力
type candidateReader interface {
	GetCandidateByID(ctx context.Context, candidateID string) (*models.Candidate, error)
	ListCandidates(ctx context.Context, offset, limit int) ([]models.Candidate, error)
	CountCandidates(ctx context.Context) (int64, error)
}

// CandidateHandler 候选人只读API
// 记录创建后不可变，读接口无需任何锁或事务
type CandidateHandler struct {
	store candidateReader
}

// NewCandidateHandler 创建候选人查询处理器
func NewCandidateHandler(store candidateReader) *CandidateHandler {
	return &CandidateHandler{store: store}
}

// List GET /api/v1/candidates?offset=0&limit=20
func (h *CandidateHandler) List(c context.Context, ctx *app.RequestContext) {
	offset := parseIntQuery(ctx, "offset", 0)
	limit := parseIntQuery(ctx, "limit", defaultPageLimit)
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	candidates, err := h.store.ListCandidates(c, offset, limit)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	total, err := h.store.CountCandidates(c)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	profiles := make([]*types.CandidateProfile, 0, len(candidates))
	for i := range candidates {
		profile, err := candidates[i].ToProfile()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		profiles = append(profiles, profile)
	}

	ctx.JSON(consts.StatusOK, utils.H{
		"total":      total,
		"offset":     offset,
		"limit":      limit,
		"candidates": profiles,
	})
}

// Get GET /api/v1/candidates/:id
// 未命中的ID返回404，作为独立结果而非服务端错误
func (h *CandidateHandler) Get(c context.Context, ctx *app.RequestContext) {
	candidateID := ctx.Param("id")
	if candidateID == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "缺少候选人ID"})
		return
	}

	candidate, err := h.store.GetCandidateByID(c, candidateID)
	if err != nil {
		if errors.Is(err, storage.ErrCandidateNotFound) {
			ctx.JSON(consts.StatusNotFound, utils.H{"error": "候选人不存在", "candidate_id": candidateID})
			return
		}
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	profile, err := candidate.ToProfile()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusOK, profile)
}

func parseIntQuery(ctx *app.RequestContext, key string, def int) int {
	raw := ctx.Query(key)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
