package handler

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/storage/models"
)

// submissionReader 投递记录的读取能力
type submissionReader interface {
	GetResumeSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error)
}

// parsedTextReader 归档解析文本的读取能力
type parsedTextReader interface {
	GetParsedText(ctx context.Context, objectKey string) (string, error)
}

// SubmissionDetail 单次投递的处理状态与解析产物
type SubmissionDetail struct {
	SubmissionUUID   string    `json:"submission_uuid"`
	ProcessingStatus string    `json:"processing_status"`
	OriginalFilename string    `json:"original_filename"`
	CandidateID      string    `json:"candidate_id,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at"`
	ParsedText       string    `json:"parsed_text,omitempty"`
}

// SubmissionHandler 投递状态查询接口
// 上传方拿着submission_uuid轮询处理进度，完成后可以取回解析文本
type SubmissionHandler struct {
	db      submissionReader
	objects parsedTextReader
}

// NewSubmissionHandler 创建投递查询处理器
func NewSubmissionHandler(store *storage.Storage) *SubmissionHandler {
	return &SubmissionHandler{
		db:      store.MySQL,
		objects: store.MinIO,
	}
}

// fetchSubmission 组装投递详情，解析文本读取失败只降级不报错
func (h *SubmissionHandler) fetchSubmission(ctx context.Context, submissionUUID string) (*SubmissionDetail, error) {
	submission, err := h.db.GetResumeSubmission(ctx, submissionUUID)
	if err != nil {
		return nil, err
	}

	detail := &SubmissionDetail{
		SubmissionUUID:   submission.SubmissionUUID,
		ProcessingStatus: submission.ProcessingStatus,
		OriginalFilename: submission.OriginalFilename,
		SubmittedAt:      submission.SubmissionTimestamp,
	}
	if submission.CandidateID != nil {
		detail.CandidateID = *submission.CandidateID
	}

	if submission.ParsedTextPathOSS != "" {
		text, err := h.objects.GetParsedText(ctx, submission.ParsedTextPathOSS)
		if err != nil {
			logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("读取归档解析文本失败")
		} else {
			detail.ParsedText = text
		}
	}

	return detail, nil
}

// Get GET /api/v1/submissions/:uuid
func (h *SubmissionHandler) Get(c context.Context, ctx *app.RequestContext) {
	submissionUUID := ctx.Param("uuid")
	if submissionUUID == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "缺少投递UUID"})
		return
	}

	detail, err := h.fetchSubmission(c, submissionUUID)
	if err != nil {
		if errors.Is(err, storage.ErrSubmissionNotFound) {
			ctx.JSON(consts.StatusNotFound, utils.H{"error": "投递记录不存在", "submission_uuid": submissionUUID})
			return
		}
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	ctx.JSON(consts.StatusOK, detail)
}
