package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/storage/models"
)

// ErrInvalidUpload 上传请求验证失败
var ErrInvalidUpload = errors.New("非法的上传请求")

// uploadObjectStore 上传所需的对象存储能力
type uploadObjectStore interface {
	UploadResumeFileStreaming(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)
	DeleteFile(ctx context.Context, objectName string) error
}

// uploadDedupStore 文件级去重能力，可以缺失
type uploadDedupStore interface {
	CheckAndAddRawFileMD5(ctx context.Context, md5Hex string) (bool, error)
	CheckAndSetMD5(ctx context.Context, md5 string, submissionUUID string) (bool, string, error)
	RemoveRawFileMD5(ctx context.Context, md5 string) error
	RemoveMD5Mapping(ctx context.Context, md5 string) error
}

// uploadPublisher 摄取事件发布能力
type uploadPublisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// submissionWriter 投递记录的写入能力
type submissionWriter interface {
	CreateResumeSubmission(ctx context.Context, submission *models.ResumeSubmission) error
}

// UploadResponse 简历上传响应
type UploadResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
}

// UploadHandler 简历上传边界
// 验证文件、暂存到MinIO、记录投递并发布摄取事件
type UploadHandler struct {
	cfg       *config.Config
	objects   uploadObjectStore
	dedup     uploadDedupStore
	publisher uploadPublisher
	db        submissionWriter
}

// NewUploadHandler 创建上传处理器
func NewUploadHandler(cfg *config.Config, store *storage.Storage) *UploadHandler {
	h := &UploadHandler{
		cfg:       cfg,
		objects:   store.MinIO,
		publisher: store.RabbitMQ,
		db:        store.MySQL,
	}
	if store.Redis != nil {
		h.dedup = store.Redis
	}
	return h
}

// HandleResumeUpload 处理一次简历上传
// 验证 -> 流式上传MinIO(同时计算MD5) -> 去重 -> 写投递记录 -> 发布消息
// 任一落库/发布步骤失败时回收已上传的暂存对象和去重记录
func (h *UploadHandler) HandleResumeUpload(ctx context.Context, reader io.Reader, fileSize int64, filename string) (*UploadResponse, error) {
	if err := h.validateUpload(fileSize, filename); err != nil {
		return nil, err
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := uuidV7.String()

	ext := strings.ToLower(filepath.Ext(filename))

	// 流式上传，边传边算MD5，避免把整个文件读进内存
	objectKey, md5Hex, err := h.objects.UploadResumeFileStreaming(ctx, submissionUUID, ext, reader, fileSize)
	if err != nil {
		return nil, fmt.Errorf("上传简历到MinIO失败: %w", err)
	}

	if h.dedup != nil {
		exists, err := h.dedup.CheckAndAddRawFileMD5(ctx, md5Hex)
		if err != nil {
			// 去重是锦上添花，Redis故障时继续主流程
			logger.Warn().Err(err).Str("md5", md5Hex).Msg("检查文件MD5重复性失败，跳过去重")
		} else if exists {
			logger.Info().Str("md5", md5Hex).Str("filename", filename).Msg("检测到重复文件，跳过处理")
			if err := h.objects.DeleteFile(ctx, objectKey); err != nil {
				logger.Warn().Err(err).Str("object_key", objectKey).Msg("删除重复文件的暂存对象失败")
			}
			return &UploadResponse{
				Status:  constants.StatusDuplicateFileSkipped,
				Message: "该文件此前已上传，跳过重复处理",
			}, nil
		}

		// 记录MD5到投递UUID的映射，便于追踪重复来源
		if _, _, err := h.dedup.CheckAndSetMD5(ctx, md5Hex, submissionUUID); err != nil {
			logger.Warn().Err(err).Str("md5", md5Hex).Msg("记录MD5到投递UUID映射失败")
		}
	}

	submission := &models.ResumeSubmission{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: time.Now(),
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          md5Hex,
		ProcessingStatus:    constants.StatusPendingParsing,
	}
	if err := h.db.CreateResumeSubmission(ctx, submission); err != nil {
		h.rollbackUpload(ctx, objectKey, md5Hex)
		return nil, fmt.Errorf("写入投递记录失败: %w", err)
	}

	message := storage.ResumeUploadMessage{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: submission.SubmissionTimestamp,
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          md5Hex,
	}
	if err := h.publisher.PublishJSON(ctx, h.cfg.RabbitMQ.ResumeEventsExchange, h.cfg.RabbitMQ.UploadedRoutingKey, message, true); err != nil {
		h.rollbackUpload(ctx, objectKey, md5Hex)
		return nil, fmt.Errorf("发布上传事件失败: %w", err)
	}

	return &UploadResponse{
		SubmissionUUID: submissionUUID,
		Status:         constants.StatusSubmittedForProcessing,
	}, nil
}

// validateUpload 校验文件名与大小
func (h *UploadHandler) validateUpload(fileSize int64, filename string) error {
	if filename == "" {
		return fmt.Errorf("%w: 缺少文件名", ErrInvalidUpload)
	}
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return fmt.Errorf("%w: 仅支持PDF文件", ErrInvalidUpload)
	}
	if fileSize <= 0 {
		return fmt.Errorf("%w: 上传文件为空", ErrInvalidUpload)
	}
	maxBytes := int64(h.cfg.Upload.MaxFileSizeMB) * 1024 * 1024
	if maxBytes > 0 && fileSize > maxBytes {
		return fmt.Errorf("%w: 文件大小超过%dMB限制", ErrInvalidUpload, h.cfg.Upload.MaxFileSizeMB)
	}
	return nil
}

// rollbackUpload 回收暂存对象与去重记录，保证失败时不留下孤儿资源
func (h *UploadHandler) rollbackUpload(ctx context.Context, objectKey, md5Hex string) {
	if err := h.objects.DeleteFile(ctx, objectKey); err != nil {
		logger.Warn().Err(err).Str("object_key", objectKey).Msg("回收暂存对象失败")
	}
	if h.dedup == nil {
		return
	}
	if err := h.dedup.RemoveRawFileMD5(ctx, md5Hex); err != nil {
		logger.Warn().Err(err).Str("md5", md5Hex).Msg("回滚文件MD5去重记录失败")
	}
	if err := h.dedup.RemoveMD5Mapping(ctx, md5Hex); err != nil {
		logger.Warn().Err(err).Str("md5", md5Hex).Msg("回滚MD5映射失败")
	}
}

// Upload Hertz路由适配，接收multipart表单中的file字段
func (h *UploadHandler) Upload(c context.Context, ctx *app.RequestContext) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	resp, err := h.HandleResumeUpload(c, file, fileHeader.Size, fileHeader.Filename)
	if err != nil {
		if errors.Is(err, ErrInvalidUpload) {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}

	ctx.JSON(consts.StatusOK, resp)
}
