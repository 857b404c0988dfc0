package processor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/storage/models"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

var tracer = otel.Tracer("resume-analyzer-go/processor")

// ingestComponents 聚合摄取流水线的所有外部依赖
type ingestComponents struct {
	DB           SubmissionStore
	Objects      ResumeObjectStore
	Dedup        DedupStore
	PDFExtractor PDFExtractor
	Recognizer   EntityRecognizer
}

// Ingestor 简历摄取流水线
// 消费上传事件: 下载原件 -> 提取文本 -> 实体识别 -> 结构化抽取 -> 落库
type Ingestor struct {
	cfg        *config.Config
	components ingestComponents
}

// NewIngestor 创建摄取流水线
// Redis可以缺失（去重回滚降级为空操作），其余组件必须就绪
func NewIngestor(cfg *config.Config, store *storage.Storage, pdfExtractor PDFExtractor, recognizer EntityRecognizer) (*Ingestor, error) {
	if store == nil || store.MySQL == nil || store.MinIO == nil {
		return nil, ErrStorageNotInit
	}
	if pdfExtractor == nil {
		return nil, ErrExtractorNotInit
	}
	if recognizer == nil {
		return nil, ErrRecognizerNotInit
	}

	ing := &Ingestor{
		cfg: cfg,
		components: ingestComponents{
			DB:           store.MySQL,
			Objects:      store.MinIO,
			PDFExtractor: pdfExtractor,
			Recognizer:   recognizer,
		},
	}
	if store.Redis != nil {
		ing.components.Dedup = store.Redis
	}
	return ing, nil
}

// ProcessUploadedResume 处理一条上传事件
// 任何退出路径（成功或失败）都会删除暂存的原件对象，失败路径还会回滚MD5去重记录
func (ing *Ingestor) ProcessUploadedResume(ctx context.Context, message storage.ResumeUploadMessage) error {
	ctx, span := tracer.Start(ctx, "ProcessUploadedResume",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	// 文件名常含候选人姓名，上报前掩码
	span.SetAttributes(
		attribute.String("submission_uuid", message.SubmissionUUID),
		attribute.String("original_filename",
			tracing.SafeAttributeValue("original_filename", message.OriginalFilename, tracing.DefaultMaxLength)),
	)

	ctx = logger.WithSubmissionUUID(ctx, message.SubmissionUUID)
	log := logger.FromContext(ctx)
	log.Debug().Msg("开始处理上传的简历")

	// 暂存原件是中间产物，无论成败都要释放
	defer func() {
		if message.OriginalFilePathOSS == "" {
			return
		}
		if err := ing.components.Objects.DeleteFile(ctx, message.OriginalFilePathOSS); err != nil {
			log.Warn().Err(err).Str("object_key", message.OriginalFilePathOSS).Msg("删除暂存原件失败")
		}
	}()

	if err := ing.components.DB.UpdateResumeProcessingStatus(ctx, message.SubmissionUUID, constants.StatusPendingParsing); err != nil {
		// 状态更新失败不中断流水线，只影响可观测性
		log.Warn().Err(err).Msg("更新初始处理状态失败")
	}

	// 1. 从MinIO下载暂存原件
	fileBytes, err := ing.components.Objects.GetResumeFile(ctx, message.OriginalFilePathOSS)
	if err != nil {
		log.Error().Err(err).Msg("从MinIO下载简历原件失败")
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeExternal,
			attribute.String("object_key", message.OriginalFilePathOSS))
		return ing.failSubmission(ctx, message, constants.StatusStorageFailed, err)
	}
	span.SetAttributes(attribute.Int("file_size_bytes", len(fileBytes)))

	// 2. 提取文本
	ctx, extractSpan := tracer.Start(ctx, "ExtractResumeText")
	text, _, err := ing.components.PDFExtractor.ExtractTextFromBytes(ctx, fileBytes, message.OriginalFilePathOSS, nil)
	extractSpan.End()
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyDocument
	}
	if err != nil {
		log.Error().Err(err).Msg("提取简历文本失败")
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return ing.failSubmission(ctx, message, constants.StatusTextExtractionFailed, err)
	}
	span.SetAttributes(
		attribute.Int("text_length", len(text)),
		attribute.String("text_preview", tracing.SafeResumeContent(text)),
	)
	span.AddEvent("text_extraction_completed")

	// 3. 命名实体识别
	entities, err := ing.components.Recognizer.Recognize(ctx, text)
	if err != nil {
		if ing.cfg != nil && ing.cfg.NER.FailOpen {
			// NER降级：没有实体时姓名留空，其余字段仍按文本规则抽取
			log.Warn().Err(err).Msg("NER服务不可用，降级为无实体抽取")
			entities = []types.Entity{}
		} else {
			log.Error().Err(err).Msg("命名实体识别失败")
			tracing.RecordError(span, err, tracing.ErrorTypeExternal)
			return ing.failSubmission(ctx, message, constants.StatusEntityRecognitionFailed, err)
		}
	}
	span.SetAttributes(attribute.Int("entity_count", len(entities)))

	// 4. 结构化抽取并分配候选人ID (UUIDv7保证按时间有序)
	profile := extractor.Extract(text, entities)
	candidateID, err := uuid.NewV7()
	if err != nil {
		return ing.failSubmission(ctx, message, constants.StatusStorageFailed, err)
	}
	profile.ID = candidateID.String()

	candidate, err := models.CandidateFromProfile(profile)
	if err != nil {
		log.Error().Err(err).Msg("序列化候选人档案失败")
		return ing.failSubmission(ctx, message, constants.StatusStorageFailed, err)
	}
	candidate.RawFileMD5 = message.RawFileMD5
	candidate.TextLength = len(text)

	// 5. 落库
	if err := ing.components.DB.CreateCandidate(ctx, candidate); err != nil {
		log.Error().Err(err).Msg("写入候选人记录失败")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return ing.failSubmission(ctx, message, constants.StatusStorageFailed, err)
	}

	// 6. 归档解析文本（尽力而为，失败不影响主流程）
	if textPath, err := ing.components.Objects.UploadParsedText(ctx, message.SubmissionUUID, text); err != nil {
		log.Warn().Err(err).Msg("归档解析文本失败")
	} else if err := ing.components.DB.UpdateSubmissionParsedTextPath(ctx, message.SubmissionUUID, textPath); err != nil {
		log.Warn().Err(err).Msg("记录解析文本路径失败")
	}

	// 7. 关联投递与候选人并标记完成
	// 此时候选人已持久化，去重记录保留，失败只更新状态
	if err := ing.components.DB.LinkSubmissionToCandidate(ctx, message.SubmissionUUID, profile.ID, constants.StatusProcessingCompleted); err != nil {
		log.Error().Err(err).Msg("关联投递与候选人失败")
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		if updateErr := ing.components.DB.UpdateResumeProcessingStatus(ctx, message.SubmissionUUID, constants.StatusStorageFailed); updateErr != nil {
			log.Warn().Err(updateErr).Msg("更新失败状态时出错")
		}
		return err
	}

	span.SetStatus(codes.Ok, "处理成功")
	log.Info().Str("candidate_id", profile.ID).Msg("简历摄取完成")
	return nil
}

// failSubmission 标记投递失败并回滚去重记录，返回原始错误
func (ing *Ingestor) failSubmission(ctx context.Context, message storage.ResumeUploadMessage, status string, cause error) error {
	log := logger.FromContext(ctx)

	if err := ing.components.DB.UpdateResumeProcessingStatus(ctx, message.SubmissionUUID, status); err != nil {
		log.Warn().Err(err).Str("status", status).Msg("更新失败状态时出错")
	}

	// 回滚去重记录，同一文件之后可以重新上传
	if ing.components.Dedup != nil && message.RawFileMD5 != "" {
		if err := ing.components.Dedup.RemoveRawFileMD5(ctx, message.RawFileMD5); err != nil {
			log.Warn().Err(err).Msg("回滚文件MD5去重记录失败")
		}
		if err := ing.components.Dedup.RemoveMD5Mapping(ctx, message.RawFileMD5); err != nil {
			log.Warn().Err(err).Msg("回滚MD5到投递UUID映射失败")
		}
	}

	return cause
}

// UploadMessageHandler 返回RabbitMQ消费者回调
// 处理结果（含失败）都已落库，所以消息一律确认，不重回队列
func (ing *Ingestor) UploadMessageHandler() func(body []byte) bool {
	return func(body []byte) bool {
		var message storage.ResumeUploadMessage
		if err := json.Unmarshal(body, &message); err != nil {
			logger.Error().Err(err).Msg("反序列化上传消息失败，丢弃消息")
			return true
		}
		if message.SubmissionUUID == "" {
			logger.Error().Msg("上传消息缺少submission_uuid，丢弃消息")
			return true
		}

		ctx := logger.WithContext(context.Background())
		if err := ing.ProcessUploadedResume(ctx, message); err != nil {
			logger.Error().Err(err).Str("submission_uuid", message.SubmissionUUID).Msg("处理上传消息失败")
		}
		return true
	}
}
