package processor

import (
	"context"
	"io"

	"resume-analyzer-go/internal/storage/models"
	"resume-analyzer-go/internal/types"
)

// PDFExtractor 定义PDF文本提取接口
type PDFExtractor interface {
	// ExtractFromFile 从PDF文件路径提取文本和元数据
	ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error)

	// ExtractTextFromReader 从 io.Reader 提取文本和元数据
	// uri 参数用于标识来源，options 为解析器特定的选项
	ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string, options interface{}) (string, map[string]interface{}, error)

	// ExtractTextFromBytes 从字节数组提取文本和元数据
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string, options interface{}) (string, map[string]interface{}, error)
}

// EntityRecognizer 定义命名实体识别接口
type EntityRecognizer interface {
	// Recognize 对文本做命名实体识别，返回实体列表（保持文档顺序）
	Recognize(ctx context.Context, text string) ([]types.Entity, error)
}

// SubmissionStore 投递记录与候选人的持久化接口
type SubmissionStore interface {
	CreateCandidate(ctx context.Context, candidate *models.Candidate) error
	UpdateResumeProcessingStatus(ctx context.Context, submissionUUID string, status string) error
	LinkSubmissionToCandidate(ctx context.Context, submissionUUID, candidateID, status string) error
	UpdateSubmissionParsedTextPath(ctx context.Context, submissionUUID, parsedTextPath string) error
}

// ResumeObjectStore 简历原件与解析文本的对象存储接口
type ResumeObjectStore interface {
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
	UploadParsedText(ctx context.Context, submissionUUID string, text string) (string, error)
	DeleteFile(ctx context.Context, objectName string) error
}

// DedupStore 文件MD5去重记录接口
// 处理失败时回滚去重记录，让同一文件可以重新上传
type DedupStore interface {
	RemoveRawFileMD5(ctx context.Context, md5 string) error
	RemoveMD5Mapping(ctx context.Context, md5 string) error
}
