package constants

// 处理状态常量
// 上传接口写入初始状态，消费端在各个阶段推进或标记失败
const (
	StatusSubmittedForProcessing  = "SUBMITTED_FOR_PROCESSING"
	StatusPendingParsing          = "PENDING_PARSING"
	StatusProcessingCompleted     = "PROCESSING_COMPLETED"
	StatusTextExtractionFailed    = "TEXT_EXTRACTION_FAILED"
	StatusEntityRecognitionFailed = "ENTITY_RECOGNITION_FAILED"
	StatusStorageFailed           = "STORAGE_FAILED"
	StatusDuplicateFileSkipped    = "DUPLICATE_FILE_SKIPPED"
)
