package processor

import "errors"

// 组件未初始化错误
var (
	ErrStorageNotInit    = errors.New("存储组件未初始化")
	ErrExtractorNotInit  = errors.New("PDF提取器未初始化")
	ErrRecognizerNotInit = errors.New("实体识别器未初始化")
)

// ErrEmptyDocument 表示PDF解析成功但没有提取到任何文本
var ErrEmptyDocument = errors.New("文档未提取到文本内容")
