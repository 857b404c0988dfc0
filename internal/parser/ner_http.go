package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"resume-analyzer-go/internal/types"
)

// HTTPEntityRecognizer 调用外部NER服务识别命名实体
// 服务契约: POST {server}/ner，请求体 {"text": "..."}
// 响应体 {"entities": [{"label": "PERSON", "text": "Jane Doe"}, ...]}
type HTTPEntityRecognizer struct {
	// NER服务地址，例如 http://localhost:9090
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 日志记录
	logger *log.Logger
}

// NEROption 定义配置选项函数
type NEROption func(*HTTPEntityRecognizer)

// WithNERTimeout 配置HTTP客户端超时时间
func WithNERTimeout(timeout time.Duration) NEROption {
	return func(r *HTTPEntityRecognizer) {
		r.Client.Timeout = timeout
	}
}

// WithNERLogger 配置自定义日志记录器
func WithNERLogger(logger *log.Logger) NEROption {
	return func(r *HTTPEntityRecognizer) {
		r.logger = logger
	}
}

// WithNERHTTPClient 替换HTTP客户端，测试时使用
func WithNERHTTPClient(client *http.Client) NEROption {
	return func(r *HTTPEntityRecognizer) {
		r.Client = client
	}
}

// NewHTTPEntityRecognizer 创建一个新的NER服务客户端
func NewHTTPEntityRecognizer(serverURL string, options ...NEROption) *HTTPEntityRecognizer {
	recognizer := &HTTPEntityRecognizer{
		ServerURL: serverURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.New(os.Stderr, "[NER客户端] ", log.LstdFlags),
	}

	for _, option := range options {
		option(recognizer)
	}

	return recognizer
}

type nerRequest struct {
	Text string `json:"text"`
}

type nerResponse struct {
	Entities []types.Entity `json:"entities"`
}

// Recognize 对文本做命名实体识别
// 返回的实体保持服务端给出的文档顺序
func (r *HTTPEntityRecognizer) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	startTime := time.Now()

	body, err := json.Marshal(nerRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("序列化NER请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/ner", r.ServerURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到NER服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 读取部分响应体便于定位问题
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("NER服务返回错误状态码: %d, body: %s", resp.StatusCode, string(errBody))
	}

	var parsed nerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析NER响应失败: %w", err)
	}

	if parsed.Entities == nil {
		parsed.Entities = []types.Entity{}
	}

	r.logger.Printf("NER识别完成: %d 个实体 (用时 %.2f秒)", len(parsed.Entities), time.Since(startTime).Seconds())
	return parsed.Entities, nil
}
