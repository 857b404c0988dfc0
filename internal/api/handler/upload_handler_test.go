package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/storage/models"
)

// ---- 测试替身 ----

type fakeUploadObjects struct {
	objectKey string
	md5Hex    string
	uploadErr error
	deleted   []string
}

func (f *fakeUploadObjects) UploadResumeFileStreaming(_ context.Context, submissionUUID, fileExt string, _ io.Reader, _ int64) (string, string, error) {
	if f.uploadErr != nil {
		return "", "", f.uploadErr
	}
	f.objectKey = "resume/" + submissionUUID + "/original" + fileExt
	return f.objectKey, f.md5Hex, nil
}

func (f *fakeUploadObjects) DeleteFile(_ context.Context, objectName string) error {
	f.deleted = append(f.deleted, objectName)
	return nil
}

type fakeUploadDedup struct {
	exists      bool
	checkErr    error
	removedMD5s []string
	mappedUUID  string
}

func (f *fakeUploadDedup) CheckAndAddRawFileMD5(_ context.Context, _ string) (bool, error) {
	return f.exists, f.checkErr
}

func (f *fakeUploadDedup) CheckAndSetMD5(_ context.Context, _ string, submissionUUID string) (bool, string, error) {
	f.mappedUUID = submissionUUID
	return true, submissionUUID, nil
}

func (f *fakeUploadDedup) RemoveRawFileMD5(_ context.Context, md5 string) error {
	f.removedMD5s = append(f.removedMD5s, md5)
	return nil
}

func (f *fakeUploadDedup) RemoveMD5Mapping(_ context.Context, _ string) error {
	return nil
}

type fakeUploadPublisher struct {
	exchange   string
	routingKey string
	published  []interface{}
	err        error
}

func (f *fakeUploadPublisher) PublishJSON(_ context.Context, exchangeName, routingKey string, data interface{}, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.exchange = exchangeName
	f.routingKey = routingKey
	f.published = append(f.published, data)
	return nil
}

type fakeSubmissionWriter struct {
	submissions []*models.ResumeSubmission
	err         error
}

func (f *fakeSubmissionWriter) CreateResumeSubmission(_ context.Context, submission *models.ResumeSubmission) error {
	if f.err != nil {
		return f.err
	}
	f.submissions = append(f.submissions, submission)
	return nil
}

// ---- 辅助 ----

func testUploadConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Upload.MaxFileSizeMB = 10
	cfg.RabbitMQ.ResumeEventsExchange = "resume.events.exchange"
	cfg.RabbitMQ.UploadedRoutingKey = "resume.uploaded"
	return cfg
}

func newTestUploadHandler(objects *fakeUploadObjects, dedup *fakeUploadDedup, publisher *fakeUploadPublisher, db *fakeSubmissionWriter) *UploadHandler {
	h := &UploadHandler{
		cfg:       testUploadConfig(),
		objects:   objects,
		publisher: publisher,
		db:        db,
	}
	if dedup != nil {
		h.dedup = dedup
	}
	return h
}

// ---- 测试 ----

func TestHandleResumeUploadSuccess(t *testing.T) {
	objects := &fakeUploadObjects{md5Hex: "d41d8cd98f00b204e9800998ecf8427e"}
	dedup := &fakeUploadDedup{}
	publisher := &fakeUploadPublisher{}
	db := &fakeSubmissionWriter{}
	h := newTestUploadHandler(objects, dedup, publisher, db)

	resp, err := h.HandleResumeUpload(context.Background(), bytes.NewReader([]byte("%PDF-1.4")), 8, "jane_doe.PDF")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSubmittedForProcessing, resp.Status)
	assert.NotEmpty(t, resp.SubmissionUUID)

	// 投递记录与消息使用同一个UUID和对象键
	require.Len(t, db.submissions, 1)
	submission := db.submissions[0]
	assert.Equal(t, resp.SubmissionUUID, submission.SubmissionUUID)
	assert.Equal(t, constants.StatusPendingParsing, submission.ProcessingStatus)
	assert.Equal(t, objects.objectKey, submission.OriginalFilePathOSS)
	assert.Equal(t, objects.md5Hex, submission.RawFileMD5)

	require.Len(t, publisher.published, 1)
	message, ok := publisher.published[0].(storage.ResumeUploadMessage)
	require.True(t, ok)
	assert.Equal(t, resp.SubmissionUUID, message.SubmissionUUID)
	assert.Equal(t, "resume.events.exchange", publisher.exchange)
	assert.Equal(t, "resume.uploaded", publisher.routingKey)

	// MD5映射记录到本次投递
	assert.Equal(t, resp.SubmissionUUID, dedup.mappedUUID)
	assert.Empty(t, objects.deleted)
}

func TestHandleResumeUploadValidation(t *testing.T) {
	h := newTestUploadHandler(&fakeUploadObjects{}, nil, &fakeUploadPublisher{}, &fakeSubmissionWriter{})

	cases := []struct {
		name     string
		filename string
		size     int64
	}{
		{"非PDF扩展名", "resume.docx", 100},
		{"缺少文件名", "", 100},
		{"空文件", "resume.pdf", 0},
		{"超过大小限制", "resume.pdf", 11 * 1024 * 1024},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.HandleResumeUpload(context.Background(), bytes.NewReader(nil), tc.size, tc.filename)
			require.ErrorIs(t, err, ErrInvalidUpload)
		})
	}
}

func TestHandleResumeUploadDuplicate(t *testing.T) {
	objects := &fakeUploadObjects{md5Hex: "abc123"}
	dedup := &fakeUploadDedup{exists: true}
	publisher := &fakeUploadPublisher{}
	db := &fakeSubmissionWriter{}
	h := newTestUploadHandler(objects, dedup, publisher, db)

	resp, err := h.HandleResumeUpload(context.Background(), bytes.NewReader([]byte("%PDF")), 4, "dup.pdf")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusDuplicateFileSkipped, resp.Status)
	assert.Empty(t, resp.SubmissionUUID)

	// 重复文件不落库不发消息，暂存对象被回收
	assert.Empty(t, db.submissions)
	assert.Empty(t, publisher.published)
	assert.Equal(t, []string{objects.objectKey}, objects.deleted)
}

func TestHandleResumeUploadDedupUnavailable(t *testing.T) {
	// Redis查询失败时去重降级，主流程继续
	objects := &fakeUploadObjects{md5Hex: "abc123"}
	dedup := &fakeUploadDedup{checkErr: errors.New("redis down")}
	publisher := &fakeUploadPublisher{}
	db := &fakeSubmissionWriter{}
	h := newTestUploadHandler(objects, dedup, publisher, db)

	resp, err := h.HandleResumeUpload(context.Background(), bytes.NewReader([]byte("%PDF")), 4, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSubmittedForProcessing, resp.Status)
	assert.Len(t, db.submissions, 1)
}

func TestHandleResumeUploadPublishFailureRollsBack(t *testing.T) {
	objects := &fakeUploadObjects{md5Hex: "abc123"}
	dedup := &fakeUploadDedup{}
	publisher := &fakeUploadPublisher{err: errors.New("broker unavailable")}
	db := &fakeSubmissionWriter{}
	h := newTestUploadHandler(objects, dedup, publisher, db)

	_, err := h.HandleResumeUpload(context.Background(), bytes.NewReader([]byte("%PDF")), 4, "a.pdf")
	require.Error(t, err)

	// 暂存对象与去重记录全部回收
	assert.Equal(t, []string{objects.objectKey}, objects.deleted)
	assert.Equal(t, []string{"abc123"}, dedup.removedMD5s)
}

func TestHandleResumeUploadDBFailureRollsBack(t *testing.T) {
	objects := &fakeUploadObjects{md5Hex: "abc123"}
	dedup := &fakeUploadDedup{}
	publisher := &fakeUploadPublisher{}
	db := &fakeSubmissionWriter{err: errors.New("db unavailable")}
	h := newTestUploadHandler(objects, dedup, publisher, db)

	_, err := h.HandleResumeUpload(context.Background(), bytes.NewReader([]byte("%PDF")), 4, "a.pdf")
	require.Error(t, err)
	assert.Empty(t, publisher.published)
	assert.Equal(t, []string{objects.objectKey}, objects.deleted)
	assert.Equal(t, []string{"abc123"}, dedup.removedMD5s)
}
