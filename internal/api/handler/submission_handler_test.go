package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/storage/models"
)

type fakeSubmissionReader struct {
	submission *models.ResumeSubmission
	err        error
}

func (f *fakeSubmissionReader) GetResumeSubmission(_ context.Context, _ string) (*models.ResumeSubmission, error) {
	return f.submission, f.err
}

type fakeParsedTextReader struct {
	text string
	err  error
}

func (f *fakeParsedTextReader) GetParsedText(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func TestFetchSubmissionCompleted(t *testing.T) {
	candidateID := "cand-1"
	db := &fakeSubmissionReader{submission: &models.ResumeSubmission{
		SubmissionUUID:      "sub-1",
		CandidateID:         &candidateID,
		SubmissionTimestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		OriginalFilename:    "resume.pdf",
		ParsedTextPathOSS:   "resume/sub-1/parsed_text.txt",
		ProcessingStatus:    constants.StatusProcessingCompleted,
	}}
	objects := &fakeParsedTextReader{text: "Jane Doe\njane.doe@example.com"}
	h := &SubmissionHandler{db: db, objects: objects}

	detail, err := h.fetchSubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", detail.SubmissionUUID)
	assert.Equal(t, constants.StatusProcessingCompleted, detail.ProcessingStatus)
	assert.Equal(t, "cand-1", detail.CandidateID)
	assert.Equal(t, "Jane Doe\njane.doe@example.com", detail.ParsedText)
}

func TestFetchSubmissionPending(t *testing.T) {
	// 未完成的投递没有候选人ID也没有解析文本
	db := &fakeSubmissionReader{submission: &models.ResumeSubmission{
		SubmissionUUID:   "sub-2",
		OriginalFilename: "resume.pdf",
		ProcessingStatus: constants.StatusPendingParsing,
	}}
	h := &SubmissionHandler{db: db, objects: &fakeParsedTextReader{}}

	detail, err := h.fetchSubmission(context.Background(), "sub-2")
	require.NoError(t, err)
	assert.Empty(t, detail.CandidateID)
	assert.Empty(t, detail.ParsedText)
}

func TestFetchSubmissionNotFound(t *testing.T) {
	db := &fakeSubmissionReader{err: storage.ErrSubmissionNotFound}
	h := &SubmissionHandler{db: db, objects: &fakeParsedTextReader{}}

	_, err := h.fetchSubmission(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrSubmissionNotFound)
}

func TestFetchSubmissionParsedTextUnavailable(t *testing.T) {
	// 解析文本读取失败降级为空，不影响状态查询
	db := &fakeSubmissionReader{submission: &models.ResumeSubmission{
		SubmissionUUID:    "sub-3",
		ParsedTextPathOSS: "resume/sub-3/parsed_text.txt",
		ProcessingStatus:  constants.StatusProcessingCompleted,
	}}
	objects := &fakeParsedTextReader{err: errors.New("minio unavailable")}
	h := &SubmissionHandler{db: db, objects: objects}

	detail, err := h.fetchSubmission(context.Background(), "sub-3")
	require.NoError(t, err)
	assert.Empty(t, detail.ParsedText)
}
