package processor

import (
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
	"resume-analyzer-go/internal/types"
)

const sampleResumeText = `Jane Doe
Email: jane.doe@example.com
Phone: 1234567890

Jane is a seasoned engineer who has spent years building reliable data platforms for retail companies.

Skills: Python, SQL, Docker

Education
Bachelor of Science in Computer Science

Experience
Worked at Acme Corp as a backend developer`

// ---- 测试替身 ----

type fakeSubmissionStore struct {
	candidates     []*models.Candidate
	statuses       []string
	linkedUUID     string
	linkedCandID   string
	linkedStatus   string
	parsedTextPath string
	createErr      error
	linkErr        error
}

func (f *fakeSubmissionStore) CreateCandidate(_ context.Context, candidate *models.Candidate) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.candidates = append(f.candidates, candidate)
	return nil
}

func (f *fakeSubmissionStore) UpdateResumeProcessingStatus(_ context.Context, _ string, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeSubmissionStore) LinkSubmissionToCandidate(_ context.Context, submissionUUID, candidateID, status string) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.linkedUUID = submissionUUID
	f.linkedCandID = candidateID
	f.linkedStatus = status
	return nil
}

func (f *fakeSubmissionStore) UpdateSubmissionParsedTextPath(_ context.Context, _ string, parsedTextPath string) error {
	f.parsedTextPath = parsedTextPath
	return nil
}

type fakeObjectStore struct {
	files       map[string][]byte
	deleted     []string
	parsedTexts map[string]string
	getErr      error
	uploadErr   error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		files:       make(map[string][]byte),
		parsedTexts: make(map[string]string),
	}
}

func (f *fakeObjectStore) GetResumeFile(_ context.Context, objectKey string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.files[objectKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeObjectStore) UploadParsedText(_ context.Context, submissionUUID string, text string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	key := "resume/" + submissionUUID + "/parsed_text.txt"
	f.parsedTexts[key] = text
	return key, nil
}

func (f *fakeObjectStore) DeleteFile(_ context.Context, objectName string) error {
	f.deleted = append(f.deleted, objectName)
	delete(f.files, objectName)
	return nil
}

type fakeDedupStore struct {
	removedMD5s     []string
	removedMappings []string
}

func (f *fakeDedupStore) RemoveRawFileMD5(_ context.Context, md5 string) error {
	f.removedMD5s = append(f.removedMD5s, md5)
	return nil
}

func (f *fakeDedupStore) RemoveMD5Mapping(_ context.Context, md5 string) error {
	f.removedMappings = append(f.removedMappings, md5)
	return nil
}

type fakePDFExtractor struct {
	text string
	err  error
}

func (f *fakePDFExtractor) ExtractFromFile(context.Context, string) (string, map[string]interface{}, error) {
	return f.text, nil, f.err
}

func (f *fakePDFExtractor) ExtractTextFromReader(context.Context, io.Reader, string, interface{}) (string, map[string]interface{}, error) {
	return f.text, nil, f.err
}

func (f *fakePDFExtractor) ExtractTextFromBytes(context.Context, []byte, string, interface{}) (string, map[string]interface{}, error) {
	return f.text, nil, f.err
}

type fakeRecognizer struct {
	entities []types.Entity
	err      error
}

func (f *fakeRecognizer) Recognize(context.Context, string) ([]types.Entity, error) {
	return f.entities, f.err
}

// ---- 辅助 ----

func newTestIngestor(db *fakeSubmissionStore, objects *fakeObjectStore, dedup *fakeDedupStore, pdf PDFExtractor, ner EntityRecognizer, failOpen bool) *Ingestor {
	cfg := &config.Config{}
	cfg.NER.FailOpen = failOpen
	ing := &Ingestor{
		cfg: cfg,
		components: ingestComponents{
			DB:           db,
			Objects:      objects,
			PDFExtractor: pdf,
			Recognizer:   ner,
		},
	}
	if dedup != nil {
		ing.components.Dedup = dedup
	}
	return ing
}

func sampleUploadMessage() storage.ResumeUploadMessage {
	return storage.ResumeUploadMessage{
		SubmissionUUID:      "0190a6e2-0000-7000-8000-0000000000aa",
		OriginalFilename:    "jane_doe.pdf",
		OriginalFilePathOSS: "resume/0190a6e2-0000-7000-8000-0000000000aa/original.pdf",
		RawFileMD5:          "d41d8cd98f00b204e9800998ecf8427e",
	}
}

// ---- 测试 ----

func TestIngestorProcessSuccess(t *testing.T) {
	db := &fakeSubmissionStore{}
	objects := newFakeObjectStore()
	dedup := &fakeDedupStore{}
	message := sampleUploadMessage()
	objects.files[message.OriginalFilePathOSS] = []byte("%PDF-1.4 fake")

	pdf := &fakePDFExtractor{text: sampleResumeText}
	ner := &fakeRecognizer{entities: []types.Entity{
		{Label: types.EntityLabelPerson, Text: "Jane Doe"},
		{Label: "ORG", Text: "Acme Corp"},
	}}

	ing := newTestIngestor(db, objects, dedup, pdf, ner, false)
	require.NoError(t, ing.ProcessUploadedResume(context.Background(), message))

	// 候选人已落库且字段按规则抽取
	require.Len(t, db.candidates, 1)
	candidate := db.candidates[0]
	assert.NotEmpty(t, candidate.CandidateID)
	assert.Equal(t, "Jane Doe", candidate.Name)
	assert.Equal(t, "jane.doe@example.com", candidate.Email)
	assert.Equal(t, "1234567890", candidate.Phone)
	assert.Equal(t, message.RawFileMD5, candidate.RawFileMD5)
	assert.Equal(t, len(sampleResumeText), candidate.TextLength)

	profile, err := candidate.ToProfile()
	require.NoError(t, err)
	assert.Contains(t, profile.Skills, "Python")
	assert.Contains(t, profile.Skills, "Docker")

	// 投递已关联候选人并标记完成
	assert.Equal(t, message.SubmissionUUID, db.linkedUUID)
	assert.Equal(t, candidate.CandidateID, db.linkedCandID)
	assert.Equal(t, constants.StatusProcessingCompleted, db.linkedStatus)

	// 解析文本已归档且路径写回投递记录
	assert.NotEmpty(t, db.parsedTextPath)
	assert.Equal(t, sampleResumeText, objects.parsedTexts[db.parsedTextPath])

	// 暂存原件已删除，去重记录未回滚
	assert.Contains(t, objects.deleted, message.OriginalFilePathOSS)
	assert.Empty(t, dedup.removedMD5s)
}

func TestIngestorExtractionFailure(t *testing.T) {
	db := &fakeSubmissionStore{}
	objects := newFakeObjectStore()
	dedup := &fakeDedupStore{}
	message := sampleUploadMessage()
	objects.files[message.OriginalFilePathOSS] = []byte("broken")

	pdf := &fakePDFExtractor{err: errors.New("corrupt pdf")}
	ner := &fakeRecognizer{}

	ing := newTestIngestor(db, objects, dedup, pdf, ner, false)
	err := ing.ProcessUploadedResume(context.Background(), message)
	require.Error(t, err)

	// 不写候选人，状态标记为提取失败
	assert.Empty(t, db.candidates)
	assert.Contains(t, db.statuses, constants.StatusTextExtractionFailed)

	// 去重记录已回滚，暂存原件照样删除
	assert.Equal(t, []string{message.RawFileMD5}, dedup.removedMD5s)
	assert.Equal(t, []string{message.RawFileMD5}, dedup.removedMappings)
	assert.Contains(t, objects.deleted, message.OriginalFilePathOSS)
}

func TestIngestorEmptyTextTreatedAsFailure(t *testing.T) {
	db := &fakeSubmissionStore{}
	objects := newFakeObjectStore()
	message := sampleUploadMessage()
	objects.files[message.OriginalFilePathOSS] = []byte("blank")

	pdf := &fakePDFExtractor{text: "   \n\t  "}
	ing := newTestIngestor(db, objects, nil, pdf, &fakeRecognizer{}, false)

	err := ing.ProcessUploadedResume(context.Background(), message)
	require.ErrorIs(t, err, ErrEmptyDocument)
	assert.Contains(t, db.statuses, constants.StatusTextExtractionFailed)
}

func TestIngestorNERFailureClosed(t *testing.T) {
	db := &fakeSubmissionStore{}
	objects := newFakeObjectStore()
	dedup := &fakeDedupStore{}
	message := sampleUploadMessage()
	objects.files[message.OriginalFilePathOSS] = []byte("%PDF")

	pdf := &fakePDFExtractor{text: sampleResumeText}
	ner := &fakeRecognizer{err: errors.New("ner service down")}

	ing := newTestIngestor(db, objects, dedup, pdf, ner, false)
	err := ing.ProcessUploadedResume(context.Background(), message)
	require.Error(t, err)

	assert.Empty(t, db.candidates)
	assert.Contains(t, db.statuses, constants.StatusEntityRecognitionFailed)
	assert.Equal(t, []string{message.RawFileMD5}, dedup.removedMD5s)
}

func TestIngestorNERFailureOpen(t *testing.T) {
	db := &fakeSubmissionStore{}
	objects := newFakeObjectStore()
	message := sampleUploadMessage()
	objects.files[message.OriginalFilePathOSS] = []byte("%PDF")

	pdf := &fakePDFExtractor{text: sampleResumeText}
	ner := &fakeRecognizer{err: errors.New("ner service down")}

	// fail-open模式下NER故障降级处理，姓名留空但其余字段正常抽取
	ing := newTestIngestor(db, objects, nil, pdf, ner, true)
	require.NoError(t, ing.ProcessUploadedResume(context.Background(), message))

	require.Len(t, db.candidates, 1)
	assert.Empty(t, db.candidates[0].Name)
	assert.Equal(t, "jane.doe@example.com", db.candidates[0].Email)
	assert.Equal(t, constants.StatusProcessingCompleted, db.linkedStatus)
}

func TestIngestorStoreWriteFailure(t *testing.T) {
	db := &fakeSubmissionStore{createErr: errors.New("db unavailable")}
	objects := newFakeObjectStore()
	dedup := &fakeDedupStore{}
	message := sampleUploadMessage()
	objects.files[message.OriginalFilePathOSS] = []byte("%PDF")

	pdf := &fakePDFExtractor{text: sampleResumeText}
	ner := &fakeRecognizer{entities: []types.Entity{{Label: types.EntityLabelPerson, Text: "Jane Doe"}}}

	ing := newTestIngestor(db, objects, dedup, pdf, ner, false)
	err := ing.ProcessUploadedResume(context.Background(), message)
	require.Error(t, err)

	assert.Contains(t, db.statuses, constants.StatusStorageFailed)
	assert.Equal(t, []string{message.RawFileMD5}, dedup.removedMD5s)
	assert.Contains(t, objects.deleted, message.OriginalFilePathOSS)
}

func TestUploadMessageHandlerDiscardsBadMessages(t *testing.T) {
	db := &fakeSubmissionStore{}
	objects := newFakeObjectStore()
	ing := newTestIngestor(db, objects, nil, &fakePDFExtractor{}, &fakeRecognizer{}, false)

	handler := ing.UploadMessageHandler()

	// 非法JSON与缺少UUID的消息都应确认并丢弃
	assert.True(t, handler([]byte("not json")))
	assert.True(t, handler([]byte(`{"original_filename":"x.pdf"}`)))
	assert.Empty(t, db.candidates)
}

func TestNewIngestorValidatesComponents(t *testing.T) {
	_, err := NewIngestor(&config.Config{}, nil, &fakePDFExtractor{}, &fakeRecognizer{})
	assert.ErrorIs(t, err, ErrStorageNotInit)
}
