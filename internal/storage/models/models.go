package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"resume-analyzer-go/internal/types"
)

// Candidate 候选人记录主表
// 技能、教育、经历以JSON数组形式存储
type Candidate struct {
	CandidateID    string         `gorm:"type:char(36);primaryKey"`
	Name           string         `gorm:"type:varchar(255);index:idx_candidates_name"`
	Email          string         `gorm:"type:varchar(255)"`
	Phone          string         `gorm:"type:varchar(50)"`
	SkillsJSON     datatypes.JSON `gorm:"type:json"`
	EducationJSON  datatypes.JSON `gorm:"type:json"`
	ExperienceJSON datatypes.JSON `gorm:"type:json"`
	Summary        string         `gorm:"type:text"`
	RawFileMD5     string         `gorm:"type:char(32);index:idx_candidates_raw_file_md5"`
	TextLength     int            `gorm:"type:int"`
	CreatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// ResumeSubmission 简历提交/快照表
// 记录每次上传的原始文件位置和处理进度
type ResumeSubmission struct {
	SubmissionUUID      string    `gorm:"type:char(36);primaryKey"`
	CandidateID         *string   `gorm:"type:char(36);index:idx_rs_candidate_id"`
	SubmissionTimestamp time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_rs_submission_timestamp"`
	OriginalFilename    string    `gorm:"type:varchar(255)"`
	OriginalFilePathOSS string    `gorm:"type:varchar(1024)"`
	ParsedTextPathOSS   string    `gorm:"type:varchar(1024)"`
	RawFileMD5          string    `gorm:"type:char(32);index:idx_rs_raw_file_md5"`
	ProcessingStatus    string    `gorm:"type:varchar(50);default:'PENDING_PARSING';index:idx_rs_processing_status"`
	CreatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (ResumeSubmission) TableName() string {
	return "resume_submissions"
}

// StringsToJSON 将字符串切片序列化为JSON列值
// nil切片按空数组存储，保证读回时不出现null
func StringsToJSON(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("序列化字符串数组失败: %w", err)
	}
	return datatypes.JSON(data), nil
}

// JSONToStrings 从JSON列值反序列化字符串切片
func JSONToStrings(data datatypes.JSON) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("反序列化字符串数组失败: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// CandidateFromProfile 将提取结果转换为数据库模型
func CandidateFromProfile(profile *types.CandidateProfile) (*Candidate, error) {
	skillsJSON, err := StringsToJSON(profile.Skills)
	if err != nil {
		return nil, err
	}
	educationJSON, err := StringsToJSON(profile.Education)
	if err != nil {
		return nil, err
	}
	experienceJSON, err := StringsToJSON(profile.Experience)
	if err != nil {
		return nil, err
	}

	return &Candidate{
		CandidateID:    profile.ID,
		Name:           profile.Name,
		Email:          profile.Email,
		Phone:          profile.Phone,
		SkillsJSON:     skillsJSON,
		EducationJSON:  educationJSON,
		ExperienceJSON: experienceJSON,
		Summary:        profile.Summary,
	}, nil
}

// ToProfile 将数据库模型转换回候选人档案
func (c *Candidate) ToProfile() (*types.CandidateProfile, error) {
	skills, err := JSONToStrings(c.SkillsJSON)
	if err != nil {
		return nil, fmt.Errorf("候选人 %s 技能列反序列化失败: %w", c.CandidateID, err)
	}
	education, err := JSONToStrings(c.EducationJSON)
	if err != nil {
		return nil, fmt.Errorf("候选人 %s 教育列反序列化失败: %w", c.CandidateID, err)
	}
	experience, err := JSONToStrings(c.ExperienceJSON)
	if err != nil {
		return nil, fmt.Errorf("候选人 %s 经历列反序列化失败: %w", c.CandidateID, err)
	}

	return &types.CandidateProfile{
		ID:         c.CandidateID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Skills:     skills,
		Education:  education,
		Experience: experience,
		Summary:    c.Summary,
	}, nil
}
