package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

func TestCandidateProfileRoundTrip(t *testing.T) {
	profile := &types.CandidateProfile{
		ID:         "0190a6e2-0000-7000-8000-000000000001",
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		Phone:      "1234567890",
		Skills:     []string{"Python", "SQL"},
		Education:  []string{"Bachelor of Science"},
		Experience: []string{"Worked at Acme"},
		Summary:    "summary text",
	}

	candidate, err := CandidateFromProfile(profile)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, candidate.CandidateID)

	restored, err := candidate.ToProfile()
	require.NoError(t, err)
	assert.Equal(t, profile, restored)
}

func TestCandidateFromProfileNilSlices(t *testing.T) {
	// nil切片必须存为空数组，读回时不得变成null
	candidate, err := CandidateFromProfile(&types.CandidateProfile{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(candidate.SkillsJSON))

	restored, err := candidate.ToProfile()
	require.NoError(t, err)
	assert.NotNil(t, restored.Skills)
	assert.Empty(t, restored.Skills)
	assert.NotNil(t, restored.Experience)
}

func TestJSONToStringsEmptyColumn(t *testing.T) {
	values, err := JSONToStrings(nil)
	require.NoError(t, err)
	assert.Empty(t, values)
}
