package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraftDefaults(t *testing.T) {
	d := NewDraft()

	assert.Equal(t, "", d.Name)
	assert.NotNil(t, d.Experience)
	assert.NotNil(t, d.Education)
	assert.NotNil(t, d.Skills)
	assert.NotNil(t, d.Languages)
	assert.NotNil(t, d.Projects)
	assert.Equal(t, DefaultTemplate, d.Template)
}

func TestDraftNormalizeAfterDecode(t *testing.T) {
	var d Draft
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ann","skills":null}`), &d))
	d.Normalize()

	assert.Equal(t, "Ann", d.Name)
	assert.Empty(t, d.Skills)
	assert.NotNil(t, d.Skills)
	assert.NotNil(t, d.Projects)
}

func TestDraftCloneIsDeep(t *testing.T) {
	d := NewDraft()
	d.Skills = append(d.Skills, "Go")
	d.Experience = append(d.Experience, Experience{Role: "Engineer"})

	c := d.Clone()
	c.Skills[0] = "Rust"
	c.Experience[0].Role = "Manager"

	assert.Equal(t, "Go", d.Skills[0])
	assert.Equal(t, "Engineer", d.Experience[0].Role)
}

func TestSkillCategoriesOrder(t *testing.T) {
	r := &Resume{Skills: map[string][]string{
		"tools":     {"Docker"},
		"technical": {"Go"},
		"languages": {"Go"},
	}}

	assert.Equal(t, []string{"technical", "languages", "tools"}, r.SkillCategories())
	assert.Equal(t, []string{"Go", "Go", "Docker"}, r.AllSkills())
}

func TestContactLine(t *testing.T) {
	tests := []struct {
		name   string
		resume Resume
		want   string
	}{
		{name: "both", resume: Resume{Email: "a@b.c", Phone: "123"}, want: "a@b.c | 123"},
		{name: "email only", resume: Resume{Email: "a@b.c"}, want: "a@b.c"},
		{name: "none", resume: Resume{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resume.ContactLine())
		})
	}
}
