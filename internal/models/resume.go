package models

import (
	"sort"
	"strings"
)

const (
	DefaultTemplate      = "professional"
	DefaultSkillCategory = "technical"
)

// Templates lists the selectable CV designs in menu order.
var Templates = []string{"professional", "creative", "modern", "academic"}

type Experience struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Years       string `json:"years"`
	Description string `json:"description"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Years       string `json:"years"`
}

type Project struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
}

// Draft is the in-progress CV collected during one interview session.
type Draft struct {
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone"`
	Summary    string       `json:"summary"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []string     `json:"skills"`
	Languages  []string     `json:"languages"`
	Projects   []Project    `json:"projects"`
	PhotoPath  string       `json:"photo_path"`
	Template   string       `json:"template"`
}

// NewDraft returns a draft with every list initialised and the default template.
func NewDraft() *Draft {
	d := &Draft{}
	d.Normalize()
	return d
}

// Normalize replaces nil lists with empty ones and fills the template.
// Drafts decoded from storage go through it so callers never see nil.
func (d *Draft) Normalize() {
	if d.Experience == nil {
		d.Experience = []Experience{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.Languages == nil {
		d.Languages = []string{}
	}
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	if d.Template == "" {
		d.Template = DefaultTemplate
	}
}

// Clone returns a deep copy so document assembly never mutates the live draft.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Experience = append([]Experience{}, d.Experience...)
	c.Education = append([]Education{}, d.Education...)
	c.Skills = append([]string{}, d.Skills...)
	c.Languages = append([]string{}, d.Languages...)
	c.Projects = append([]Project{}, d.Projects...)
	return &c
}

// Resume is the normalized input shared by the PDF and DOCX renderers.
type Resume struct {
	Name           string              `json:"name"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone"`
	Summary        string              `json:"summary"`
	Experience     []Experience        `json:"experience"`
	Education      []Education         `json:"education"`
	Skills         map[string][]string `json:"skills"`
	Languages      []string            `json:"languages"`
	Projects       []Project           `json:"projects"`
	Certifications []string            `json:"certifications"`
	PhotoPath      string              `json:"photo_path"`
	Template       string              `json:"template"`
	GeneratedOn    string              `json:"generated_on"`
}

// SkillCategories returns the skill category names in a stable order:
// the default category first, the rest alphabetically.
func (r *Resume) SkillCategories() []string {
	cats := make([]string, 0, len(r.Skills))
	if _, ok := r.Skills[DefaultSkillCategory]; ok {
		cats = append(cats, DefaultSkillCategory)
	}
	rest := make([]string, 0, len(r.Skills))
	for c := range r.Skills {
		if c != DefaultSkillCategory {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(cats, rest...)
}

// AllSkills flattens the skill mapping in category order.
func (r *Resume) AllSkills() []string {
	var out []string
	for _, c := range r.SkillCategories() {
		out = append(out, r.Skills[c]...)
	}
	return out
}

// ContactLine joins the non-empty contact fields with " | ".
func (r *Resume) ContactLine() string {
	var parts []string
	if r.Email != "" {
		parts = append(parts, r.Email)
	}
	if r.Phone != "" {
		parts = append(parts, r.Phone)
	}
	return strings.Join(parts, " | ")
}
