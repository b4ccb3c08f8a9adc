package document

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-cv-bot/internal/models"
)

// Normalize converts a draft into the shape both renderers consume. The
// flat skills list becomes a single technical category. The draft is not
// modified.
func Normalize(d *models.Draft, now time.Time) *models.Resume {
	c := d.Clone()
	c.Normalize()

	skills := map[string][]string{}
	if len(c.Skills) > 0 {
		skills[models.DefaultSkillCategory] = c.Skills
	}

	return &models.Resume{
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Summary:        c.Summary,
		Experience:     c.Experience,
		Education:      c.Education,
		Skills:         skills,
		Languages:      c.Languages,
		Projects:       c.Projects,
		Certifications: []string{},
		PhotoPath:      c.PhotoPath,
		Template:       c.Template,
		GeneratedOn:    now.Format("January 2006"),
	}
}

// FileBaseName derives a filesystem safe name from a person's name.
// Accents are folded, anything that is not a letter or digit becomes an
// underscore.
func FileBaseName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}

	out := strings.TrimRight(b.String(), "_")
	if out == "" {
		return "resume"
	}
	return out
}
