package interview

import (
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-cv-bot/internal/models"
)

// RenderReview projects the live draft into the HTML review screen.
// It reads nothing but the draft, so two calls without a mutation in
// between return the same text.
func RenderReview(d *models.Draft) string {
	e := html.EscapeString
	var b strings.Builder

	b.WriteString("📝 <b>Review Your CV</b>\n\n")
	fmt.Fprintf(&b, "👤 <b>Name:</b> %s\n", e(d.Name))
	fmt.Fprintf(&b, "📧 <b>Email:</b> %s\n", e(d.Email))
	fmt.Fprintf(&b, "📱 <b>Phone:</b> %s\n\n", e(d.Phone))

	fmt.Fprintf(&b, "🧠 <b>Summary:</b>\n%s\n\n", e(d.Summary))

	b.WriteString("💼 <b>Experience:</b>\n")
	for i, job := range d.Experience {
		fmt.Fprintf(&b, "%d. %s at %s (%s)\n", i+1, e(job.Role), e(job.Company), e(job.Years))
	}

	b.WriteString("\n🎓 <b>Education:</b>\n")
	for i, edu := range d.Education {
		fmt.Fprintf(&b, "%d. %s at %s (%s)\n", i+1, e(edu.Degree), e(edu.Institution), e(edu.Years))
	}

	fmt.Fprintf(&b, "\n🛠️ <b>Skills:</b>\n%s\n", e(strings.Join(d.Skills, ", ")))
	fmt.Fprintf(&b, "\n🌐 <b>Languages:</b>\n%s\n", e(strings.Join(d.Languages, ", ")))

	b.WriteString("\n🛠️ <b>Projects:</b>\n")
	for i, p := range d.Projects {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, e(p.Name), e(p.Technologies))
	}

	return b.String()
}

func ReviewMenu() Menu {
	return Menu{
		{{"✏️ Edit Name", ActionEditName}, {"✏️ Edit Email", ActionEditEmail}},
		{{"✏️ Edit Phone", ActionEditPhone}, {"✏️ Edit Summary", ActionEditSummary}},
		{{"✏️ Edit Experience", ActionEditExperience}},
		{{"✏️ Edit Education", ActionEditEducation}},
		{{"✏️ Edit Skills", ActionEditSkills}},
		{{"✏️ Edit Languages", ActionEditLanguages}},
		{{"✏️ Edit Projects", ActionEditProjects}},
		{{"✅ Generate CV", ActionGenerate}},
		{{"❌ Cancel", ActionCancel}},
	}
}

var templateLabels = map[string]string{
	"professional": "🏢 Professional",
	"creative":     "🎨 Creative",
	"modern":       "💻 Modern Tech",
	"academic":     "📚 Academic",
}

// TemplateMenu lays out the template choices two per row.
func TemplateMenu() Menu {
	var menu Menu
	var row []Button
	for _, name := range models.Templates {
		row = append(row, Button{Text: templateLabels[name], Data: templateActionPrefix + name})
		if len(row) == 2 {
			menu = append(menu, row)
			row = nil
		}
	}
	if len(row) > 0 {
		menu = append(menu, row)
	}
	return menu
}

func sectionMenu(add, finish string) Menu {
	return Menu{
		{{"➕ Add Another", add}},
		{{"✅ Done", finish}},
	}
}

func reviewMessage(d *models.Draft, replaceMsg bool) Message {
	return Message{Text: RenderReview(d), HTML: true, Menu: ReviewMenu(), Replace: replaceMsg}
}

func templateTitle(name string) string {
	return cases.Title(language.English).String(name)
}
