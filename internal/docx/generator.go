package docx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-cv-bot/internal/models"
)

// photoWidth is 1.5 inches in EMU.
const photoWidth = 1371600

// Generator writes word-processor documents. Styling is inline so the
// output does not depend on the theme's style table.
type Generator struct {
	title cases.Caser
}

func NewGenerator() *Generator {
	return &Generator{title: cases.Title(language.English)}
}

// Build lays out the resume as a flowable document.
func (g *Generator) Build(r *models.Resume) *docx.Docx {
	w := docx.New().WithDefaultTheme().WithA4Page()

	if r.PhotoPath != "" {
		p := w.AddParagraph()
		if run, err := p.AddInlineDrawingFrom(r.PhotoPath); err == nil {
			scalePhoto(run)
			w.AddParagraph()
		}
	}

	name := r.Name
	if name == "" {
		name = "Your Name"
	}
	w.AddParagraph().Justification("center").AddText(name).Bold().Size("44")
	if contact := r.ContactLine(); contact != "" {
		w.AddParagraph().Justification("center").AddText(contact).Color("555555")
	}

	if r.Summary != "" {
		heading(w, "Professional Summary")
		w.AddParagraph().AddText(r.Summary)
	}

	if len(r.Experience) > 0 {
		heading(w, "Professional Experience")
		for _, job := range r.Experience {
			p := w.AddParagraph()
			p.AddText(or(job.Role, "Position")).Bold()
			preserve(p.AddText(fmt.Sprintf(" at %s | %s", or(job.Company, "Company"), or(job.Years, "Dates"))))
			if job.Description != "" {
				bullet(w, job.Description)
			}
		}
	}

	if len(r.Education) > 0 {
		heading(w, "Education")
		for _, edu := range r.Education {
			p := w.AddParagraph()
			p.AddText(or(edu.Degree, "Degree")).Bold()
			preserve(p.AddText(fmt.Sprintf(" | %s | %s", or(edu.Institution, "Institution"), or(edu.Years, "Dates"))))
		}
	}

	if cats := r.SkillCategories(); len(cats) > 0 {
		heading(w, "Skills")
		for _, c := range cats {
			if len(r.Skills[c]) == 0 {
				continue
			}
			w.AddParagraph().AddText(g.title.String(c) + ":").Bold().Size("24")
			w.AddParagraph().AddText(strings.Join(r.Skills[c], ", "))
		}
	}

	if len(r.Languages) > 0 {
		heading(w, "Languages")
		w.AddParagraph().AddText(strings.Join(r.Languages, ", "))
	}

	if len(r.Certifications) > 0 {
		heading(w, "Certifications")
		for _, c := range r.Certifications {
			bullet(w, c)
		}
	}

	if len(r.Projects) > 0 {
		heading(w, "Projects")
		for _, pr := range r.Projects {
			p := w.AddParagraph()
			p.AddText(or(pr.Name, "Project")).Bold()
			if pr.Technologies != "" {
				preserve(p.AddText(" | Technologies: " + pr.Technologies))
			}
			if pr.Description != "" {
				bullet(w, pr.Description)
			}
		}
	}

	return w
}

// Render writes the document for r to path.
func (g *Generator) Render(ctx context.Context, r *models.Resume, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := g.Build(r)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("could not write docx: %w", err)
	}
	return f.Close()
}

func heading(w *docx.Docx, text string) {
	w.AddParagraph()
	w.AddParagraph().AddText(text).Bold().Size("28").Color("1F3B5A")
}

func bullet(w *docx.Docx, text string) {
	w.AddParagraph().AddText("• " + text)
}

// preserve keeps the leading space of a continuation run.
func preserve(run *docx.Run) {
	for _, c := range run.Children {
		if t, ok := c.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
}

func scalePhoto(run *docx.Run) {
	for _, c := range run.Children {
		d, ok := c.(*docx.Drawing)
		if !ok || d.Inline == nil || d.Inline.Extent == nil || d.Inline.Extent.CX == 0 {
			continue
		}
		ext := d.Inline.Extent
		d.Inline.Size(photoWidth, ext.CY*photoWidth/ext.CX)
	}
}

func or(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
