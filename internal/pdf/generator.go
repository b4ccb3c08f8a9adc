package pdf

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-cv-bot/internal/browser"
	"go-cv-bot/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Generator is responsible for converting Resume models into PDF files
type Generator struct {
	printer browser.Printer
	tmpl    *template.Template
}

type skillGroup struct {
	Category string
	Skills   []string
}

// view is what the templates see.
type view struct {
	*models.Resume
	PhotoURI    template.URL
	SkillGroups []skillGroup
}

// NewGenerator parses the embedded templates. printer may be nil when only
// HTML output is needed.
func NewGenerator(printer browser.Printer) (*Generator, error) {
	title := cases.Title(language.English)
	funcMap := template.FuncMap{
		"join":  strings.Join,
		"title": title.String,
	}

	tmpl, err := template.New("cv").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Generator{printer: printer, tmpl: tmpl}, nil
}

// HTML renders the resume with its selected template, falling back to the
// professional design for unknown names.
func (g *Generator) HTML(resume *models.Resume) (string, error) {
	name := resume.Template
	if !slices.Contains(models.Templates, name) {
		name = models.DefaultTemplate
	}

	v := view{Resume: resume}
	for _, c := range resume.SkillCategories() {
		if len(resume.Skills[c]) > 0 {
			v.SkillGroups = append(v.SkillGroups, skillGroup{Category: c, Skills: resume.Skills[c]})
		}
	}
	if resume.PhotoPath != "" {
		uri, err := photoDataURI(resume.PhotoPath)
		if err == nil {
			v.PhotoURI = uri
		}
	}

	var buf bytes.Buffer
	if err := g.tmpl.ExecuteTemplate(&buf, name+".html", v); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// Render writes the PDF for resume to path.
func (g *Generator) Render(ctx context.Context, resume *models.Resume, path string) error {
	if g.printer == nil {
		return fmt.Errorf("no PDF engine configured")
	}
	html, err := g.HTML(resume)
	if err != nil {
		return err
	}

	pdfBytes, err := g.printer.PrintPDF(ctx, html)
	if err != nil {
		return err
	}
	return SaveToFile(pdfBytes, path)
}

// photoDataURI inlines the photo so the page has no external references.
func photoDataURI(path string) (template.URL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

// SaveToFile is a helper function to directly save generated PDF to disk
func SaveToFile(pdfBytes []byte, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}

	return os.WriteFile(outputPath, pdfBytes, 0644)
}
