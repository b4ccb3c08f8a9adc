package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cv-bot/internal/models"
)

type fakePrinter struct {
	html string
	err  error
}

func (f *fakePrinter) PrintPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4"), nil
}

func (f *fakePrinter) Close() error { return nil }

func resume() *models.Resume {
	return &models.Resume{
		Name:       "Ann <script>",
		Email:      "ann@example.com",
		Phone:      "123",
		Summary:    "Builder",
		Experience: []models.Experience{{Role: "Engineer", Company: "Acme", Years: "2020-2022", Description: "Shipped"}},
		Skills:     map[string][]string{"technical": {"Go", "SQL"}, "tools": {"Docker"}},
		Languages:  []string{"English"},
		Projects:   []models.Project{{Name: "Bot", Technologies: "Go"}},
		Template:   "modern",
	}
}

func TestHTMLEveryTemplate(t *testing.T) {
	g, err := NewGenerator(nil)
	require.NoError(t, err)

	for _, name := range append(models.Templates, "unknown") {
		t.Run(name, func(t *testing.T) {
			r := resume()
			r.Template = name
			out, err := g.HTML(r)
			require.NoError(t, err)

			assert.Contains(t, out, "Ann &lt;script&gt;")
			assert.NotContains(t, out, "<script>")
			assert.Contains(t, out, "ann@example.com | 123")
			assert.Contains(t, out, "Technical:")
			assert.Contains(t, out, "Go, SQL")
			assert.Contains(t, out, "Engineer")
			assert.NotContains(t, out, "Certifications")
		})
	}
}

func TestHTMLEmbedsPhoto(t *testing.T) {
	// 1x1 PNG
	png := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 0x49, 0x48, 0x44, 0x52}
	photo := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(photo, png, 0644))

	g, err := NewGenerator(nil)
	require.NoError(t, err)
	r := resume()
	r.PhotoPath = photo

	out, err := g.HTML(r)
	require.NoError(t, err)
	assert.Contains(t, out, `src="data:image/png;base64,`)
}

func TestHTMLSkipsMissingPhoto(t *testing.T) {
	g, err := NewGenerator(nil)
	require.NoError(t, err)
	r := resume()
	r.PhotoPath = "/nonexistent/photo.jpg"

	out, err := g.HTML(r)
	require.NoError(t, err)
	assert.NotContains(t, out, "<img")
}

func TestRender(t *testing.T) {
	printer := &fakePrinter{}
	g, err := NewGenerator(printer)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "1", "Ann_CV.pdf")
	require.NoError(t, g.Render(context.Background(), resume(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Contains(t, printer.html, "<!DOCTYPE html>")
}

func TestRenderErrors(t *testing.T) {
	g, err := NewGenerator(&fakePrinter{err: errors.New("crashed")})
	require.NoError(t, err)
	assert.Error(t, g.Render(context.Background(), resume(), filepath.Join(t.TempDir(), "a.pdf")))

	g, err = NewGenerator(nil)
	require.NoError(t, err)
	assert.Error(t, g.Render(context.Background(), resume(), filepath.Join(t.TempDir(), "a.pdf")))
}
