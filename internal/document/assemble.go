package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-cv-bot/internal/metrics"
	"go-cv-bot/internal/models"
)

// Renderer writes one artifact for a resume to path.
type Renderer interface {
	Render(ctx context.Context, r *models.Resume, path string) error
}

// Enhancer rewrites a resume in place. On error the resume must be untouched.
type Enhancer interface {
	Enhance(ctx context.Context, r *models.Resume) error
}

type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s rendering failed: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Result holds the artifact paths. An empty path means that format failed
// and its error is set.
type Result struct {
	PDFPath  string
	DOCXPath string
	PDFErr   error
	DOCXErr  error
}

func (r *Result) PDFName() string  { return filepath.Base(r.PDFPath) }
func (r *Result) DOCXName() string { return filepath.Base(r.DOCXPath) }

type Options struct {
	TempDir string
	// Timeout bounds the whole assembly, zero means no limit.
	Timeout time.Duration
	Logger  *zap.Logger
}

type Assembler struct {
	pdf      Renderer
	docx     Renderer
	enhancer Enhancer
	opts     Options
	now      func() time.Time
}

// NewAssembler builds an assembler. enhancer may be nil to skip enhancement.
func NewAssembler(pdf, docx Renderer, enhancer Enhancer, opts Options) *Assembler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Assembler{pdf: pdf, docx: docx, enhancer: enhancer, opts: opts, now: time.Now}
}

// Assemble renders the PDF and DOCX for d. The two formats are produced
// independently; an error is returned only when neither could be made.
func (a *Assembler) Assemble(ctx context.Context, userID int64, d *models.Draft) (*Result, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}
	log := a.opts.Logger.With(zap.Int64("user_id", userID))

	resume := Normalize(d, a.now())
	if a.enhancer != nil {
		enhanced := *resume
		if err := a.enhancer.Enhance(ctx, &enhanced); err != nil {
			log.Warn("⚠️ AI enhancement failed, using original data", zap.Error(err))
		} else {
			resume = &enhanced
		}
	}

	dir := filepath.Join(a.opts.TempDir, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create directory: %w", err)
	}
	base := filepath.Join(dir, FileBaseName(resume.Name)+"_CV")

	res := &Result{}
	var g errgroup.Group
	g.Go(func() error {
		res.PDFErr = a.render(ctx, "pdf", a.pdf, resume, base+".pdf")
		if res.PDFErr == nil {
			res.PDFPath = base + ".pdf"
		}
		return nil
	})
	g.Go(func() error {
		res.DOCXErr = a.render(ctx, "docx", a.docx, resume, base+".docx")
		if res.DOCXErr == nil {
			res.DOCXPath = base + ".docx"
		}
		return nil
	})
	_ = g.Wait()

	if res.PDFErr != nil {
		log.Error("❌ PDF generation failed", zap.Error(res.PDFErr))
	}
	if res.DOCXErr != nil {
		log.Error("❌ DOCX generation failed", zap.Error(res.DOCXErr))
	}
	if res.PDFErr != nil && res.DOCXErr != nil {
		return nil, errors.Join(res.PDFErr, res.DOCXErr)
	}
	log.Info("✅ CV generated", zap.String("pdf", res.PDFPath), zap.String("docx", res.DOCXPath))
	return res, nil
}

func (a *Assembler) render(ctx context.Context, format string, r Renderer, resume *models.Resume, path string) error {
	if r == nil {
		metrics.DocumentsRendered.WithLabelValues(format, "failed").Inc()
		return &RenderError{Format: format, Err: errors.New("no renderer configured")}
	}
	if err := r.Render(ctx, resume, path); err != nil {
		metrics.DocumentsRendered.WithLabelValues(format, "failed").Inc()
		_ = os.Remove(path)
		return &RenderError{Format: format, Err: err}
	}
	metrics.DocumentsRendered.WithLabelValues(format, "ok").Inc()
	return nil
}
