// Command preview renders a sample CV in every template so designs can be
// checked without going through Telegram.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-cv-bot/internal/ai"
	"go-cv-bot/internal/browser"
	"go-cv-bot/internal/config"
	"go-cv-bot/internal/document"
	"go-cv-bot/internal/docx"
	"go-cv-bot/internal/logger"
	"go-cv-bot/internal/models"
	"go-cv-bot/internal/pdf"
)

func sampleDraft(template string) *models.Draft {
	d := models.NewDraft()
	d.Name = "Abebe Kebede"
	d.Email = "abebe@example.com"
	d.Phone = "+251 900 000 000"
	d.Summary = "Backend engineer who builds reliable services in Go and PostgreSQL."
	d.Experience = []models.Experience{
		{Role: "Backend Engineer", Company: "Acme", Years: "2021-2024", Description: "Built payment APIs and cut p99 latency by 40%."},
		{Role: "Junior Developer", Company: "Startup PLC", Years: "2019-2021", Description: "Maintained the billing service."},
	}
	d.Education = []models.Education{{Degree: "BSc Computer Science", Institution: "Addis Ababa University", Years: "2015-2019"}}
	d.Skills = []string{"Go", "PostgreSQL", "Docker", "Kubernetes"}
	d.Languages = []string{"Amharic", "English"}
	d.Projects = []models.Project{{Name: "CV Bot", Description: "Telegram bot that writes CVs", Technologies: "Go, Chromium"}}
	d.Template = template
	return d
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	outDir := flag.String("out", "preview", "output directory")
	enhance := flag.Bool("enhance", false, "run the AI enhancement on the sample first")
	screenshots := flag.Bool("png", false, "also save PNG previews (playwright engine only)")
	flag.Parse()

	log, err := logger.New(false, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*configPath, *outDir, *enhance, *screenshots, log); err != nil {
		log.Fatal("❌ Preview failed", zap.Error(err))
	}
	log.Info("✨ Preview complete", zap.String("dir", *outDir))
}

func run(configPath, outDir string, enhance, screenshots bool, log *zap.Logger) error {
	_ = godotenv.Load()
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not read %s: %w", configPath, err)
	}
	// no Telegram traffic happens here, so a missing token is fine
	cfg, err := config.Parse(data, func(key string) string {
		if v := os.Getenv(key); v != "" || key != "TELEGRAM_BOT_TOKEN" {
			return v
		}
		return "preview"
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var printer browser.Printer
	pw := browser.NewPlaywright()
	if cfg.Render.Engine == "chromedp" {
		printer = browser.NewChromedp()
	} else {
		printer = pw
	}
	defer printer.Close()

	pdfGen, err := pdf.NewGenerator(printer)
	if err != nil {
		return err
	}

	var enhancer document.Enhancer
	if enhance {
		var client ai.Client
		switch cfg.AI.Provider {
		case "gemini":
			if client, err = ai.NewGemini(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel); err != nil {
				return err
			}
		case "groq":
			client = ai.NewGroqClient(cfg.AI.GroqAPIKey, cfg.AI.GroqModel)
		default:
			return fmt.Errorf("-enhance needs an AI provider, got %q", cfg.AI.Provider)
		}
		enhancer = ai.NewEnhancer(client, cfg.AI.Timeout, log)
	}

	asm := document.NewAssembler(pdfGen, docx.NewGenerator(), enhancer, document.Options{
		TempDir: outDir,
		Timeout: cfg.Render.Timeout,
		Logger:  log,
	})

	for _, tmpl := range models.Templates {
		dir := filepath.Join(outDir, tmpl)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		res, err := asm.Assemble(ctx, 0, sampleDraft(tmpl))
		if err != nil {
			log.Error("❌ Template failed", zap.String("template", tmpl), zap.Error(err))
			continue
		}
		for _, p := range []string{res.PDFPath, res.DOCXPath} {
			if p == "" {
				continue
			}
			dst := filepath.Join(dir, filepath.Base(p))
			if err := os.Rename(p, dst); err != nil {
				return err
			}
			log.Info("📄 Rendered", zap.String("file", dst))
		}

		if screenshots && cfg.Render.Engine != "chromedp" {
			html, err := pdfGen.HTML(document.Normalize(sampleDraft(tmpl), time.Now()))
			if err != nil {
				return err
			}
			png := filepath.Join(dir, "preview.png")
			if err := pw.Screenshot(ctx, html, png); err != nil {
				log.Warn("⚠️ Screenshot failed", zap.String("template", tmpl), zap.Error(err))
				continue
			}
			log.Info("📸 Screenshot saved", zap.String("file", png))
		}
	}
	return nil
}
