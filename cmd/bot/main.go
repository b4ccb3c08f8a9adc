package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-cv-bot/internal/ai"
	"go-cv-bot/internal/browser"
	"go-cv-bot/internal/config"
	"go-cv-bot/internal/database"
	"go-cv-bot/internal/dedup"
	"go-cv-bot/internal/document"
	"go-cv-bot/internal/docx"
	"go-cv-bot/internal/feedback"
	"go-cv-bot/internal/interview"
	"go-cv-bot/internal/logger"
	"go-cv-bot/internal/notify"
	"go-cv-bot/internal/payment"
	"go-cv-bot/internal/pdf"
	"go-cv-bot/internal/reporter"
	"go-cv-bot/internal/server"
	"go-cv-bot/internal/storage"
	"go-cv-bot/internal/telegram"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	//load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.JSONLogs, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("❌ Bot stopped", zap.Error(err))
	}
	log.Info("🏁 Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	log.Info("🚀 Starting CV bot", zap.String("env", cfg.Env), zap.String("ai", cfg.AI.Provider), zap.String("engine", cfg.Render.Engine))

	//init telegram bot
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to init telegram bot: %w", err)
	}
	api.Debug = cfg.Debug
	log.Info("🤖 Telegram Bot initialized", zap.String("username", api.Self.UserName))

	//enhancement
	client, err := newAIClient(ctx, cfg.AI)
	if err != nil {
		return err
	}
	var enhancer *ai.Enhancer
	if client != nil {
		enhancer = ai.NewEnhancer(client, cfg.AI.Timeout, log.Named("ai"))
	}

	//rendering
	var printer browser.Printer
	switch cfg.Render.Engine {
	case "chromedp":
		printer = browser.NewChromedp()
	default:
		printer = browser.NewPlaywright()
	}
	defer printer.Close()

	pdfGen, err := pdf.NewGenerator(printer)
	if err != nil {
		return err
	}
	var docEnhancer document.Enhancer
	if enhancer != nil && cfg.AI.EnhanceDocuments {
		docEnhancer = enhancer
	}
	assembler := document.NewAssembler(pdfGen, docx.NewGenerator(), docEnhancer, document.Options{
		TempDir: cfg.Render.TempDir,
		Timeout: cfg.Render.Timeout,
		Logger:  log.Named("document"),
	})

	//draft storage
	var primary storage.Backend
	sqlite, err := storage.OpenSQLite(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		log.Warn("⚠️ SQLite unavailable, drafts go to the fallback file", zap.Error(err))
	} else {
		defer sqlite.Close()
		primary = sqlite
	}
	drafts := storage.New(primary, cfg.Storage.FallbackPath, log.Named("storage"))

	//analytics
	var recorder database.Recorder
	if cfg.DatabaseURL != "" {
		repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("⚠️ Analytics database unavailable, analytics disabled", zap.Error(err))
		} else {
			defer repo.Close()
			if err := repo.Migrate(ctx); err != nil {
				log.Warn("⚠️ Analytics migration failed", zap.Error(err))
			}
			recorder = repo
		}
	}
	analytics := database.NewAnalytics(recorder, log.Named("analytics"))

	//notifications
	rep := reporter.NewTelegramReporter(api, cfg.AdminChatID)
	notifier := notify.New(notify.NewSender(cfg.SMTP), notify.Options{
		To:       cfg.SMTP.NotifyTo,
		Reporter: rep,
		Gate:     dedup.NewWindow(cfg.SMTP.CacheDir, "session_notifications.json", cfg.SMTP.NotifyWindow, log.Named("dedup")),
		Logger:   log.Named("notify"),
	})

	gate, err := payment.New(cfg.Payment.Dir)
	if err != nil {
		return err
	}

	machine := interview.NewMachine(interview.Deps{
		Polisher:  enhancer,
		Assembler: assembler,
		Store:     drafts,
		Notifier:  notifier,
		Tracker:   analytics,
		Logger:    log.Named("interview"),
	})

	bot, err := telegram.NewBot(ctx, telegram.Deps{
		API:        api,
		Machine:    machine,
		Sessions:   interview.NewStore(),
		Feedback:   feedback.NewCollector(analytics),
		Analytics:  analytics,
		Gate:       gate,
		Reporter:   rep,
		Logger:     log.Named("telegram"),
		TempDir:    cfg.Render.TempDir,
		ContactURL: cfg.Payment.ContactURL,
		Community:  cfg.Community,
	})
	if err != nil {
		return err
	}

	router, err := server.New(server.Options{
		Token:   cfg.TelegramToken,
		Parser:  api,
		Bot:     bot,
		Contact: notifier,
		Payment: gate,
		Info:    cfg.Payment,
		Logger:  log.Named("http"),
		Debug:   cfg.Debug,
	})
	if err != nil {
		return err
	}

	if err := rep.SendStatus("CV bot started"); err != nil {
		log.Warn("⚠️ Failed to send startup report", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx, fmt.Sprintf(":%d", cfg.Port), router, log.Named("http"))
	})
	g.Go(func() error {
		bot.RunJanitor(gctx, cfg.Sessions.TTL, cfg.Sessions.SweepInterval)
		return nil
	})

	if cfg.Production() {
		webhookURL := strings.TrimRight(cfg.WebhookURL, "/") + server.WebhookPath(cfg.TelegramToken)
		wh, err := tgbotapi.NewWebhook(webhookURL)
		if err != nil {
			return fmt.Errorf("invalid webhook url: %w", err)
		}
		if _, err := api.Request(wh); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		log.Info("🔗 Webhook registered", zap.String("base", cfg.WebhookURL))
		g.Go(func() error {
			<-gctx.Done()
			bot.Wait()
			return nil
		})
	} else {
		if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.Warn("⚠️ Failed to delete webhook", zap.Error(err))
		}
		g.Go(func() error {
			bot.Run(gctx, api)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newAIClient(ctx context.Context, cfg config.AIConfig) (ai.Client, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		return ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required for the groq provider")
		}
		return ai.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel), nil
	}
	return nil, nil
}
