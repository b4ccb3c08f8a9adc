package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-cv-bot/internal/logger"
	"go-cv-bot/internal/metrics"
	"go-cv-bot/internal/models"
)

// Enhancer polishes interview answers and whole documents through a Client.
// Every failure degrades to the original text.
type Enhancer struct {
	client  Client
	timeout time.Duration
	log     *zap.Logger
}

func NewEnhancer(client Client, timeout time.Duration, log *zap.Logger) *Enhancer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enhancer{client: client, timeout: timeout, log: log}
}

// PolishSummary returns a rewritten summary or "" when the service fails.
func (e *Enhancer) PolishSummary(ctx context.Context, text string) string {
	return e.polish(ctx, "summary", summaryPrompt(text))
}

// PolishDescription returns a rewritten job description or "" when the service fails.
func (e *Enhancer) PolishDescription(ctx context.Context, text string) string {
	return e.polish(ctx, "description", descriptionPrompt(text))
}

func (e *Enhancer) polish(ctx context.Context, kind, prompt string) string {
	if e == nil || e.client == nil {
		return ""
	}
	out, err := e.complete(ctx, prompt)
	if err != nil {
		metrics.EnhancementFailures.WithLabelValues(kind).Inc()
		e.log.Warn("⚠️ Polishing failed, keeping original", zap.String("kind", kind), zap.Error(err))
		return ""
	}
	return cleanMarkdownJSON(out)
}

// Enhance rewrites r in place with the model's answer. On error r is untouched.
func (e *Enhancer) Enhance(ctx context.Context, r *models.Resume) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("no enhancement client configured")
	}
	out, err := e.complete(ctx, documentPrompt(r))
	if err != nil {
		metrics.EnhancementFailures.WithLabelValues("document").Inc()
		return fmt.Errorf("enhancement request failed: %w", err)
	}

	enh, err := parseEnhancement(out)
	if err != nil {
		metrics.EnhancementFailures.WithLabelValues("parse").Inc()
		e.log.Debug("🔍 Unparseable enhancement", zap.String("raw", logger.Truncate(out, 500)))
		return fmt.Errorf("couldn't parse AI response: %w", err)
	}
	enh.Apply(r)
	return nil
}

func (e *Enhancer) complete(ctx context.Context, prompt string) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	out, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("empty response")
	}
	return out, nil
}
