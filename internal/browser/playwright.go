package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Printer turns an HTML document into PDF bytes.
type Printer interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// PlaywrightManager keeps one headless Chromium alive for the process and
// opens a fresh page per document. The browser starts on first use.
type PlaywrightManager struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywright() *PlaywrightManager {
	return &PlaywrightManager{}
}

func (pm *PlaywrightManager) launch() (playwright.Browser, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.browser != nil && pm.browser.IsConnected() {
		return pm.browser, nil
	}
	if pm.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("could not start playwright: %w", err)
		}
		pm.pw = pw
	}

	b, err := pm.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}
	pm.browser = b
	return b, nil
}

func (pm *PlaywrightManager) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	b, err := pm.launch()
	if err != nil {
		return nil, err
	}

	page, err := b.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	defer page.Close()

	opts, err := contentOptions(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	if err := page.SetContent(html, opts); err != nil {
		return nil, fmt.Errorf("could not set page content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdfBytes, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String("1cm"),
			Bottom: playwright.String("1cm"),
			Left:   playwright.String("1cm"),
			Right:  playwright.String("1cm"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate PDF: %w", err)
	}
	return pdfBytes, nil
}

// contentOptions maps the ctx deadline onto a Playwright timeout. Playwright
// reads 0 as no timeout, so the value never drops below 1ms.
func contentOptions(ctx context.Context, now time.Time) (playwright.PageSetContentOptions, error) {
	opts := playwright.PageSetContentOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}
	if err := ctx.Err(); err != nil {
		return opts, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		ms := max(deadline.Sub(now).Milliseconds(), 1)
		opts.Timeout = playwright.Float(float64(ms))
	}
	return opts, nil
}

func (pm *PlaywrightManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			return fmt.Errorf("could not close browser: %w", err)
		}
		pm.browser = nil
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil {
			return fmt.Errorf("could not stop playwright: %w", err)
		}
		pm.pw = nil
	}
	return nil
}

// Screenshot renders html and saves a full-page PNG to path.
func (pm *PlaywrightManager) Screenshot(ctx context.Context, html, path string) error {
	b, err := pm.launch()
	if err != nil {
		return err
	}

	page, err := b.NewPage()
	if err != nil {
		return fmt.Errorf("could not create new page: %w", err)
	}
	defer page.Close()

	opts, err := contentOptions(ctx, time.Now())
	if err != nil {
		return err
	}
	if err := page.SetContent(html, opts); err != nil {
		return fmt.Errorf("could not set page content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("could not capture screenshot: %w", err)
	}
	return nil
}
