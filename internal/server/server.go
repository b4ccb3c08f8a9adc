package server

import (
	"context"
	"crypto/subtle"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-cv-bot/internal/config"
	"go-cv-bot/internal/notify"
)

//go:embed templates/*.html
var templateFS embed.FS

// UpdateParser decodes a webhook request body into an update.
type UpdateParser interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

type Submitter interface {
	Submit(u tgbotapi.Update)
}

type Contacter interface {
	Contact(ctx context.Context, f notify.ContactForm) (notify.ContactResult, error)
}

type PaymentStatus interface {
	Required() (bool, error)
}

type Options struct {
	// Token guards the webhook path. Empty disables the webhook route.
	Token   string
	Parser  UpdateParser
	Bot     Submitter
	Contact Contacter
	Payment PaymentStatus
	Info    config.PaymentConfig
	Logger  *zap.Logger
	Debug   bool
}

// WebhookPath is the route Telegram posts updates to.
func WebhookPath(token string) string {
	return "/webhook/" + token
}

type handler struct {
	opts Options
	log  *zap.Logger
}

func New(opts Options) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	h := &handler{opts: opts, log: opts.Logger}
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", h.health)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.Token != "" && opts.Parser != nil && opts.Bot != nil {
		r.POST("/webhook/:token", h.webhook)
	}
	if opts.Contact != nil {
		r.GET("/contact", h.contactPage)
		r.POST("/contact/send", h.contactSend)
	}
	return r, nil
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "CV Bot is running!",
		"status":  "healthy",
	})
}

func (h *handler) webhook(c *gin.Context) {
	if subtle.ConstantTimeCompare([]byte(c.Param("token")), []byte(h.opts.Token)) != 1 {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	update, err := h.opts.Parser.HandleUpdate(c.Request)
	if err != nil {
		h.log.Warn("⚠️ Bad webhook payload", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}
	h.opts.Bot.Submit(*update)
	c.Status(http.StatusOK)
}

type contactView struct {
	config.PaymentConfig
	PaymentEnabled bool
	Flash          string
	FlashKind      string
}

func (h *handler) view(flash, kind string) contactView {
	v := contactView{PaymentConfig: h.opts.Info, Flash: flash, FlashKind: kind}
	if h.opts.Payment != nil {
		enabled, err := h.opts.Payment.Required()
		if err != nil {
			h.log.Warn("⚠️ Cannot read payment settings", zap.Error(err))
		}
		v.PaymentEnabled = enabled
	}
	return v
}

func (h *handler) respond(c *gin.Context, status int, v contactView) {
	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		c.JSON(status, gin.H{
			"phone":           v.Phone,
			"email":           v.Email,
			"payment_enabled": v.PaymentEnabled,
			"account":         v.Account,
			"amount_etb":      v.AmountETB,
			"message":         v.Flash,
			"status":          v.FlashKind,
		})
	default:
		c.HTML(status, "contact.html", v)
	}
}

func (h *handler) contactPage(c *gin.Context) {
	h.respond(c, http.StatusOK, h.view("", ""))
}

func (h *handler) contactSend(c *gin.Context) {
	var form notify.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		h.respond(c, http.StatusBadRequest, h.view("Please provide your email, subject and message.", "error"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	res, err := h.opts.Contact.Contact(ctx, form)
	switch {
	case errors.Is(err, notify.ErrInvalidForm):
		h.respond(c, http.StatusBadRequest, h.view("Please provide your email, subject and message.", "error"))
	case err != nil:
		h.log.Error("❌ Contact message failed", zap.Error(err))
		h.respond(c, http.StatusBadGateway, h.view("Failed to send message, please try again later.", "error"))
	case res == notify.ContactSaved:
		h.respond(c, http.StatusOK, h.view("SMTP not configured; message saved locally for review.", "warning"))
	default:
		h.respond(c, http.StatusOK, h.view("Message sent successfully. We will contact you shortly.", "success"))
	}
}

// Serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🌐 HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
