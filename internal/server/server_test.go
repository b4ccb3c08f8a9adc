package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cv-bot/internal/config"
	"go-cv-bot/internal/notify"
)

type fakeParser struct{ err error }

func (f fakeParser) HandleUpdate(*http.Request) (*tgbotapi.Update, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tgbotapi.Update{UpdateID: 42}, nil
}

type fakeSubmitter struct{ got []tgbotapi.Update }

func (f *fakeSubmitter) Submit(u tgbotapi.Update) { f.got = append(f.got, u) }

type fakeContacter struct {
	res  notify.ContactResult
	err  error
	form notify.ContactForm
}

func (f *fakeContacter) Contact(_ context.Context, form notify.ContactForm) (notify.ContactResult, error) {
	f.form = form
	return f.res, f.err
}

type fixedPayment bool

func (p fixedPayment) Required() (bool, error) { return bool(p), nil }

func newRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	opts.Debug = true
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func TestHealth(t *testing.T) {
	r := newRouter(t, Options{})
	for _, path := range []string{"/", "/health"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	}
}

func TestMetrics(t *testing.T) {
	r := newRouter(t, Options{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestWebhook(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		parser fakeParser
		code   int
		queued int
	}{
		{name: "ok", path: WebhookPath("secret"), code: http.StatusOK, queued: 1},
		{name: "wrong token", path: WebhookPath("guess"), code: http.StatusNotFound},
		{name: "bad body", path: WebhookPath("secret"), parser: fakeParser{err: errors.New("bad json")}, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeSubmitter{}
			r := newRouter(t, Options{Token: "secret", Parser: tt.parser, Bot: bot})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(`{}`)))
			assert.Equal(t, tt.code, w.Code)
			assert.Len(t, bot.got, tt.queued)
		})
	}
}

func TestContactPage(t *testing.T) {
	r := newRouter(t, Options{
		Contact: &fakeContacter{},
		Payment: fixedPayment(true),
		Info:    config.PaymentConfig{Phone: "+251900", Account: "1000", AmountETB: 10},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contact", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "10 ETB")
	assert.Contains(t, w.Body.String(), "1000")

	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"phone":"+251900","email":"","payment_enabled":true,"account":"1000","amount_etb":10,"message":"","status":""}`, w.Body.String())
}

func TestContactSend(t *testing.T) {
	tests := []struct {
		name  string
		res   notify.ContactResult
		err   error
		code  int
		flash string
	}{
		{name: "sent", res: notify.ContactSent, code: http.StatusOK, flash: "Message sent successfully"},
		{name: "saved", res: notify.ContactSaved, code: http.StatusOK, flash: "saved locally"},
		{name: "invalid", err: notify.ErrInvalidForm, code: http.StatusBadRequest, flash: "Please provide your email"},
		{name: "smtp down", err: errors.New("dial failed"), code: http.StatusBadGateway, flash: "Failed to send"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeContacter{res: tt.res, err: tt.err}
			r := newRouter(t, Options{Contact: c})

			form := url.Values{"name": {"Ann"}, "email": {"ann@example.com"}, "subject": {"Hi"}, "message": {"Hello"}}
			req := httptest.NewRequest(http.MethodPost, "/contact/send", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.flash)
			assert.Equal(t, "ann@example.com", c.form.Email)
		})
	}
}
