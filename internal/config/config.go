// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values
// Validate config

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	TelegramToken string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	//chat that receives admin reports, 0 disables them
	AdminChatID int64  `yaml:"admin_chat_id" env:"ADMIN_CHAT_ID"`
	Env         string `yaml:"env" env:"ENV" validate:"oneof=development production"`
	WebhookURL  string `yaml:"webhook_url" env:"WEBHOOK_URL" validate:"omitempty,url"`
	Port        int    `yaml:"port" env:"PORT" validate:"min=1,max=65535"`
	Debug       bool   `yaml:"debug" env:"DEBUG"`
	JSONLogs    bool   `yaml:"json_logs" env:"JSON_LOGS"`

	AI       AIConfig       `yaml:"ai"`
	Storage  StorageConfig  `yaml:"storage"`
	Render   RenderConfig   `yaml:"render"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Payment  PaymentConfig  `yaml:"payment"`
	Sessions SessionsConfig `yaml:"sessions"`

	//analytics database, empty disables analytics
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	//buttons shown by /join
	Community []LinkConfig `yaml:"community" validate:"dive"`
}

type LinkConfig struct {
	Text string `yaml:"text" validate:"required"`
	URL  string `yaml:"url" validate:"required,url"`
}

type AIConfig struct {
	//gemini, groq or none
	Provider     string        `yaml:"provider" validate:"oneof=gemini groq none"`
	GeminiAPIKey string        `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel  string        `yaml:"gemini_model"`
	GroqAPIKey   string        `yaml:"groq_api_key" env:"GROQ_API_KEY"`
	GroqModel    string        `yaml:"groq_model"`
	Timeout      time.Duration `yaml:"timeout" validate:"min=0"`
	//run the whole-document enhancement before rendering
	EnhanceDocuments bool `yaml:"enhance_documents"`
}

type StorageConfig struct {
	SQLitePath   string `yaml:"sqlite_path" validate:"required"`
	FallbackPath string `yaml:"fallback_path" validate:"required"`
}

type RenderConfig struct {
	//playwright or chromedp
	Engine  string        `yaml:"engine" validate:"oneof=playwright chromedp"`
	TempDir string        `yaml:"temp_dir" validate:"required"`
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASS"`
	From     string `yaml:"from" env:"FROM_EMAIL" validate:"omitempty,email"`
	//receives session and contact notifications
	NotifyTo string `yaml:"notify_to" env:"CONTACT_RECEIVER_EMAIL" validate:"omitempty,email"`
	//.eml files land here when SMTP is not configured
	OutboxDir string `yaml:"outbox_dir"`
	//minimum gap between two "session started" mails for one user
	NotifyWindow time.Duration `yaml:"notify_window"`
	CacheDir     string        `yaml:"cache_dir"`
}

type PaymentConfig struct {
	Dir        string `yaml:"dir" env:"PAYMENT_DIR" validate:"required"`
	Phone      string `yaml:"phone"`
	Email      string `yaml:"email"`
	Account    string `yaml:"account"`
	AmountETB  int    `yaml:"amount_etb"`
	ContactURL string `yaml:"contact_url"`
}

type SessionsConfig struct {
	//idle sessions older than this are dropped, a negative value keeps them forever
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"min=0"`
}

// Load reads .env, the YAML file at path and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var data []byte
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("could not read %s: %w", path, err)
		}
		data = raw
	}
	return Parse(data, os.Getenv)
}

// Parse builds a Config from YAML bytes and an env lookup function.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config yaml: %w", err)
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Production() && cfg.WebhookURL == "" {
		return nil, fmt.Errorf("invalid config: WEBHOOK_URL is required in production")
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Env, "ENV")
	setString(&cfg.WebhookURL, "WEBHOOK_URL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.AI.GroqAPIKey, "GROQ_API_KEY")
	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setString(&cfg.SMTP.User, "SMTP_USER")
	setString(&cfg.SMTP.Password, "SMTP_PASS")
	setString(&cfg.SMTP.From, "FROM_EMAIL")
	setString(&cfg.SMTP.NotifyTo, "CONTACT_RECEIVER_EMAIL")
	setString(&cfg.Payment.Dir, "PAYMENT_DIR")

	setInt := func(dst *int, key string) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	if err := setInt(&cfg.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.SMTP.Port, "SMTP_PORT"); err != nil {
		return err
	}

	if v := getenv("ADMIN_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_CHAT_ID: %w", err)
		}
		cfg.AdminChatID = id
	}

	for key, dst := range map[string]*bool{"DEBUG": &cfg.Debug, "JSON_LOGS": &cfg.JSONLogs} {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.Port == 0 {
		cfg.Port = 8443
	}

	if cfg.AI.Provider == "" {
		switch {
		case cfg.AI.GeminiAPIKey != "":
			cfg.AI.Provider = "gemini"
		case cfg.AI.GroqAPIKey != "":
			cfg.AI.Provider = "groq"
		default:
			cfg.AI.Provider = "none"
		}
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.AI.GroqModel == "" {
		cfg.AI.GroqModel = "llama-3.3-70b-versatile"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 10 * time.Second
	}

	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "cv_bot.db"
	}
	if cfg.Storage.FallbackPath == "" {
		cfg.Storage.FallbackPath = "temp/cv_fallback.json"
	}

	if cfg.Render.Engine == "" {
		cfg.Render.Engine = "playwright"
	}
	if cfg.Render.TempDir == "" {
		cfg.Render.TempDir = "temp"
	}
	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = 60 * time.Second
	}

	if cfg.SMTP.OutboxDir == "" {
		cfg.SMTP.OutboxDir = "sent_emails"
	}
	if cfg.SMTP.NotifyWindow == 0 {
		cfg.SMTP.NotifyWindow = time.Hour
	}
	if cfg.SMTP.CacheDir == "" {
		cfg.SMTP.CacheDir = ".cache"
	}

	if cfg.Payment.Dir == "" {
		cfg.Payment.Dir = "config"
	}

	if cfg.Sessions.TTL == 0 {
		cfg.Sessions.TTL = 24 * time.Hour
	}
	if cfg.Sessions.SweepInterval == 0 {
		cfg.Sessions.SweepInterval = 10 * time.Minute
	}
}

// Production reports whether the bot should receive updates through a webhook.
func (c *Config) Production() bool {
	return c.Env == "production"
}
