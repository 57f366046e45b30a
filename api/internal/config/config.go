package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultRequestModel = "gemini-3-flash-preview"

const defaultPort = "8000"

type Config struct {
	Port string

	GoogleAPIKey     string
	DefaultModel     string        // модель /detect, если клиент её не передал
	DetectTimeout    time.Duration // на весь вызов провайдера, с ретраями
	ProviderAttempts int
	ModelListTimeout time.Duration
	PromptFile       string
	MaxUploadMB      int64

	DatabaseURL string

	TelegramBotToken string
	WebhookURL       string
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load читает .env (путь можно переопределить ENV_FILE), затем окружение.
func Load() *Config {
	cfg, err := LoadFile(getEnv("ENV_FILE", ".env"))
	if err != nil {
		log.Printf("config: %v", err)
	}
	return cfg
}

// LoadFile: как Load, но с явным путём к dotenv-файлу.
// Отсутствующий файл не ошибка; переменные окружения важнее файла.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("port", defaultPort)
	v.SetDefault("default_model", DefaultRequestModel)
	v.SetDefault("detect_timeout", 60*time.Second)
	v.SetDefault("provider_attempts", 2)
	v.SetDefault("model_list_timeout", 15*time.Second)
	v.SetDefault("max_upload_mb", 20)

	v.AutomaticEnv()
	_ = v.BindEnv("google_api_key", "GOOGLE_API_KEY", "GEMINI_API_KEY")

	var readErr error
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			readErr = err
		}
	}

	cfg := &Config{
		Port: strings.TrimSpace(v.GetString("port")),

		GoogleAPIKey:     strings.TrimSpace(v.GetString("google_api_key")),
		DefaultModel:     strings.TrimSpace(v.GetString("default_model")),
		DetectTimeout:    v.GetDuration("detect_timeout"),
		ProviderAttempts: v.GetInt("provider_attempts"),
		ModelListTimeout: v.GetDuration("model_list_timeout"),
		PromptFile:       strings.TrimSpace(v.GetString("detect_prompt_file")),
		MaxUploadMB:      v.GetInt64("max_upload_mb"),

		DatabaseURL: strings.TrimSpace(v.GetString("database_url")),

		TelegramBotToken: strings.TrimSpace(v.GetString("telegram_bot_token")),
		WebhookURL:       strings.TrimSpace(v.GetString("webhook_url")),
	}
	if cfg.GoogleAPIKey == "" {
		// GEMINI_API_KEY из dotenv-файла: BindEnv видит только окружение
		cfg.GoogleAPIKey = strings.TrimSpace(v.GetString("gemini_api_key"))
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultRequestModel
	}
	if cfg.ProviderAttempts < 1 {
		cfg.ProviderAttempts = 1
	}
	if cfg.DetectTimeout <= 0 {
		cfg.DetectTimeout = 60 * time.Second
	}
	if cfg.ModelListTimeout <= 0 {
		cfg.ModelListTimeout = 15 * time.Second
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 20
	}
	return cfg, readErr
}
