package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port   int
	AppEnv string

	CoinGeckoBaseURL    string
	CoinGeckoAPIKey     string
	UpstreamTimeoutSecs int

	CacheEnabled bool
	RedisURL     string

	TraceLogPath string
	LogLevel     string

	WebhookURL        string
	WebhookMaxRetries int
	TelegramBotToken  string
	TelegramChatID    int64
	TelegramSuccesses bool

	SSHPort                int
	SSHHostKeyPath         string
	SSHAllowedFingerprints []string

	DashboardAPIURL      string
	DashboardRefreshSecs int
}

// IsDevelopment reports whether raw error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func Load() *Config {
	cfg := &Config{
		CoinGeckoBaseURL: strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL")),
		CoinGeckoAPIKey:  strings.TrimSpace(os.Getenv("COINGECKO_API_KEY")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		WebhookURL:       strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.Port = 8080
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}

	cfg.AppEnv = strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if cfg.AppEnv == "" {
		cfg.AppEnv = "production"
	}

	cfg.UpstreamTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.UpstreamTimeoutSecs = n
		}
	}

	cfg.CacheEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("CACHE_ENABLED")), "true")
	if cfg.CacheEnabled && cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.TraceLogPath = strings.TrimSpace(os.Getenv("TRACE_LOG_PATH"))
	if cfg.TraceLogPath == "" {
		cfg.TraceLogPath = "logs/http_trace.jsonl"
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.WebhookURL == "" {
		log.Warn().Msg("WEBHOOK_URL not set, webhook notifications disabled")
	}

	cfg.WebhookMaxRetries = 3
	if v := strings.TrimSpace(os.Getenv("WEBHOOK_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.WebhookMaxRetries = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Warn().Str("value", v).Msg("invalid TELEGRAM_CHAT_ID, telegram notifications disabled")
		}
	}
	cfg.TelegramSuccesses = strings.EqualFold(strings.TrimSpace(os.Getenv("TELEGRAM_NOTIFY_SUCCESS")), "true")

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/cryptodash_ed25519"
	}

	for _, fp := range strings.Split(os.Getenv("SSH_ALLOWED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAllowedFingerprints = append(cfg.SSHAllowedFingerprints, fp)
		}
	}

	cfg.DashboardAPIURL = strings.TrimRight(strings.TrimSpace(os.Getenv("DASHBOARD_API_URL")), "/")
	if cfg.DashboardAPIURL == "" {
		cfg.DashboardAPIURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	cfg.DashboardRefreshSecs = 60
	if v := strings.TrimSpace(os.Getenv("DASHBOARD_REFRESH_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DashboardRefreshSecs = n
		}
	}

	return cfg
}
