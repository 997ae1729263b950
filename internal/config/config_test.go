package config

import "testing"

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "APP_ENV", "COINGECKO_BASE_URL", "COINGECKO_API_KEY", "UPSTREAM_TIMEOUT_SECS",
		"CACHE_ENABLED", "REDIS_URL", "TRACE_LOG_PATH", "LOG_LEVEL", "WEBHOOK_URL",
		"WEBHOOK_MAX_RETRIES", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_NOTIFY_SUCCESS",
		"SSH_PORT", "SSH_HOST_KEY_PATH", "SSH_ALLOWED_FINGERPRINTS",
		"DASHBOARD_API_URL", "DASHBOARD_REFRESH_SECS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.Port != 8080 || cfg.AppEnv != "production" || cfg.IsDevelopment() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.UpstreamTimeoutSecs != 5 {
		t.Fatalf("expected default timeout 5, got %d", cfg.UpstreamTimeoutSecs)
	}
	if cfg.CacheEnabled || cfg.RedisURL != "" {
		t.Fatalf("cache should be disabled by default: %+v", cfg)
	}
	if cfg.TraceLogPath != "logs/http_trace.jsonl" {
		t.Fatalf("unexpected trace path %s", cfg.TraceLogPath)
	}
	if cfg.WebhookMaxRetries != 3 || cfg.WebhookURL != "" {
		t.Fatalf("unexpected webhook defaults: %+v", cfg)
	}
	if cfg.DashboardAPIURL != "http://localhost:8080" || cfg.DashboardRefreshSecs != 60 {
		t.Fatalf("unexpected dashboard defaults: %+v", cfg)
	}
	if cfg.SSHPort != 2222 || len(cfg.SSHAllowedFingerprints) != 0 {
		t.Fatalf("unexpected ssh defaults: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "Development")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("WEBHOOK_URL", "https://hooks.example/x")
	t.Setenv("WEBHOOK_MAX_RETRIES", "0")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("SSH_ALLOWED_FINGERPRINTS", "SHA256:abc, SHA256:def ,")
	t.Setenv("DASHBOARD_API_URL", "http://api:9090/")

	cfg := Load()
	if cfg.Port != 9090 || !cfg.IsDevelopment() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.CacheEnabled || cfg.RedisURL != "localhost:6379" {
		t.Fatalf("cache enabled without url should default redis addr: %+v", cfg)
	}
	if cfg.WebhookURL != "https://hooks.example/x" || cfg.WebhookMaxRetries != 0 {
		t.Fatalf("unexpected webhook config: %+v", cfg)
	}
	if cfg.TelegramChatID != -100123 {
		t.Fatalf("unexpected chat id %d", cfg.TelegramChatID)
	}
	if len(cfg.SSHAllowedFingerprints) != 2 || cfg.SSHAllowedFingerprints[1] != "SHA256:def" {
		t.Fatalf("unexpected fingerprints: %v", cfg.SSHAllowedFingerprints)
	}
	if cfg.DashboardAPIURL != "http://api:9090" {
		t.Fatalf("unexpected dashboard url %s", cfg.DashboardAPIURL)
	}

	t.Setenv("UPSTREAM_TIMEOUT_SECS", "bad")
	t.Setenv("PORT", "-1")
	cfg = Load()
	if cfg.UpstreamTimeoutSecs != 5 || cfg.Port != 8080 {
		t.Fatalf("invalid values should fall back to defaults: %+v", cfg)
	}
}
