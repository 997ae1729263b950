package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cryptodash/internal/cache"
	"cryptodash/internal/config"
	"cryptodash/internal/handler"
	"cryptodash/internal/notify"
	"cryptodash/internal/provider"
	"cryptodash/internal/service"
	"cryptodash/internal/tracelog"
	"cryptodash/pkg/logging"
	"cryptodash/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "cryptodash/docs"
)

var (
	loadEnvFunc              = godotenv.Load
	loadConfigFunc           = config.Load
	setupLoggingFunc         = func(level string) { logging.Setup(level, os.Stderr) }
	initRedisFunc            = cache.InitRedis
	initTracerFunc           = tracing.InitTracer
	openTraceLogFunc         = tracelog.Open
	newCoinGeckoProviderFunc = func(tracer trace.Tracer, cfg *config.Config, rc provider.ResponseCache) service.MarketProvider {
		return provider.NewCoinGeckoProvider(tracer, providerOptions(cfg, rc)...)
	}
	newNotifierFunc        = buildNotifier
	newPriceServiceFunc    = service.NewPriceService
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           CryptoDash Market API
// @version         1.0
// @description     Market data proxy over CoinGecko for the crypto dashboard.

// @host      localhost:8080
// @BasePath  /
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()
	setupLoggingFunc(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	// The response cache is optional; the proxy stays stateless without it.
	var responseCache provider.ResponseCache
	if cfg.CacheEnabled {
		client, err := initRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, upstream responses will not be cached")
		} else {
			defer client.Close()
			responseCache = cache.NewResponseCache(client)
		}
	}

	var traces tracelog.Recorder = tracelog.Nop{}
	traceLog, err := openTraceLogFunc(cfg.TraceLogPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.TraceLogPath).Msg("trace log disabled")
	} else {
		traces = traceLog
		defer func() {
			if err := traceLog.Close(); err != nil {
				log.Error().Err(err).Msg("error closing trace log")
			}
		}()
	}

	notifier := newNotifierFunc(cfg)

	cgProvider := newCoinGeckoProviderFunc(tracer, cfg, responseCache)
	priceService := newPriceServiceFunc(tracer, cgProvider)

	h := newHandlerFunc(tracer, priceService, traces, notifier, handler.ErrorFormatter{ExposeDetails: cfg.IsDevelopment()})

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Pending webhook deliveries outlive their requests; let them finish.
	notify.Drain(notifier)

	log.Info().Msg("Server exiting")
}

func providerOptions(cfg *config.Config, rc provider.ResponseCache) []provider.Option {
	opts := []provider.Option{
		provider.WithTimeout(time.Duration(cfg.UpstreamTimeoutSecs) * time.Second),
	}
	if cfg.CoinGeckoBaseURL != "" {
		opts = append(opts, provider.WithBaseURL(cfg.CoinGeckoBaseURL))
	}
	if cfg.CoinGeckoAPIKey != "" {
		opts = append(opts, provider.WithAPIKey(cfg.CoinGeckoAPIKey))
	}
	if rc != nil {
		opts = append(opts, provider.WithCache(rc))
	}
	return opts
}

// buildNotifier combines the webhook with Telegram when both token and chat
// are configured.
func buildNotifier(cfg *config.Config) notify.Notifier {
	webhook := notify.NewWebhook(cfg.WebhookURL, cfg.WebhookMaxRetries)
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		return webhook
	}

	tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramSuccesses)
	if err != nil {
		log.Warn().Err(err).Msg("telegram notifications disabled")
		return webhook
	}
	return notify.Multi{webhook, tg}
}
