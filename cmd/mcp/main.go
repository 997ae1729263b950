// Command mcp serves the market data as MCP tools over stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptodash/internal/cache"
	"cryptodash/internal/config"
	"cryptodash/internal/mcpserver"
	"cryptodash/internal/provider"
	"cryptodash/internal/service"
	"cryptodash/pkg/logging"
	"cryptodash/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc              = godotenv.Load
	loadConfigFunc           = config.Load
	setupLoggingFunc         = func(level string) { logging.Setup(level, os.Stderr) }
	initRedisFunc            = cache.InitRedis
	initTracerFunc           = tracing.InitTracer
	newCoinGeckoProviderFunc = func(tracer trace.Tracer, cfg *config.Config, rc provider.ResponseCache) service.MarketProvider {
		opts := []provider.Option{provider.WithTimeout(time.Duration(cfg.UpstreamTimeoutSecs) * time.Second)}
		if cfg.CoinGeckoBaseURL != "" {
			opts = append(opts, provider.WithBaseURL(cfg.CoinGeckoBaseURL))
		}
		if cfg.CoinGeckoAPIKey != "" {
			opts = append(opts, provider.WithAPIKey(cfg.CoinGeckoAPIKey))
		}
		if rc != nil {
			opts = append(opts, provider.WithCache(rc))
		}
		return provider.NewCoinGeckoProvider(tracer, opts...)
	}
	runServerFunc     = mcpserver.Run
	setupSignalNotify = signal.Notify
)

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

	priceService := service.NewPriceService(tracer, newCoinGeckoProviderFunc(tracer, cfg, responseCache))
	server := mcpserver.New(priceService)

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-quit:
			log.Info().Msg("Shutting down MCP server...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// stdout carries the protocol; logging is bound to stderr above.
	log.Info().Str("name", mcpserver.ServerName).Msg("MCP server listening on stdio")
	if err := runServerFunc(ctx, server); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("MCP server stopped")
	}

	log.Info().Msg("MCP server exited")
}
