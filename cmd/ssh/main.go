package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"slices"
	"syscall"
	"time"

	"cryptodash/internal/config"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/tui"
	applog "cryptodash/pkg/logging"
	"cryptodash/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	gossh "golang.org/x/crypto/ssh"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	setupLoggingFunc = func(level string) { applog.Setup(level, os.Stderr) }
	initTracerFunc   = tracing.InitTracer
	newFetcherFunc   = func(tracer trace.Tracer, baseURL string) dashboard.Fetcher {
		return dashboard.NewClient(baseURL, dashboard.WithTracer(tracer))
	}
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
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

	fetcher := newFetcherFunc(tracer, cfg.DashboardAPIURL)
	refresh := time.Duration(cfg.DashboardRefreshSecs) * time.Second

	if len(cfg.SSHAllowedFingerprints) == 0 {
		log.Warn().Msg("SSH_ALLOWED_FINGERPRINTS not set, any public key is accepted")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			return authorize(cfg.SSHAllowedFingerprints, ctx.User(), gossh.FingerprintSHA256(key))
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				return sessionModel(s.Context(), fetcher, refresh, s)
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create SSH server")
	}

	if srv != nil {
		go func() {
			log.Info().Str("addr", addr).Str("api", cfg.DashboardAPIURL).Msg("SSH server listening")
			if err := srv.ListenAndServe(); err != nil {
				log.Info().Err(err).Msg("SSH server stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info().Msg("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("SSH server shutdown error")
		}
	}

	log.Info().Msg("SSH server exited")
}

// authorize accepts fingerprint when it is in allowed. An empty allow-list
// accepts every key.
func authorize(allowed []string, user, fingerprint string) bool {
	if len(allowed) == 0 || slices.Contains(allowed, fingerprint) {
		log.Info().Str("user", user).Str("fingerprint", fingerprint).Msg("SSH auth accepted")
		return true
	}
	log.Warn().Str("user", user).Str("fingerprint", fingerprint).Msg("SSH auth denied")
	return false
}

type ptySession interface {
	User() string
	Pty() (ssh.Pty, <-chan ssh.Window, bool)
}

// sessionModel builds a dashboard whose poller lives as long as ctx.
func sessionModel(ctx context.Context, fetcher dashboard.Fetcher, refresh time.Duration, s ptySession) (tea.Model, []tea.ProgramOption) {
	poller := dashboard.NewPoller(fetcher, dashboard.DefaultFilter(), refresh)
	go poller.Run(ctx)

	model := tui.NewAppModel(poller, dashboard.DefaultFilter(), s.User(), time.Local)
	pty, _, _ := s.Pty()
	model.SetSize(pty.Window.Width, pty.Window.Height)

	return model, []tea.ProgramOption{tea.WithAltScreen()}
}
