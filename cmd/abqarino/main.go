package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/antoniostano/abqarino/internal/bot"
	"github.com/antoniostano/abqarino/internal/config"
	"github.com/antoniostano/abqarino/internal/httpapi"
	"github.com/antoniostano/abqarino/internal/intent"
	"github.com/antoniostano/abqarino/internal/llm"
	"github.com/antoniostano/abqarino/internal/memory"
	"github.com/antoniostano/abqarino/internal/observability"
	"github.com/antoniostano/abqarino/internal/telegram"
	"github.com/antoniostano/abqarino/internal/transcript"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var overrides config.Overrides

	serveCmd := &cobra.Command{
		Use:           "serve",
		Short:         "Run the Telegram bot and its HTTP endpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), overrides)
		},
	}

	root := &cobra.Command{
		Use:           "abqarino",
		Short:         "Conversational Telegram assistant backed by Gemini or Groq",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&overrides.Transport, "transport", "", "update transport: polling|webhook (env TRANSPORT)")
	flags.StringVar(&overrides.LLMProvider, "provider", "", "completion provider: gemini|groq|mock (env LLM_PROVIDER)")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (env LOG_LEVEL)")
	flags.StringVar(&overrides.LogFormat, "log-format", "", "log format: text|json (env LOG_FORMAT)")

	root.AddCommand(serveCmd, &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func serve(ctx context.Context, overrides config.Overrides) error {
	cfg, err := config.Load(overrides)
	if err != nil {
		logrus.WithError(err).Error("config error")
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Error("logger init failed")
		return err
	}
	log := logger.WithFields(logrus.Fields{"transport": cfg.Transport, "provider": cfg.LLMProvider})
	if err := telegram.UseLogger(logger.WithField("component", "tgbotapi")); err != nil {
		log.WithError(err).Warn("telegram logger not set")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	archive, err := transcript.NewSink(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Error("transcript archive init failed")
		return err
	}
	defer archive.Close()

	client, err := llm.NewClient(ctx, llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.CompletionTimeout,
		Defaults: llm.Options{
			Model:       cfg.LLMModel,
			Temperature: llm.Float(cfg.LLMTemperature),
			MaxTokens:   cfg.LLMMaxTokens,
			TopP:        llm.Float(cfg.LLMTopP),
		},
	})
	if err != nil {
		log.WithError(err).Error("completion client init failed")
		return err
	}

	service := bot.NewService(bot.Dependencies{
		Store:     memory.NewStore(cfg.MemoryWindowSize),
		Client:    client,
		Provider:  cfg.LLMProvider,
		Persona:   cfg.PersonaPrompt,
		Matcher:   intent.NewMatcher(intent.DefaultRules()),
		Executor:  intent.UnimplementedExecutor{},
		Archive:   archive,
		Metrics:   metrics,
		Logger:    log,
		RedactPII: cfg.LogRedactPII,
	})

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.WithError(err).Error("telegram connect failed")
		return fmt.Errorf("connect to telegram: %w", err)
	}
	log.WithField("bot", api.Self.UserName).Info("telegram bot authorized")

	dispatcher := telegram.NewDispatcher(service, api, cfg.Transport, metrics, log)

	var (
		transport       telegram.Transport
		webhookHandling httpapi.Dispatcher
	)
	switch cfg.Transport {
	case config.TransportWebhook:
		transport = telegram.NewWebhook(api, cfg.WebhookURL, log)
		webhookHandling = dispatcher
	default:
		transport = telegram.NewPolling(api, dispatcher, log)
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr(),
		Handler:           httpapi.New(cfg, webhookHandling, metrics, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, runCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer runCancel()

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.BindAddr()).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	transportErr := make(chan error, 1)
	go func() {
		transportErr <- transport.Run(runCtx)
	}()

	var (
		runErr        error
		transportDone bool
	)
	select {
	case <-runCtx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.WithError(err).Error("listen error")
		runErr = err
	case err := <-transportErr:
		transportDone = true
		if err != nil {
			log.WithError(err).Error("transport stopped")
			runErr = err
		}
	}
	runCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
		_ = httpServer.Close()
	}

	if !transportDone {
		select {
		case <-transportErr:
		case <-shutdownCtx.Done():
			log.Warn("transport did not stop before shutdown timeout")
		}
	}

	log.Info("shutdown complete")
	return runErr
}
