package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/abqarino/internal/config"
	"github.com/antoniostano/abqarino/internal/observability"
	"github.com/antoniostano/abqarino/internal/telegram"
)

const rootBody = "Abqarino bot is running 🤖\n"

// Dispatcher handles one decoded webhook update.
type Dispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update) error
}

type Server struct {
	cfg        config.Config
	dispatcher Dispatcher
	metrics    *observability.Metrics
	log        logrus.FieldLogger
}

// New builds the HTTP surface. dispatcher is nil in polling mode, which
// leaves the webhook route unmounted.
func New(cfg config.Config, dispatcher Dispatcher, metrics *observability.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{cfg: cfg, dispatcher: dispatcher, metrics: metrics, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)
	if s.dispatcher != nil {
		r.Post(telegram.WebhookPath, s.handleWebhook)
	}
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rootBody))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"transport": s.cfg.Transport,
		"provider":  s.cfg.LLMProvider,
	})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.SnapshotLatency())
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	update, err := telegram.DecodeUpdate(r.Body)
	if err != nil {
		s.log.WithError(err).Warn("webhook decode failed")
		s.webhookError(w, "decode_failed", "invalid update body")
		return
	}
	if err := s.dispatcher.Dispatch(r.Context(), update); err != nil {
		s.log.WithError(err).WithField("update_id", update.UpdateID).Error("webhook dispatch failed")
		s.webhookError(w, "dispatch_failed", "update not delivered")
		return
	}
	s.metrics.ObserveWebhook(strconv.Itoa(http.StatusOK))
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) webhookError(w http.ResponseWriter, code, message string) {
	s.metrics.ObserveWebhook(strconv.Itoa(http.StatusInternalServerError))
	respondError(w, http.StatusInternalServerError, code, message)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
