package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/antoniostano/abqarino/internal/intent"
	"github.com/antoniostano/abqarino/internal/llm"
	"github.com/antoniostano/abqarino/internal/memory"
	"github.com/antoniostano/abqarino/internal/observability"
	"github.com/antoniostano/abqarino/internal/policy"
	"github.com/antoniostano/abqarino/internal/prompt"
	"github.com/antoniostano/abqarino/internal/transcript"
)

const logTextLimit = 200

// Event is one inbound chat message as delivered by a transport.
type Event struct {
	UserID      string
	DisplayName string
	Text        string
	// Command is the slash command without "/" (empty for plain text); Args
	// holds the space-joined arguments that followed it.
	Command string
	Args    string
}

// Dependencies wires a Service. Store and Client are required.
type Dependencies struct {
	Store     *memory.Store
	Client    llm.Client
	Provider  string
	Options   llm.Options
	Persona   string
	Matcher   *intent.Matcher
	Executor  intent.Executor
	Archive   transcript.Sink
	Metrics   *observability.Metrics
	Logger    logrus.FieldLogger
	Messages  *Messages
	RedactPII bool
}

// Service turns events into replies. It is safe for concurrent use.
type Service struct {
	store     *memory.Store
	assembler *prompt.Assembler
	client    llm.Client
	provider  string
	options   llm.Options
	matcher   *intent.Matcher
	executor  intent.Executor
	archive   transcript.Sink
	metrics   *observability.Metrics
	log       logrus.FieldLogger
	messages  Messages
	redact    bool
}

func NewService(deps Dependencies) *Service {
	s := &Service{
		store:     deps.Store,
		assembler: prompt.NewAssembler(deps.Persona, deps.Store),
		client:    deps.Client,
		provider:  deps.Provider,
		options:   deps.Options,
		matcher:   deps.Matcher,
		executor:  deps.Executor,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		messages:  DefaultMessages(),
		redact:    deps.RedactPII,
	}
	if deps.Messages != nil {
		s.messages = *deps.Messages
	}
	if s.matcher == nil {
		s.matcher = intent.NewMatcher(intent.DefaultRules())
	}
	if s.executor == nil {
		s.executor = intent.UnimplementedExecutor{}
	}
	if s.archive == nil {
		s.archive = transcript.NopSink{}
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Handle produces exactly one reply for the event.
func (s *Service) Handle(ctx context.Context, ev Event) string {
	log := s.log.WithFields(logrus.Fields{"user_id": ev.UserID, "command": ev.Command})
	log.WithField("text", policy.LogText(ev.Text, s.redact, logTextLimit)).Info("message received")

	switch ev.Command {
	case "":
		return s.handleText(ctx, log, ev)
	case "start":
		s.store.Clear(ev.UserID)
		s.metrics.SetMemoryUsers(s.store.Users())
		return s.messages.greeting(ev.DisplayName)
	case "clear":
		s.store.Clear(ev.UserID)
		s.metrics.SetMemoryUsers(s.store.Users())
		return s.messages.Cleared
	case "stats":
		return s.messages.stats(s.store.Size(ev.UserID), s.store.Limit())
	case "help":
		return s.messages.Help
	}

	mode := prompt.ParseMode(ev.Command)
	if mode == prompt.ModeChat {
		return s.messages.Help
	}
	return s.complete(ctx, log, ev, mode, strings.TrimSpace(ev.Args))
}

func (s *Service) handleText(ctx context.Context, log logrus.FieldLogger, ev Event) string {
	res := s.matcher.Match(ev.Text)
	if !res.Detected {
		return s.complete(ctx, log, ev, prompt.ModeChat, ev.Text)
	}

	log = log.WithFields(logrus.Fields{"platform": res.Action.Platform, "verb": res.Action.Verb})
	log.Info("action intent detected")
	s.metrics.ObserveIntent(string(res.Action.Platform))
	if err := s.executor.Execute(ctx, res.Action, ev.Text); err != nil && !errors.Is(err, intent.ErrNotImplemented) {
		log.WithError(err).Warn("intent executor failed")
	}
	return s.messages.acknowledge(ev.DisplayName, res.Action)
}

func (s *Service) complete(ctx context.Context, log logrus.FieldLogger, ev Event, mode prompt.Mode, text string) string {
	log = log.WithField("mode", mode.String())
	userID := ev.UserID

	req, err := s.assembler.Build(userID, s.messages.name(ev.DisplayName), mode, text)
	switch {
	case errors.Is(err, prompt.ErrEmptyInput):
		return s.messages.usage(mode)
	case errors.Is(err, memory.ErrInvalidRole):
		log.WithError(err).Error("conversation store misuse")
		return s.messages.Failure
	case err != nil:
		log.WithError(err).Error("prompt assembly failed")
		return s.messages.Failure
	}
	if mode == prompt.ModeChat {
		s.metrics.SetMemoryUsers(s.store.Users())
	}
	req.Options = s.options

	start := time.Now()
	reply, err := s.client.Complete(ctx, req)
	latency := time.Since(start)

	if err != nil {
		s.metrics.ObserveCompletion(s.provider, mode.String(), "error", latency)
		entry := log.WithError(err).WithField("latency_ms", latency.Milliseconds())
		var ce *llm.CompletionError
		if errors.As(err, &ce) {
			entry = entry.WithFields(logrus.Fields{"kind": ce.Kind, "status": ce.StatusCode, "retryable": ce.Retryable()})
		}
		entry.Error("completion failed")
		s.archiveExchange(ctx, log, userID, mode, text, "", true, latency)
		return s.messages.Failure
	}
	s.metrics.ObserveCompletion(s.provider, mode.String(), "ok", latency)

	if err := s.assembler.Record(userID, mode, reply); err != nil {
		log.WithError(err).Error("recording reply failed")
	}
	log.WithField("latency_ms", latency.Milliseconds()).Debug("completion ok")
	s.archiveExchange(ctx, log, userID, mode, text, reply, false, latency)
	return reply
}

func (s *Service) archiveExchange(ctx context.Context, log logrus.FieldLogger, userID string, mode prompt.Mode, input, reply string, failed bool, latency time.Duration) {
	redacted := false
	if s.redact {
		var changedIn, changedOut bool
		input, changedIn = policy.RedactPII(input)
		reply, changedOut = policy.RedactPII(reply)
		redacted = changedIn || changedOut
	}
	err := s.archive.Record(ctx, transcript.Exchange{
		UserID:    userID,
		Mode:      mode.String(),
		Provider:  s.provider,
		Input:     input,
		Reply:     reply,
		Failed:    failed,
		Redacted:  redacted,
		LatencyMS: latency.Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("archive exchange failed")
	}
}
